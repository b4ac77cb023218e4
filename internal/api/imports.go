package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/importer"
)

// maxImportBody caps the size of a bulk import request
const maxImportBody = 16 << 20

// ImportProperties validates a bulk import payload and queues it in batches
func (h *Handler) ImportProperties(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBody))
	if err != nil {
		badRequest(c, "Failed to read request body")
		return
	}

	inputs, err := h.validator.Parse(body)
	var verr *importer.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import payload", "problems": verr.Problems})
		return
	}
	if err != nil {
		h.respondError(c, err, "validate import")
		return
	}

	ids, err := h.processor.Enqueue(inputs)
	if err != nil {
		h.logger.WithError(err).WithField("queued_batches", len(ids)).Error("Failed to queue import")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Import queue is full, try again later", "batch_ids": ids})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"batch_ids": ids, "properties": len(inputs)})
}

func (h *Handler) GetImportStatus(c *gin.Context) {
	status, ok := h.processor.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import batch not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}
