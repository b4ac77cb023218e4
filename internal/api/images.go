package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estate/server/internal/estate"
)

// UploadImage stores the multipart "file" field as a new image of the property
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "An image file is required")
		return
	}

	in := estate.ImageInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		FileName:    header.Filename,
	}
	if raw := c.PostForm("sequence"); raw != "" {
		seq, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid sequence")
			return
		}
		in.Sequence = &seq
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, err, "read uploaded file")
		return
	}
	defer file.Close()

	img, err := h.service.AddImage(c.Request.Context(), id, in, file)
	if err != nil {
		h.respondError(c, err, "upload image")
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *Handler) ListImages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	images, err := h.service.ListImages(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get images")
		return
	}
	c.JSON(http.StatusOK, images)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := idParam(c, "imageId")
	if !ok {
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), id, imageID); err != nil {
		h.respondError(c, err, "delete image")
		return
	}
	c.Status(http.StatusNoContent)
}

type mainImageRequest struct {
	ImageID int64 `json:"image_id" binding:"required"`
}

func (h *Handler) SetMainImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req mainImageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	p, err := h.service.SetMainImage(c.Request.Context(), id, req.ImageID)
	if err != nil {
		h.respondError(c, err, "set main image")
		return
	}
	c.JSON(http.StatusOK, p)
}
