package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/estate"
	"estate/server/internal/models"
)

func (h *Handler) ListOffers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offers, err := h.service.ListOffers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get offers")
		return
	}
	c.JSON(http.StatusOK, offers)
}

// CreateOffer places an offer on the property of the path
func (h *Handler) CreateOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in estate.OfferInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.PropertyID = id

	offer, err := h.service.CreateOffer(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "create offer")
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (h *Handler) GetOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.service.GetOffer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get offer")
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) offerAction(action func(context.Context, int64) (*models.PropertyOffer, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}

		offer, err := action(c.Request.Context(), id)
		if err != nil {
			h.respondError(c, err, "update offer")
			return
		}
		c.JSON(http.StatusOK, offer)
	}
}

// UpdateOfferDeadline changes the validity or the deadline of an offer
func (h *Handler) UpdateOfferDeadline(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in estate.DeadlineInput
	if !h.bindJSON(c, &in) {
		return
	}

	offer, err := h.service.UpdateOfferDeadline(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "update offer")
		return
	}
	c.JSON(http.StatusOK, offer)
}
