package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/geocoding"
)

// missingCoordinatesBatch bounds one background geocoding run
const missingCoordinatesBatch = 50

// GeocodeProperty resolves and stores the coordinates of one property
func (h *Handler) GeocodeProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	p, err := h.service.GetProperty(ctx, id)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	if geocoding.AddressQuery(p) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "The property has no address to geocode"})
		return
	}

	lat, lon, err := h.geocoder.GeocodeProperty(ctx, p)
	if errors.Is(err, geocoding.ErrNoResult) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No location found for this address"})
		return
	}
	if err != nil {
		h.respondError(c, err, "geocode property")
		return
	}

	if err := h.service.SetCoordinates(ctx, id, lat, lon); err != nil {
		h.respondError(c, err, "update coordinates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "latitude": lat, "longitude": lon})
}

// UpdateCoordinates geocodes properties without coordinates in the background
func (h *Handler) UpdateCoordinates(c *gin.Context) {
	go h.updateMissingCoordinates(context.Background())

	c.JSON(http.StatusAccepted, gin.H{
		"status": "Coordinates update process started",
	})
}

func (h *Handler) updateMissingCoordinates(ctx context.Context) {
	properties, err := h.service.PropertiesWithoutCoordinates(ctx, missingCoordinatesBatch)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list properties without coordinates")
		return
	}

	updated := 0
	for i := range properties {
		p := &properties[i]
		lat, lon, err := h.geocoder.GeocodeProperty(ctx, p)
		if err != nil {
			h.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
			continue
		}
		if err := h.service.SetCoordinates(ctx, p.ID, lat, lon); err != nil {
			h.logger.WithError(err).WithField("property_id", p.ID).Error("Failed to update coordinates")
			continue
		}
		updated++
	}

	h.logger.WithField("updated", updated).Info("Finished updating coordinates")
}
