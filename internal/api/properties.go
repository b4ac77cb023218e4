package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"estate/server/internal/estate"
	"estate/server/internal/geometry"
	"estate/server/internal/models"
)

// ListProperties searches properties. With lat, lon and radius_km the geocoded matches
// within the radius are returned nearest first.
func (h *Handler) ListProperties(c *gin.Context) {
	q, f, ok := parseListQuery(c)
	if !ok {
		return
	}

	if q.nearby() {
		h.listNearby(c, q, f)
		return
	}

	properties, total, err := h.service.ListProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}
	c.JSON(http.StatusOK, newPage(properties, total, q))
}

func (h *Handler) listNearby(c *gin.Context, q listQuery, f models.PropertyFilter) {
	properties, err := h.service.ListGeocodedProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}

	matches := geometry.WithinRadius(properties, orb.Point{*q.Lon, *q.Lat}, q.RadiusKm)
	total := int64(len(matches))
	start, end := f.Offset, f.Offset+f.Limit
	if start > len(matches) {
		start = len(matches)
	}
	if end > len(matches) {
		end = len(matches)
	}
	c.JSON(http.StatusOK, newPage(matches[start:end], total, q))
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var in estate.PropertyInput
	if !h.bindJSON(c, &in) {
		return
	}

	p, err := h.service.CreateProperty(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "create property")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in estate.PropertyInput
	if !h.bindJSON(c, &in) {
		return
	}

	p, err := h.service.UpdateProperty(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "update property")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProperty(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete property")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ArchiveProperty(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) UnarchiveProperty(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.SetActive(c.Request.Context(), id, active)
	if err != nil {
		h.respondError(c, err, "update property")
		return
	}
	c.JSON(http.StatusOK, p)
}

// propertyAction adapts a state transition of the service, such as SellProperty, to a handler
func (h *Handler) propertyAction(action func(context.Context, int64) (*models.Property, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}

		p, err := action(c.Request.Context(), id)
		if err != nil {
			h.respondError(c, err, "update property state")
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (h *Handler) GetPropertyMessages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.service.ListPropertyMessages(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) GetPropertyStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "get property stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
