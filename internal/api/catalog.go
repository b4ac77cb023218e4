package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/estate"
)

func (h *Handler) ListPropertyTypes(c *gin.Context) {
	types, err := h.service.ListPropertyTypes(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "get property types")
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *Handler) CreatePropertyType(c *gin.Context) {
	var in estate.PropertyTypeInput
	if !h.bindJSON(c, &in) {
		return
	}

	t, err := h.service.CreatePropertyType(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "create property type")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetPropertyType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetPropertyType(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property type")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdatePropertyType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in estate.PropertyTypeInput
	if !h.bindJSON(c, &in) {
		return
	}

	t, err := h.service.UpdatePropertyType(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "update property type")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeletePropertyType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePropertyType(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete property type")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTypeProperties lists the properties of one type with the usual search criteria
func (h *Handler) ListTypeProperties(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	q, f, ok := parseListQuery(c)
	if !ok {
		return
	}

	properties, total, err := h.service.ListTypeProperties(c.Request.Context(), id, f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}
	c.JSON(http.StatusOK, newPage(properties, total, q))
}

func (h *Handler) ListPropertyTags(c *gin.Context) {
	tags, err := h.service.ListPropertyTags(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "get property tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) CreatePropertyTag(c *gin.Context) {
	var in estate.PropertyTagInput
	if !h.bindJSON(c, &in) {
		return
	}

	tag, err := h.service.CreatePropertyTag(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "create property tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) UpdatePropertyTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in estate.PropertyTagInput
	if !h.bindJSON(c, &in) {
		return
	}

	tag, err := h.service.UpdatePropertyTag(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "update property tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) DeletePropertyTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePropertyTag(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete property tag")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListPartners(c *gin.Context) {
	partners, err := h.service.ListPartners(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "get partners")
		return
	}
	c.JSON(http.StatusOK, partners)
}

func (h *Handler) CreatePartner(c *gin.Context) {
	var in estate.PartnerInput
	if !h.bindJSON(c, &in) {
		return
	}

	partner, err := h.service.CreatePartner(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "create partner")
		return
	}
	c.JSON(http.StatusCreated, partner)
}

func (h *Handler) GetPartner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	partner, err := h.service.GetPartner(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get partner")
		return
	}
	c.JSON(http.StatusOK, partner)
}
