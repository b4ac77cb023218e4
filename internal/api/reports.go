package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"estate/server/internal/geometry"
	"estate/server/internal/mailer"
	"estate/server/internal/report"
)

// ExportProperties downloads every property matching the search criteria as a spreadsheet
func (h *Handler) ExportProperties(c *gin.Context) {
	_, f, ok := parseListQuery(c)
	if !ok {
		return
	}
	f.Limit, f.Offset = 0, 0

	properties, _, err := h.service.ListProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "export properties")
		return
	}

	var buf bytes.Buffer
	if err := report.WritePropertiesXLSX(&buf, properties); err != nil {
		h.respondError(c, err, "export properties")
		return
	}

	filename := fmt.Sprintf("properties_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

func (h *Handler) PropertyBrochure(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBrochurePDF(&buf, p); err != nil {
		h.respondError(c, err, "render brochure")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"property_%d.pdf\"", p.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// PropertiesGeoJSON returns the geocoded properties as a FeatureCollection.
// With hulls=true a convex hull polygon is added per city.
func (h *Handler) PropertiesGeoJSON(c *gin.Context) {
	_, f, ok := parseListQuery(c)
	if !ok {
		return
	}

	properties, err := h.service.ListGeocodedProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}

	fc := geometry.FeatureCollection(properties)
	if c.Query("hulls") == "true" {
		geometry.CityAreas(fc, properties)
	}
	c.JSON(http.StatusOK, fc)
}

// SendPropertyEmail mails the property summary to every partner who made an offer on it
func (h *Handler) SendPropertyEmail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if h.mailer == nil || !h.mailer.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email sending is not configured"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.service.GetProperty(ctx, id)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	partners, err := h.service.OfferPartners(ctx, id)
	if err != nil {
		h.respondError(c, err, "get offer partners")
		return
	}

	sent, err := h.mailer.SendProperty(p, partners)
	if errors.Is(err, mailer.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email sending is not configured"})
		return
	}
	if err != nil {
		h.respondError(c, err, "send email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
