package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estate/server/internal/database"
	"estate/server/internal/estate"
	"estate/server/internal/geocoding"
	"estate/server/internal/importer"
	"estate/server/internal/mailer"
	"estate/server/internal/models"
	"estate/server/internal/processor"
	"estate/server/internal/telegram"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Dependencies are the components the HTTP handlers delegate to
type Dependencies struct {
	DB        *database.Database
	Service   *estate.Service
	Processor *processor.BatchProcessor
	Validator *importer.Validator
	Geocoder  *geocoding.Geocoder
	Mailer    *mailer.Mailer
	Telegram  *telegram.Service
}

type Handler struct {
	db        *database.Database
	service   *estate.Service
	processor *processor.BatchProcessor
	validator *importer.Validator
	geocoder  *geocoding.Geocoder
	mailer    *mailer.Mailer
	telegram  *telegram.Service
	logger    *logrus.Logger
}

func NewHandler(deps Dependencies, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:        deps.DB,
		service:   deps.Service,
		processor: deps.Processor,
		validator: deps.Validator,
		geocoder:  deps.Geocoder,
		mailer:    deps.Mailer,
		telegram:  deps.Telegram,
		logger:    logger,
	}
}

// statusFor maps business error kinds to HTTP status codes
func statusFor(kind estate.Kind) int {
	switch kind {
	case estate.KindNotFound:
		return http.StatusNotFound
	case estate.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// respondError writes business errors verbatim and hides infrastructure errors behind "Failed to <what>"
func (h *Handler) respondError(c *gin.Context, err error, what string) {
	var e *estate.Error
	if errors.As(err, &e) {
		c.JSON(statusFor(e.Kind), gin.H{"error": e.Message})
		return
	}

	h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Failed to " + what)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + what})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// idParam parses a positive integer path parameter, answering 400 when it is malformed
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input
func (h *Handler) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.logger.WithError(err).Debug("Invalid request body")
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

type listQuery struct {
	State           string   `form:"state"`
	PropertyTypeID  int64    `form:"property_type_id"`
	TagID           int64    `form:"tag_id"`
	City            string   `form:"city"`
	MinPrice        float64  `form:"min_price"`
	MaxPrice        float64  `form:"max_price"`
	MinBedrooms     int      `form:"min_bedrooms"`
	MinLivingArea   int      `form:"min_living_area"`
	AvailableFrom   string   `form:"available_from"`
	Query           string   `form:"q"`
	IncludeInactive bool     `form:"include_inactive"`
	Page            int      `form:"page"`
	Limit           int      `form:"limit"`
	Lat             *float64 `form:"lat"`
	Lon             *float64 `form:"lon"`
	RadiusKm        float64  `form:"radius_km"`
}

func (q *listQuery) page() (page, limit int) {
	page, limit = q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func (q *listQuery) nearby() bool {
	return q.Lat != nil && q.Lon != nil && q.RadiusKm > 0
}

// parseListQuery reads the property search criteria from the query string
func parseListQuery(c *gin.Context) (listQuery, models.PropertyFilter, bool) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return q, models.PropertyFilter{}, false
	}

	f := models.PropertyFilter{
		State:           models.PropertyState(q.State),
		PropertyTypeID:  q.PropertyTypeID,
		TagID:           q.TagID,
		City:            q.City,
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		MinBedrooms:     q.MinBedrooms,
		MinLivingArea:   q.MinLivingArea,
		Query:           q.Query,
		IncludeInactive: q.IncludeInactive,
	}
	if f.State != "" && !f.State.Valid() {
		badRequest(c, "Invalid state")
		return q, f, false
	}
	if q.AvailableFrom != "" {
		day, err := time.Parse("2006-01-02", q.AvailableFrom)
		if err != nil {
			badRequest(c, "Invalid available_from: expected YYYY-MM-DD")
			return q, f, false
		}
		f.AvailableFrom = &day
	}
	if (q.Lat != nil || q.Lon != nil) && !q.nearby() {
		badRequest(c, "lat, lon and radius_km must be given together")
		return q, f, false
	}

	page, limit := q.page()
	f.Limit = limit
	f.Offset = (page - 1) * limit
	return q, f, true
}

// Page is the envelope of paginated listings
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newPage[T any](items []T, total int64, q listQuery) Page[T] {
	page, limit := q.page()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit}
}
