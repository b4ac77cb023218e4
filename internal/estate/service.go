package estate

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

// Publisher receives property events once the transaction producing them committed
type Publisher interface {
	Publish(ctx context.Context, event models.PropertyEvent) error
}

// PublisherFunc adapts a plain function to Publisher
type PublisherFunc func(ctx context.Context, event models.PropertyEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event models.PropertyEvent) error {
	return f(ctx, event)
}

// Service implements the listing and offer rules on top of the database
type Service struct {
	db        *database.Database
	publisher Publisher
	uploadDir string
	logger    *logrus.Logger
	now       func() time.Time
}

func NewService(db *database.Database, publisher Publisher, uploadDir string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &Service{
		db:        db,
		publisher: publisher,
		uploadDir: uploadDir,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// publish hands committed events to the publisher; failures are logged, never returned
func (s *Service) publish(ctx context.Context, events ...models.PropertyEvent) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithFields(logrus.Fields{
				"event":       event.Type,
				"property_id": event.PropertyID,
			}).WithError(err).Warn("Failed to publish property event")
		}
	}
}

// today returns the current day at UTC midnight
func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

const minSellingRatio = 0.9

// checkSellingPrice enforces that a non-zero selling price is at least 90% of the expected price
func checkSellingPrice(p *models.Property) error {
	if p.SellingPrice == 0 {
		return nil
	}
	if lessCents(p.SellingPrice, p.ExpectedPrice*minSellingRatio) {
		return validationf("The selling price must be at least 90%% of the expected price! " +
			"You must reduce the expected price if you want to accept this offer.")
	}
	return nil
}

// lessCents compares two amounts rounded to cents
func lessCents(a, b float64) bool {
	return math.Round(a*100) < math.Round(b*100)
}

// recompute refreshes the stored derived fields
func recompute(p *models.Property, bestOffer float64) {
	p.TotalArea = p.LivingArea + p.GardenArea
	p.BestOffer = bestOffer
}

// applyGardenRule fills or clears the garden details when the garden flag is set
func applyGardenRule(p *models.Property) {
	if p.Garden {
		if p.GardenArea == 0 {
			p.GardenArea = models.DefaultGardenArea
		}
		if p.GardenOrientation == models.OrientationNone {
			p.GardenOrientation = models.OrientationNorth
		}
		return
	}
	p.GardenArea = 0
	p.GardenOrientation = models.OrientationNone
}

func parseDate(field, value string) (datatypes.Date, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
		}
	}
	return datatypes.Date{}, validationf("Invalid %s: expected YYYY-MM-DD", field)
}

func formatDate(d datatypes.Date) string {
	t := time.Time(d)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

var trackedFields = []struct {
	name  string
	value func(p *models.Property) string
}{
	{"name", func(p *models.Property) string { return p.Name }},
	{"expected_price", func(p *models.Property) string { return formatAmount(p.ExpectedPrice) }},
	{"selling_price", func(p *models.Property) string { return formatAmount(p.SellingPrice) }},
	{"state", func(p *models.Property) string { return string(p.State) }},
	{"buyer_id", func(p *models.Property) string { return formatID(p.BuyerID) }},
	{"property_type_id", func(p *models.Property) string { return formatID(p.PropertyTypeID) }},
	{"salesperson", func(p *models.Property) string { return p.Salesperson }},
	{"date_availability", func(p *models.Property) string { return formatDate(p.DateAvailability) }},
	{"city", func(p *models.Property) string { return p.City }},
	{"postcode", func(p *models.Property) string { return p.Postcode }},
}

type snapshot []string

func takeSnapshot(p *models.Property) snapshot {
	values := make(snapshot, len(trackedFields))
	for i, f := range trackedFields {
		values[i] = f.value(p)
	}
	return values
}

// changes lists one message per tracked field that differs from the snapshot
func (old snapshot) changes(p *models.Property, at time.Time) []models.PropertyMessage {
	var messages []models.PropertyMessage
	for i, f := range trackedFields {
		if current := f.value(p); current != old[i] {
			messages = append(messages, models.PropertyMessage{
				PropertyID: p.ID,
				Field:      f.name,
				OldValue:   old[i],
				NewValue:   current,
				CreatedAt:  at,
			})
		}
	}
	return messages
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func requireName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationf("The %s is required", field)
	}
	return value, nil
}
