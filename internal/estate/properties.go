package estate

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

// PropertyInput carries writable property fields; nil fields are left unchanged on update
type PropertyInput struct {
	Name              *string                   `json:"name"`
	Description       *string                   `json:"description"`
	Postcode          *string                   `json:"postcode"`
	DateAvailability  *string                   `json:"date_availability"`
	ExpectedPrice     *float64                  `json:"expected_price"`
	Bedrooms          *int                      `json:"bedrooms"`
	LivingArea        *int                      `json:"living_area"`
	Facades           *int                      `json:"facades"`
	Garage            *bool                     `json:"garage"`
	Garden            *bool                     `json:"garden"`
	GardenArea        *int                      `json:"garden_area"`
	GardenOrientation *models.GardenOrientation `json:"garden_orientation"`
	Active            *bool                     `json:"active"`
	PropertyTypeID    *int64                    `json:"property_type_id"`
	Salesperson       *string                   `json:"salesperson"`
	Address           *string                   `json:"address"`
	City              *string                   `json:"city"`
	CountryCode       *string                   `json:"country_code"`
	Latitude          *float64                  `json:"latitude"`
	Longitude         *float64                  `json:"longitude"`
	Amenities         *string                   `json:"amenities"`
	Furnished         *bool                     `json:"furnished"`
	TagIDs            *[]int64                  `json:"tag_ids"`
}

func (in *PropertyInput) apply(p *models.Property) error {
	if in.Name != nil {
		name, err := requireName("name", *in.Name)
		if err != nil {
			return err
		}
		p.Name = name
	}
	setString(&p.Description, in.Description)
	setString(&p.Postcode, in.Postcode)
	setString(&p.Salesperson, in.Salesperson)
	setString(&p.Address, in.Address)
	setString(&p.City, in.City)
	setString(&p.Amenities, in.Amenities)
	if in.CountryCode != nil {
		p.CountryCode = strings.ToUpper(strings.TrimSpace(*in.CountryCode))
	}
	if in.DateAvailability != nil {
		if *in.DateAvailability == "" {
			p.DateAvailability = datatypes.Date{}
		} else {
			d, err := parseDate("date_availability", *in.DateAvailability)
			if err != nil {
				return err
			}
			p.DateAvailability = d
		}
	}
	if in.ExpectedPrice != nil {
		p.ExpectedPrice = *in.ExpectedPrice
	}
	setInt(&p.Bedrooms, in.Bedrooms)
	setInt(&p.LivingArea, in.LivingArea)
	setInt(&p.Facades, in.Facades)
	setInt(&p.GardenArea, in.GardenArea)
	setBool(&p.Garage, in.Garage)
	setBool(&p.Garden, in.Garden)
	setBool(&p.Active, in.Active)
	setBool(&p.Furnished, in.Furnished)
	if in.GardenOrientation != nil {
		p.GardenOrientation = *in.GardenOrientation
	}
	if in.PropertyTypeID != nil {
		if *in.PropertyTypeID == 0 {
			p.PropertyTypeID = nil
		} else {
			id := *in.PropertyTypeID
			p.PropertyTypeID = &id
		}
	}
	if in.Latitude != nil || in.Longitude != nil {
		if in.Latitude == nil || in.Longitude == nil {
			return validationf("Latitude and longitude must be set together")
		}
		lat, lon := *in.Latitude, *in.Longitude
		p.Latitude, p.Longitude = &lat, &lon
	}
	return nil
}

func validateProperty(p *models.Property) error {
	switch {
	case p.Name == "":
		return validationf("The name is required")
	case p.ExpectedPrice <= 0:
		return validationf("The expected price must be strictly positive")
	case p.SellingPrice < 0:
		return validationf("The selling price must be positive")
	case p.Bedrooms < 0, p.LivingArea < 0, p.Facades < 0, p.GardenArea < 0:
		return validationf("Bedrooms, areas and facades cannot be negative")
	case !p.GardenOrientation.Valid():
		return validationf("Invalid garden orientation %q", p.GardenOrientation)
	case len(p.CountryCode) != 0 && len(p.CountryCode) != 2:
		return validationf("The country code must have two letters")
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180) {
		return validationf("Coordinates are out of range")
	}
	return checkSellingPrice(p)
}

func (s *Service) newProperty() *models.Property {
	return &models.Property{
		State:            models.StateNew,
		Active:           true,
		Bedrooms:         models.DefaultBedrooms,
		DateAvailability: datatypes.Date(s.today().Add(models.DefaultAvailabilityDelay)),
	}
}

// createProperty builds, validates and inserts a property inside tx
func (s *Service) createProperty(tx *gorm.DB, in PropertyInput) (*models.Property, error) {
	if in.Name == nil {
		return nil, validationf("The name is required")
	}
	if in.ExpectedPrice == nil {
		return nil, validationf("The expected price is required")
	}

	p := s.newProperty()
	if err := in.apply(p); err != nil {
		return nil, err
	}
	applyGardenRule(p)
	recompute(p, 0)
	if err := validateProperty(p); err != nil {
		return nil, err
	}
	if err := checkPropertyType(tx, p.PropertyTypeID); err != nil {
		return nil, err
	}

	if err := database.CreateProperty(tx, p); err != nil {
		return nil, err
	}
	if in.TagIDs != nil {
		if err := database.ReplaceTags(tx, p, *in.TagIDs); err != nil {
			return nil, notFound(err, "Tag")
		}
	}
	return p, nil
}

func checkPropertyType(tx *gorm.DB, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := database.GetPropertyType(tx, *id); err != nil {
		return notFound(err, "Property type")
	}
	return nil
}

// CreateProperty validates the input and stores a new property in state new
func (s *Service) CreateProperty(ctx context.Context, in PropertyInput) (*models.Property, error) {
	var created *models.Property
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := s.createProperty(tx, in)
		if err != nil {
			return err
		}
		created, err = database.GetProperty(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": created.ID,
		"name":        created.Name,
	}).Info("Property created")
	s.publish(ctx, models.NewPropertyEvent(models.EventPropertyCreated, created))
	return created, nil
}

// ImportProperties creates every property of the batch in a single transaction
func (s *Service) ImportProperties(ctx context.Context, inputs []PropertyInput) (int, error) {
	var created []*models.Property
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		created = created[:0]
		for i := range inputs {
			p, err := s.createProperty(tx, inputs[i])
			if err != nil {
				var bizErr *Error
				if errors.As(err, &bizErr) {
					return validationf("Property %d: %s", i+1, bizErr.Message)
				}
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, p := range created {
		s.publish(ctx, models.NewPropertyEvent(models.EventPropertyCreated, p))
	}
	return len(created), nil
}

func (s *Service) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	p, err := database.GetProperty(s.db.GetDB().WithContext(ctx), id)
	if err != nil {
		return nil, notFound(err, "Property")
	}
	return p, nil
}

// UpdateProperty applies a partial update, recomputes derived fields and tracks changes
func (s *Service) UpdateProperty(ctx context.Context, id int64, in PropertyInput) (*models.Property, error) {
	var updated *models.Property
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := database.LockProperty(tx, id)
		if err != nil {
			return notFound(err, "Property")
		}
		before := takeSnapshot(p)

		if err := in.apply(p); err != nil {
			return err
		}
		if in.Garden != nil {
			applyGardenRule(p)
		}
		best, _, err := database.MaxOfferPrice(tx, p.ID)
		if err != nil {
			return err
		}
		recompute(p, best)
		if err := validateProperty(p); err != nil {
			return err
		}
		if in.PropertyTypeID != nil {
			if err := checkPropertyType(tx, p.PropertyTypeID); err != nil {
				return err
			}
		}

		if err := database.SaveProperty(tx, p); err != nil {
			return err
		}
		if in.TagIDs != nil {
			if err := database.ReplaceTags(tx, p, *in.TagIDs); err != nil {
				return notFound(err, "Tag")
			}
		}
		if err := database.CreateMessages(tx, before.changes(p, s.now())); err != nil {
			return err
		}

		updated, err = database.GetProperty(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive archives or restores a property
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*models.Property, error) {
	return s.UpdateProperty(ctx, id, PropertyInput{Active: &active})
}

// DeleteProperty removes a property unless it is sold or has an accepted offer
func (s *Service) DeleteProperty(ctx context.Context, id int64) error {
	var files []string
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := database.LockProperty(tx, id)
		if err != nil {
			return notFound(err, "Property")
		}
		if p.State == models.StateSold || p.State == models.StateOfferAccepted {
			return validationf("You cannot delete a property that is sold or has an accepted offer.")
		}

		images, err := database.ListImages(tx, id)
		if err != nil {
			return err
		}
		for _, img := range images {
			files = append(files, img.FilePath)
		}
		return database.DeleteProperty(tx, id)
	})
	if err != nil {
		return err
	}

	s.removeFiles(files...)
	s.logger.WithField("property_id", id).Info("Property deleted")
	return nil
}

// ListProperties returns one page of matching properties and the total count
func (s *Service) ListProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, int64, error) {
	return database.ListProperties(s.db.GetDB().WithContext(ctx), f)
}

// ListGeocodedProperties returns every matching property with coordinates, ignoring pagination
func (s *Service) ListGeocodedProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	return database.ListGeocodedProperties(s.db.GetDB().WithContext(ctx), f)
}

func (s *Service) ListPropertyMessages(ctx context.Context, id int64) ([]models.PropertyMessage, error) {
	if _, err := s.GetProperty(ctx, id); err != nil {
		return nil, err
	}
	return database.ListMessages(s.db.GetDB().WithContext(ctx), id)
}

func (s *Service) GetStats(ctx context.Context) (*models.PropertyStats, error) {
	return database.GetPropertyStats(s.db.GetDB().WithContext(ctx))
}

// SetCoordinates stores geocoding results for a property
func (s *Service) SetCoordinates(ctx context.Context, id int64, lat, lon float64) error {
	return notFound(database.UpdateCoordinates(s.db.GetDB().WithContext(ctx), id, lat, lon), "Property")
}

// PropertiesWithoutCoordinates lists properties awaiting geocoding
func (s *Service) PropertiesWithoutCoordinates(ctx context.Context, limit int) ([]models.Property, error) {
	return database.ListPropertiesWithoutCoordinates(s.db.GetDB().WithContext(ctx), limit)
}

// OfferPartners returns the distinct partners that made an offer on the property
func (s *Service) OfferPartners(ctx context.Context, id int64) ([]models.Partner, error) {
	if _, err := s.GetProperty(ctx, id); err != nil {
		return nil, err
	}
	return database.ListOfferPartners(s.db.GetDB().WithContext(ctx), id)
}

func (s *Service) removeFiles(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to remove image file")
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
