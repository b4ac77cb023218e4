package estate

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

// SellProperty marks a property as sold. It needs a buyer and must not be canceled.
func (s *Service) SellProperty(ctx context.Context, id int64) (*models.Property, error) {
	return s.transition(ctx, id, models.StateSold, models.EventPropertySold, func(p *models.Property) error {
		if p.State == models.StateCanceled {
			return validationf("Canceled properties cannot be sold.")
		}
		if p.BuyerID == nil {
			return validationf("You cannot sell a property without a buyer.")
		}
		return nil
	})
}

// CancelProperty marks a property as canceled unless it was sold
func (s *Service) CancelProperty(ctx context.Context, id int64) (*models.Property, error) {
	return s.transition(ctx, id, models.StateCanceled, models.EventPropertyCanceled, func(p *models.Property) error {
		if p.State == models.StateSold {
			return validationf("Sold properties cannot be canceled.")
		}
		return nil
	})
}

// MarkPropertyRented marks a property as rented unless it was sold or canceled
func (s *Service) MarkPropertyRented(ctx context.Context, id int64) (*models.Property, error) {
	return s.transition(ctx, id, models.StateRented, models.EventPropertyRented, func(p *models.Property) error {
		if p.State.Closed() {
			return validationf("Properties that are sold or canceled cannot be rented.")
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id int64, target models.PropertyState, eventType models.EventType, guard func(p *models.Property) error) (*models.Property, error) {
	var property *models.Property
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := database.LockProperty(tx, id)
		if err != nil {
			return notFound(err, "Property")
		}
		if err := guard(p); err != nil {
			return err
		}

		before := takeSnapshot(p)
		p.State = target
		if err := database.SaveProperty(tx, p); err != nil {
			return err
		}
		if err := database.CreateMessages(tx, before.changes(p, s.now())); err != nil {
			return err
		}

		property, err = database.GetProperty(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": id,
		"state":       target,
	}).Info("Property state changed")
	s.publish(ctx, models.NewPropertyEvent(eventType, property))
	return property, nil
}
