package estate

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

// OfferInput describes a new offer. Either Validity or DateDeadline may be given.
type OfferInput struct {
	PropertyID   int64   `json:"property_id"`
	PartnerID    int64   `json:"partner_id"`
	Price        float64 `json:"price"`
	Validity     *int    `json:"validity"`
	DateDeadline *string `json:"date_deadline"`
}

// DeadlineInput changes the deadline of an offer through its validity or its date
type DeadlineInput struct {
	Validity     *int    `json:"validity"`
	DateDeadline *string `json:"date_deadline"`
}

// applyDeadline sets validity and deadline of o, keeping deadline = create_date + validity
func applyDeadline(o *models.PropertyOffer, in DeadlineInput) error {
	switch {
	case in.Validity != nil && in.DateDeadline != nil:
		return validationf("Set either validity or date_deadline, not both")
	case in.Validity != nil:
		if *in.Validity < 0 {
			return validationf("The validity cannot be negative")
		}
		o.Validity = *in.Validity
	case in.DateDeadline != nil:
		deadline, err := parseDate("date_deadline", *in.DateDeadline)
		if err != nil {
			return err
		}
		validity := models.ValidityFor(o.CreateDate, time.Time(deadline))
		if validity < 0 {
			return validationf("The deadline cannot be before the offer date")
		}
		o.Validity = validity
	}
	o.DateDeadline = models.Deadline(o.CreateDate, o.Validity)
	return nil
}

// CreateOffer records a new offer, which must beat every existing offer on the property
func (s *Service) CreateOffer(ctx context.Context, in OfferInput) (*models.PropertyOffer, error) {
	if in.Price <= 0 {
		return nil, validationf("The offer price must be strictly positive")
	}
	if in.PartnerID == 0 {
		return nil, validationf("The partner is required")
	}

	var (
		offer    *models.PropertyOffer
		property *models.Property
	)
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := database.LockProperty(tx, in.PropertyID)
		if err != nil {
			return notFound(err, "Property")
		}
		if p.State.Closed() {
			return validationf("You cannot make an offer on a sold or canceled property.")
		}
		if _, err := database.GetPartner(tx, in.PartnerID); err != nil {
			return notFound(err, "Partner")
		}

		best, found, err := database.MaxOfferPrice(tx, p.ID)
		if err != nil {
			return err
		}
		if found && in.Price <= best {
			return validationf("The offer must be higher than %.2f", best)
		}

		o := &models.PropertyOffer{
			Price:      in.Price,
			Status:     models.OfferPending,
			PartnerID:  in.PartnerID,
			PropertyID: p.ID,
			Validity:   models.DefaultOfferValidity,
			CreateDate: s.now(),
		}
		if err := applyDeadline(o, DeadlineInput{Validity: in.Validity, DateDeadline: in.DateDeadline}); err != nil {
			return err
		}
		if err := database.CreateOffer(tx, o); err != nil {
			return err
		}

		before := takeSnapshot(p)
		if p.State == models.StateNew {
			p.State = models.StateOfferReceived
		}
		recompute(p, in.Price)
		if err := database.SaveProperty(tx, p); err != nil {
			return err
		}
		if err := database.CreateMessages(tx, before.changes(p, s.now())); err != nil {
			return err
		}

		offer, err = database.GetOffer(tx, o.ID)
		property = p
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"offer_id":    offer.ID,
		"price":       offer.Price,
	}).Info("Offer received")
	s.publish(ctx, models.NewPropertyEvent(models.EventOfferReceived, property).WithOffer(offer))
	return offer, nil
}

// AcceptOffer accepts a pending offer, stamps buyer and selling price on the property
// and refuses every other offer, all in one transaction
func (s *Service) AcceptOffer(ctx context.Context, offerID int64) (*models.PropertyOffer, error) {
	var (
		offer    *models.PropertyOffer
		property *models.Property
	)
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		o, err := database.GetOffer(tx, offerID)
		if err != nil {
			return notFound(err, "Offer")
		}
		p, err := database.LockProperty(tx, o.PropertyID)
		if err != nil {
			return notFound(err, "Property")
		}

		switch {
		case o.Status != models.OfferPending:
			return validationf("Only pending offers can be accepted.")
		case p.State.Closed():
			return validationf("You cannot accept an offer on a sold or canceled property.")
		}
		accepted, err := database.CountAcceptedOffers(tx, p.ID, o.ID)
		if err != nil {
			return err
		}
		if accepted > 0 {
			return conflict("An offer has already been accepted for this property.")
		}

		before := takeSnapshot(p)
		buyerID := o.PartnerID
		p.State = models.StateOfferAccepted
		p.SellingPrice = o.Price
		p.BuyerID = &buyerID
		if err := checkSellingPrice(p); err != nil {
			return err
		}

		o.Status = models.OfferAccepted
		if err := database.SaveOffer(tx, o); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return conflict("An offer has already been accepted for this property.")
			}
			return err
		}
		if _, err := database.RefuseOtherOffers(tx, p.ID, o.ID); err != nil {
			return err
		}
		if err := database.SaveProperty(tx, p); err != nil {
			return err
		}
		if err := database.CreateMessages(tx, before.changes(p, s.now())); err != nil {
			return err
		}

		offer, property = o, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"offer_id":    offer.ID,
		"buyer_id":    offer.PartnerID,
	}).Info("Offer accepted")
	s.publish(ctx, models.NewPropertyEvent(models.EventOfferAccepted, property).WithOffer(offer))
	return offer, nil
}

// RefuseOffer refuses a pending offer
func (s *Service) RefuseOffer(ctx context.Context, offerID int64) (*models.PropertyOffer, error) {
	var (
		offer    *models.PropertyOffer
		property *models.Property
	)
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		o, err := database.GetOffer(tx, offerID)
		if err != nil {
			return notFound(err, "Offer")
		}
		p, err := database.LockProperty(tx, o.PropertyID)
		if err != nil {
			return notFound(err, "Property")
		}
		switch o.Status {
		case models.OfferAccepted:
			return validationf("Accepted offers cannot be refused.")
		case models.OfferRefused:
			return validationf("The offer is already refused.")
		}

		o.Status = models.OfferRefused
		if err := database.SaveOffer(tx, o); err != nil {
			return err
		}
		offer, property = o, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.NewPropertyEvent(models.EventOfferRefused, property).WithOffer(offer))
	return offer, nil
}

// UpdateOfferDeadline changes validity or deadline, recomputing the other one
func (s *Service) UpdateOfferDeadline(ctx context.Context, offerID int64, in DeadlineInput) (*models.PropertyOffer, error) {
	if in.Validity == nil && in.DateDeadline == nil {
		return nil, validationf("Set validity or date_deadline")
	}

	var offer *models.PropertyOffer
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		o, err := database.GetOffer(tx, offerID)
		if err != nil {
			return notFound(err, "Offer")
		}
		if err := applyDeadline(o, in); err != nil {
			return err
		}
		if err := database.SaveOffer(tx, o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *Service) GetOffer(ctx context.Context, offerID int64) (*models.PropertyOffer, error) {
	o, err := database.GetOffer(s.db.GetDB().WithContext(ctx), offerID)
	if err != nil {
		return nil, notFound(err, "Offer")
	}
	return o, nil
}

// ListOffers returns the offers of a property, best price first
func (s *Service) ListOffers(ctx context.Context, propertyID int64) ([]models.PropertyOffer, error) {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return database.ListOffers(s.db.GetDB().WithContext(ctx), propertyID)
}

// ExpireOffers refuses every pending offer whose deadline is before today.
// Each property is handled in its own transaction.
func (s *Service) ExpireOffers(ctx context.Context) (int, error) {
	today := s.today()
	expired, err := database.ListExpiredOffers(s.db.GetDB().WithContext(ctx), today)
	if err != nil {
		return 0, err
	}

	byProperty := make(map[int64][]int64)
	var order []int64
	for _, o := range expired {
		if _, ok := byProperty[o.PropertyID]; !ok {
			order = append(order, o.PropertyID)
		}
		byProperty[o.PropertyID] = append(byProperty[o.PropertyID], o.ID)
	}

	total := 0
	for _, propertyID := range order {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		events, err := s.expirePropertyOffers(ctx, propertyID, byProperty[propertyID], today)
		if err != nil {
			s.logger.WithError(err).WithField("property_id", propertyID).Error("Failed to expire offers")
			continue
		}
		total += len(events)
		s.publish(ctx, events...)
	}

	if total > 0 {
		s.logger.WithField("count", total).Info("Expired offers refused")
	}
	return total, nil
}

func (s *Service) expirePropertyOffers(ctx context.Context, propertyID int64, offerIDs []int64, today time.Time) ([]models.PropertyEvent, error) {
	var events []models.PropertyEvent
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		events = events[:0]
		p, err := database.LockProperty(tx, propertyID)
		if err != nil {
			return err
		}
		for _, id := range offerIDs {
			o, err := database.GetOffer(tx, id)
			if err != nil {
				return err
			}
			// Re-check under the lock, the offer may have been accepted meanwhile
			if o.Status != models.OfferPending || !time.Time(o.DateDeadline).Before(today) {
				continue
			}
			o.Status = models.OfferRefused
			if err := database.SaveOffer(tx, o); err != nil {
				return err
			}
			events = append(events, models.NewPropertyEvent(models.EventOfferExpired, p).WithOffer(o))
		}
		return nil
	})
	return events, err
}
