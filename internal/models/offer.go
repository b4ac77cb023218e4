package models

import (
	"time"

	"gorm.io/datatypes"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRefused  OfferStatus = "refused"
)

// DefaultOfferValidity is the number of days an offer stays open
const DefaultOfferValidity = 7

type PropertyOffer struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Price        float64        `gorm:"not null" json:"price"`
	Status       OfferStatus    `gorm:"size:16;not null;default:pending;index" json:"status"`
	PartnerID    int64          `gorm:"not null;index" json:"partner_id"`
	PropertyID   int64          `gorm:"not null;index" json:"property_id"`
	Validity     int            `gorm:"not null" json:"validity"`
	DateDeadline datatypes.Date `gorm:"index" json:"date_deadline"`
	CreateDate   time.Time      `gorm:"not null" json:"create_date"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Partner *Partner `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

func (PropertyOffer) TableName() string {
	return "property_offers"
}

// Deadline computes the last valid day of an offer from its creation time and validity
func Deadline(created time.Time, validity int) datatypes.Date {
	day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
	return datatypes.Date(day.AddDate(0, 0, validity))
}

// ValidityFor is the inverse of Deadline: the number of days between creation and deadline
func ValidityFor(created time.Time, deadline time.Time) int {
	start := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// MaxOfferPrice returns the highest price among offers, 0 when there are none
func MaxOfferPrice(offers []PropertyOffer) float64 {
	best := 0.0
	for i, o := range offers {
		if i == 0 || o.Price > best {
			best = o.Price
		}
	}
	return best
}
