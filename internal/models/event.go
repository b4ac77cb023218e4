package models

import "time"

type EventType string

const (
	EventPropertyCreated  EventType = "property_created"
	EventOfferReceived    EventType = "offer_received"
	EventOfferAccepted    EventType = "offer_accepted"
	EventOfferRefused     EventType = "offer_refused"
	EventOfferExpired     EventType = "offer_expired"
	EventPropertySold     EventType = "property_sold"
	EventPropertyCanceled EventType = "property_canceled"
	EventPropertyRented   EventType = "property_rented"
)

// PropertyEvent is published after a committed change to a property or one of its offers
type PropertyEvent struct {
	Type          EventType     `json:"type"`
	PropertyID    int64         `json:"property_id"`
	PropertyName  string        `json:"property_name"`
	State         PropertyState `json:"state"`
	City          string        `json:"city,omitempty"`
	ExpectedPrice float64       `json:"expected_price"`
	OfferID       int64         `json:"offer_id,omitempty"`
	Price         float64       `json:"price,omitempty"`
	PartnerID     int64         `json:"partner_id,omitempty"`
	PartnerName   string        `json:"partner_name,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// NewPropertyEvent fills the property part of an event
func NewPropertyEvent(t EventType, p *Property) PropertyEvent {
	return PropertyEvent{
		Type:          t,
		PropertyID:    p.ID,
		PropertyName:  p.Name,
		State:         p.State,
		City:          p.City,
		ExpectedPrice: p.ExpectedPrice,
		OccurredAt:    time.Now().UTC(),
	}
}

// WithOffer attaches offer details to the event
func (e PropertyEvent) WithOffer(o *PropertyOffer) PropertyEvent {
	e.OfferID = o.ID
	e.Price = o.Price
	e.PartnerID = o.PartnerID
	if o.Partner != nil {
		e.PartnerName = o.Partner.Name
	}
	return e
}
