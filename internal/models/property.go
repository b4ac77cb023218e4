package models

import (
	"time"

	"gorm.io/datatypes"
)

// PropertyState is the sale lifecycle state of a property
type PropertyState string

const (
	StateNew           PropertyState = "new"
	StateOfferReceived PropertyState = "offer_received"
	StateOfferAccepted PropertyState = "offer_accepted"
	StateSold          PropertyState = "sold"
	StateCanceled      PropertyState = "canceled"
	StateRented        PropertyState = "rented"
)

// Valid reports whether s is one of the known states
func (s PropertyState) Valid() bool {
	switch s {
	case StateNew, StateOfferReceived, StateOfferAccepted, StateSold, StateCanceled, StateRented:
		return true
	}
	return false
}

// Closed reports whether the property no longer accepts offers
func (s PropertyState) Closed() bool {
	return s == StateSold || s == StateCanceled
}

type GardenOrientation string

const (
	OrientationNone  GardenOrientation = ""
	OrientationNorth GardenOrientation = "north"
	OrientationSouth GardenOrientation = "south"
	OrientationEast  GardenOrientation = "east"
	OrientationWest  GardenOrientation = "west"
)

func (o GardenOrientation) Valid() bool {
	switch o {
	case OrientationNone, OrientationNorth, OrientationSouth, OrientationEast, OrientationWest:
		return true
	}
	return false
}

const (
	// DefaultAvailabilityDelay is added to the creation day when no availability date is given
	DefaultAvailabilityDelay = 90 * 24 * time.Hour
	DefaultBedrooms          = 2
	DefaultGardenArea        = 10
)

type Property struct {
	ID                int64             `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"size:255;not null" json:"name"`
	Description       string            `gorm:"type:text" json:"description"`
	Postcode          string            `gorm:"size:32" json:"postcode"`
	DateAvailability  datatypes.Date    `json:"date_availability"`
	ExpectedPrice     float64           `gorm:"not null" json:"expected_price"`
	SellingPrice      float64           `json:"selling_price"`
	Bedrooms          int               `json:"bedrooms"`
	LivingArea        int               `json:"living_area"`
	Facades           int               `json:"facades"`
	Garage            bool              `json:"garage"`
	Garden            bool              `json:"garden"`
	GardenArea        int               `json:"garden_area"`
	GardenOrientation GardenOrientation `gorm:"size:16" json:"garden_orientation"`
	State             PropertyState     `gorm:"size:32;not null;default:new;index" json:"state"`
	Active            bool              `gorm:"not null;default:true;index" json:"active"`
	PropertyTypeID    *int64            `gorm:"index" json:"property_type_id"`
	Salesperson       string            `gorm:"size:255" json:"salesperson"`
	BuyerID           *int64            `gorm:"index" json:"buyer_id"`
	MainImageID       *int64            `json:"main_image_id"`
	Address           string            `gorm:"size:255" json:"address"`
	City              string            `gorm:"size:128;index" json:"city"`
	CountryCode       string            `gorm:"size:2" json:"country_code"`
	Latitude          *float64          `json:"latitude"`
	Longitude         *float64          `json:"longitude"`
	Amenities         string            `gorm:"type:text" json:"amenities"`
	Furnished         bool              `json:"furnished"`

	// Stored derived values, recomputed on every write
	TotalArea int     `json:"total_area"`
	BestOffer float64 `json:"best_offer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PropertyType *PropertyType   `gorm:"foreignKey:PropertyTypeID;constraint:OnDelete:SET NULL" json:"property_type,omitempty"`
	Buyer        *Partner        `gorm:"foreignKey:BuyerID;constraint:OnDelete:SET NULL" json:"buyer,omitempty"`
	Tags         []PropertyTag   `gorm:"many2many:property_tag_rel;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Offers       []PropertyOffer `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"offers,omitempty"`
	Images       []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

func (Property) TableName() string {
	return "properties"
}

// HasCoordinates reports whether the property has been geocoded
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// PropertyFilter holds the search criteria of the property listing
type PropertyFilter struct {
	State           PropertyState
	PropertyTypeID  int64
	TagID           int64
	City            string
	MinPrice        float64
	MaxPrice        float64
	MinBedrooms     int
	MinLivingArea   int
	AvailableFrom   *time.Time
	Query           string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type PropertyStats struct {
	Total         int64                   `json:"total"`
	ByState       map[PropertyState]int64 `json:"by_state"`
	AveragePrice  float64                 `json:"average_expected_price"`
	TotalSold     int64                   `json:"total_sold"`
	SoldVolume    float64                 `json:"sold_volume"`
	AverageOffers float64                 `json:"average_offers_per_property"`
}
