package models

import (
	"strings"
	"time"
)

// TelegramConfig stores the bot credentials and basic settings
type TelegramConfig struct {
	ID        int64            `gorm:"primaryKey" json:"id"`
	IsEnabled bool             `json:"is_enabled"`
	BotToken  string           `gorm:"size:255" json:"bot_token"`
	ChatID    string           `gorm:"size:64" json:"chat_id"`
	Filters   *TelegramFilters `gorm:"serializer:json;type:text" json:"filters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (TelegramConfig) TableName() string {
	return "telegram_configs"
}

// TelegramConfigRequest is used when updating the configuration
type TelegramConfigRequest struct {
	IsEnabled bool             `json:"is_enabled"`
	BotToken  string           `json:"bot_token"`
	ChatID    string           `json:"chat_id"`
	Filters   *TelegramFilters `json:"filters"`
}

// TelegramFilters stores the notification filter settings
type TelegramFilters struct {
	EventTypes []EventType `json:"event_types"`
	Cities     []string    `json:"cities"`
	MinPrice   *float64    `json:"min_price"`
	MaxPrice   *float64    `json:"max_price"`
}

// IsEventAllowed checks if an event matches the filter criteria
func (f *TelegramFilters) IsEventAllowed(event *PropertyEvent) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if len(f.EventTypes) > 0 {
		allowed := false
		for _, t := range f.EventTypes {
			if t == event.Type {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	// Offer events are filtered on the offer price, others on the asking price
	price := event.ExpectedPrice
	if event.OfferID != 0 {
		price = event.Price
	}
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}

	if len(f.Cities) > 0 {
		allowed := false
		for _, city := range f.Cities {
			if strings.EqualFold(city, event.City) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
