package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"estate/server/internal/models"
)

func GetOffer(tx *gorm.DB, id int64) (*models.PropertyOffer, error) {
	var o models.PropertyOffer
	if err := tx.Preload("Partner").First(&o, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("get offer %d", id))
	}
	return &o, nil
}

// ListOffers returns the offers of a property, best price first
func ListOffers(tx *gorm.DB, propertyID int64) ([]models.PropertyOffer, error) {
	var offers []models.PropertyOffer
	err := tx.Preload("Partner").
		Where("property_id = ?", propertyID).
		Order("price DESC, id").
		Find(&offers).Error
	if err != nil {
		return nil, translate(err, "list offers")
	}
	return offers, nil
}

// MaxOfferPrice returns the best offer price of a property and whether it has any offer
func MaxOfferPrice(tx *gorm.DB, propertyID int64) (float64, bool, error) {
	var agg struct {
		Best  float64
		Count int64
	}
	err := tx.Model(&models.PropertyOffer{}).
		Select("COALESCE(MAX(price), 0) AS best, COUNT(*) AS count").
		Where("property_id = ?", propertyID).
		Scan(&agg).Error
	if err != nil {
		return 0, false, translate(err, "compute best offer")
	}
	return agg.Best, agg.Count > 0, nil
}

func CreateOffer(tx *gorm.DB, o *models.PropertyOffer) error {
	if err := tx.Omit("Partner").Create(o).Error; err != nil {
		return translate(err, "create offer")
	}
	return nil
}

func SaveOffer(tx *gorm.DB, o *models.PropertyOffer) error {
	if err := tx.Omit("Partner").Save(o).Error; err != nil {
		return translate(err, fmt.Sprintf("save offer %d", o.ID))
	}
	return nil
}

// RefuseOtherOffers sets every offer of the property except keepID to refused
func RefuseOtherOffers(tx *gorm.DB, propertyID, keepID int64) (int64, error) {
	result := tx.Model(&models.PropertyOffer{}).
		Where("property_id = ? AND id <> ?", propertyID, keepID).
		Updates(map[string]interface{}{"status": models.OfferRefused, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, translate(result.Error, "refuse sibling offers")
	}
	return result.RowsAffected, nil
}

// CountAcceptedOffers counts accepted offers of a property other than exceptID
func CountAcceptedOffers(tx *gorm.DB, propertyID, exceptID int64) (int64, error) {
	var count int64
	err := tx.Model(&models.PropertyOffer{}).
		Where("property_id = ? AND status = ? AND id <> ?", propertyID, models.OfferAccepted, exceptID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count accepted offers")
	}
	return count, nil
}

// ListExpiredOffers returns pending offers whose deadline is strictly before day
func ListExpiredOffers(tx *gorm.DB, day time.Time) ([]models.PropertyOffer, error) {
	var offers []models.PropertyOffer
	err := tx.Preload("Partner").
		Where("status = ? AND date_deadline < ?", models.OfferPending, day.Format("2006-01-02")).
		Order("property_id, id").
		Find(&offers).Error
	if err != nil {
		return nil, translate(err, "list expired offers")
	}
	return offers, nil
}

// ListOfferPartners returns the distinct partners that made an offer on the property
func ListOfferPartners(tx *gorm.DB, propertyID int64) ([]models.Partner, error) {
	var partners []models.Partner
	err := tx.Where("id IN (?)", tx.Model(&models.PropertyOffer{}).Select("partner_id").Where("property_id = ?", propertyID)).
		Order("name").
		Find(&partners).Error
	if err != nil {
		return nil, translate(err, "list offer partners")
	}
	return partners, nil
}
