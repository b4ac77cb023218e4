package database

import (
	"fmt"

	"gorm.io/gorm"

	"estate/server/internal/models"
)

func CreatePartner(tx *gorm.DB, p *models.Partner) error {
	return translate(tx.Create(p).Error, "create partner")
}

func GetPartner(tx *gorm.DB, id int64) (*models.Partner, error) {
	var p models.Partner
	if err := tx.First(&p, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("get partner %d", id))
	}
	return &p, nil
}

func ListPartners(tx *gorm.DB) ([]models.Partner, error) {
	var partners []models.Partner
	if err := tx.Order("name, id").Find(&partners).Error; err != nil {
		return nil, translate(err, "list partners")
	}
	return partners, nil
}
