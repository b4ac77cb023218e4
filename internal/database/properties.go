package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate/server/internal/models"
)

// GetProperty loads a property with its relations
func GetProperty(tx *gorm.DB, id int64) (*models.Property, error) {
	var p models.Property
	err := tx.
		Preload("PropertyType").
		Preload("Buyer").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("price DESC") }).
		Preload("Offers.Partner").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sequence, id") }).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("get property %d", id))
	}
	return &p, nil
}

// LockProperty loads a bare property row for update. SQLite ignores the row lock
// and serialises writers instead.
func LockProperty(tx *gorm.DB, id int64) (*models.Property, error) {
	var p models.Property
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("lock property %d", id))
	}
	return &p, nil
}

func CreateProperty(tx *gorm.DB, p *models.Property) error {
	// Tags are linked by id only, never upserted from the property payload
	if err := tx.Omit("Tags.*", "Offers", "Images", "PropertyType", "Buyer").Create(p).Error; err != nil {
		return translate(err, "create property")
	}
	return nil
}

// SaveProperty writes every column of the property row, leaving associations untouched
func SaveProperty(tx *gorm.DB, p *models.Property) error {
	if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
		return translate(err, fmt.Sprintf("save property %d", p.ID))
	}
	return nil
}

// ReplaceTags sets the tag links of a property
func ReplaceTags(tx *gorm.DB, p *models.Property, tagIDs []int64) error {
	tags := make([]models.PropertyTag, 0, len(tagIDs))
	if len(tagIDs) > 0 {
		if err := tx.Where("id IN ?", tagIDs).Order("name").Find(&tags).Error; err != nil {
			return translate(err, "load tags")
		}
		if len(tags) != len(uniqueIDs(tagIDs)) {
			return fmt.Errorf("unknown tag in %v: %w", tagIDs, ErrNotFound)
		}
	}

	if err := tx.Model(p).Association("Tags").Replace(tags); err != nil {
		return translate(err, "replace tags")
	}
	p.Tags = tags
	return nil
}

// DeleteProperty removes a property with its offers, images, tag links and messages
func DeleteProperty(tx *gorm.DB, id int64) error {
	steps := []struct {
		what  string
		model interface{}
		where string
	}{
		{"delete offers", &models.PropertyOffer{}, "property_id = ?"},
		{"delete images", &models.PropertyImage{}, "property_id = ?"},
		{"delete messages", &models.PropertyMessage{}, "property_id = ?"},
	}
	for _, s := range steps {
		if err := tx.Where(s.where, id).Delete(s.model).Error; err != nil {
			return translate(err, s.what)
		}
	}

	if err := tx.Exec("DELETE FROM property_tag_rel WHERE property_id = ?", id).Error; err != nil {
		return translate(err, "delete tag links")
	}

	result := tx.Delete(&models.Property{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete property")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete property %d: %w", id, ErrNotFound)
	}
	return nil
}

func applyPropertyFilter(q *gorm.DB, f models.PropertyFilter) *gorm.DB {
	if !f.IncludeInactive {
		q = q.Where("properties.active = ?", true)
	}
	if f.State != "" {
		q = q.Where("properties.state = ?", f.State)
	}
	if f.PropertyTypeID != 0 {
		q = q.Where("properties.property_type_id = ?", f.PropertyTypeID)
	}
	if f.TagID != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM property_tag_rel r WHERE r.property_id = properties.id AND r.property_tag_id = ?)", f.TagID)
	}
	if f.City != "" {
		q = q.Where("LOWER(properties.city) = LOWER(?)", f.City)
	}
	if f.MinPrice > 0 {
		q = q.Where("properties.expected_price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("properties.expected_price <= ?", f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		q = q.Where("properties.bedrooms >= ?", f.MinBedrooms)
	}
	if f.MinLivingArea > 0 {
		q = q.Where("properties.living_area >= ?", f.MinLivingArea)
	}
	if f.AvailableFrom != nil {
		q = q.Where("properties.date_availability >= ?", f.AvailableFrom.Format("2006-01-02"))
	}
	if f.Query != "" {
		q = q.Where("LOWER(properties.name) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	return q
}

// ListProperties returns one page of properties matching the filter and the total match count
func ListProperties(tx *gorm.DB, f models.PropertyFilter) ([]models.Property, int64, error) {
	var total int64
	if err := applyPropertyFilter(tx.Model(&models.Property{}), f).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count properties")
	}

	q := applyPropertyFilter(tx.Model(&models.Property{}), f).
		Preload("PropertyType").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("properties.id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var properties []models.Property
	if err := q.Find(&properties).Error; err != nil {
		return nil, 0, translate(err, "list properties")
	}
	return properties, total, nil
}

// ListGeocodedProperties returns the active properties that have coordinates
func ListGeocodedProperties(tx *gorm.DB, f models.PropertyFilter) ([]models.Property, error) {
	f.Limit = 0
	var properties []models.Property
	err := applyPropertyFilter(tx.Model(&models.Property{}), f).
		Where("properties.latitude IS NOT NULL AND properties.longitude IS NOT NULL").
		Order("properties.id DESC").
		Find(&properties).Error
	if err != nil {
		return nil, translate(err, "list geocoded properties")
	}
	return properties, nil
}

// ListPropertiesWithoutCoordinates returns properties with an address but no coordinates
func ListPropertiesWithoutCoordinates(tx *gorm.DB, limit int) ([]models.Property, error) {
	var properties []models.Property
	q := tx.Where("(latitude IS NULL OR longitude IS NULL) AND city <> ''").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&properties).Error; err != nil {
		return nil, translate(err, "list properties without coordinates")
	}
	return properties, nil
}

// UpdateCoordinates stores geocoding results without touching other columns
func UpdateCoordinates(tx *gorm.DB, id int64, lat, lon float64) error {
	result := tx.Model(&models.Property{}).Where("id = ?", id).
		Updates(map[string]interface{}{"latitude": lat, "longitude": lon})
	if result.Error != nil {
		return translate(result.Error, "update coordinates")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update coordinates of property %d: %w", id, ErrNotFound)
	}
	return nil
}

func GetPropertyStats(tx *gorm.DB) (*models.PropertyStats, error) {
	stats := &models.PropertyStats{ByState: make(map[models.PropertyState]int64)}

	var rows []struct {
		State models.PropertyState
		Count int64
	}
	err := tx.Model(&models.Property{}).
		Select("state, COUNT(*) AS count").
		Where("active = ?", true).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "count properties by state")
	}
	for _, r := range rows {
		stats.ByState[r.State] = r.Count
		stats.Total += r.Count
	}
	stats.TotalSold = stats.ByState[models.StateSold]

	var agg struct {
		AvgPrice   float64
		SoldVolume float64
	}
	err = tx.Model(&models.Property{}).
		Select("COALESCE(AVG(expected_price), 0) AS avg_price, "+
			"COALESCE(SUM(CASE WHEN state = ? THEN selling_price ELSE 0 END), 0) AS sold_volume", models.StateSold).
		Where("active = ?", true).
		Scan(&agg).Error
	if err != nil {
		return nil, translate(err, "aggregate property prices")
	}
	stats.AveragePrice = agg.AvgPrice
	stats.SoldVolume = agg.SoldVolume

	if stats.Total > 0 {
		var offers int64
		err = tx.Model(&models.PropertyOffer{}).
			Joins("JOIN properties ON properties.id = property_offers.property_id").
			Where("properties.active = ?", true).
			Count(&offers).Error
		if err != nil {
			return nil, translate(err, "count offers")
		}
		stats.AverageOffers = float64(offers) / float64(stats.Total)
	}

	return stats, nil
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
