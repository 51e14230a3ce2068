package repository

import (
	"context"

	"example.com/backstage/services/inventory/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateDelivery inserts the header only, items are written by CreateDeliveryItems
func (r *repo) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit(clause.Associations).Create(d).Error)
}

func (r *repo) CreateDeliveryItems(ctx context.Context, items []models.DeliveryItem) error {
	if len(items) == 0 {
		return nil
	}
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit(clause.Associations).Create(&items).Error)
}

func (r *repo) UpdateDelivery(ctx context.Context, d *models.Delivery) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}

	res := gormDB.Model(&models.Delivery{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"delivery_date":  d.DeliveryDate,
		"supermarket_id": d.SupermarketID,
		"subchain_id":    d.SubchainID,
		"status":         d.Status,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteDeliveryItems(ctx context.Context, deliveryID uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Where("delivery_id = ?", deliveryID).Delete(&models.DeliveryItem{}).Error)
}

func (r *repo) FindDeliveryByID(ctx context.Context, id uint) (*models.Delivery, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var d models.Delivery
	err = gormDB.
		Preload("Supermarket").
		Preload("Subchain").
		Preload("Items", orderByID).
		Preload("Items.Product").
		First(&d, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

func (r *repo) ListDeliveries(ctx context.Context, filter ListFilter) ([]*models.Delivery, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Delivery
	q := gormDB.
		Preload("Supermarket").
		Preload("Subchain").
		Preload("Items", orderByID).
		Preload("Items.Product").
		Order("delivery_date DESC").
		Order("id DESC")
	if err := applyDateRange(q, "delivery_date", filter).Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

// DeleteDelivery removes the delivery and its items
func (r *repo) DeleteDelivery(ctx context.Context, id uint) error {
	if err := r.DeleteDeliveryItems(ctx, id); err != nil {
		return err
	}
	return r.deleteByID(ctx, &models.Delivery{}, id)
}

// FirstDeliveryReferencing returns the oldest delivery pointing at the
// supermarket or subchain (pass 0 to ignore one of them)
func (r *repo) FirstDeliveryReferencing(ctx context.Context, supermarketID, subchainID uint) (*models.Delivery, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	q := gormDB.Model(&models.Delivery{})
	if supermarketID > 0 {
		q = q.Where("supermarket_id = ?", supermarketID)
	}
	if subchainID > 0 {
		q = q.Where("subchain_id = ?", subchainID)
	}

	var d models.Delivery
	if err := q.Order("delivery_date").Order("id").First(&d).Error; err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

func (r *repo) DeleteDeliveriesBySupermarket(ctx context.Context, supermarketID uint) (int64, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	ids := gormDB.Model(&models.Delivery{}).Select("id").Where("supermarket_id = ?", supermarketID)
	if err := gormDB.Where("delivery_id IN (?)", ids).Delete(&models.DeliveryItem{}).Error; err != nil {
		return 0, translateError(err)
	}
	res := gormDB.Where("supermarket_id = ?", supermarketID).Delete(&models.Delivery{})
	return res.RowsAffected, translateError(res.Error)
}

func (r *repo) DetachDeliveriesFromSubchain(ctx context.Context, subchainID uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Model(&models.Delivery{}).
		Where("subchain_id = ?", subchainID).
		Update("subchain_id", nil).Error)
}

func (r *repo) SummarizeDeliveries(ctx context.Context, filter ListFilter) ([]SupermarketTotal, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(gormDB, "deliveries", "delivery_items", "delivery_id", "delivery_date", filter)
}

func summarize(gormDB *gorm.DB, header, items, fk, dateColumn string, filter ListFilter) ([]SupermarketTotal, error) {
	q := gormDB.Table(header + " h").
		Select("s.id AS supermarket_id, s.name AS supermarket_name, " +
			"COUNT(DISTINCT h.id) AS count, " +
			"COALESCE(SUM(i.quantity), 0) AS quantity, " +
			"CAST(COALESCE(SUM(i.quantity * i.price), 0) AS TEXT) AS amount").
		Joins("JOIN supermarkets s ON s.id = h.supermarket_id").
		Joins("LEFT JOIN " + items + " i ON i." + fk + " = h.id").
		Group("s.id, s.name").
		Order("s.name")
	if filter.From != nil {
		q = q.Where("h."+dateColumn+" >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("h."+dateColumn+" <= ?", *filter.To)
	}
	if filter.SupermarketID > 0 {
		q = q.Where("h.supermarket_id = ?", filter.SupermarketID)
	}

	var rows []SupermarketTotal
	if err := q.Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
