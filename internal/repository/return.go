package repository

import (
	"context"

	"example.com/backstage/services/inventory/internal/models"

	"gorm.io/gorm/clause"
)

// CreateReturn inserts the header only, items are written by CreateReturnItems
func (r *repo) CreateReturn(ctx context.Context, ret *models.Return) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit(clause.Associations).Create(ret).Error)
}

func (r *repo) CreateReturnItems(ctx context.Context, items []models.ReturnItem) error {
	if len(items) == 0 {
		return nil
	}
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit(clause.Associations).Create(&items).Error)
}

func (r *repo) UpdateReturn(ctx context.Context, ret *models.Return) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}

	res := gormDB.Model(&models.Return{}).Where("id = ?", ret.ID).Updates(map[string]interface{}{
		"delivery_date":  ret.DeliveryDate,
		"return_date":    ret.ReturnDate,
		"supermarket_id": ret.SupermarketID,
		"subchain_id":    ret.SubchainID,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteReturnItems(ctx context.Context, returnID uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Where("return_id = ?", returnID).Delete(&models.ReturnItem{}).Error)
}

func (r *repo) FindReturnByID(ctx context.Context, id uint) (*models.Return, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var ret models.Return
	err = gormDB.
		Preload("Supermarket").
		Preload("Subchain").
		Preload("Items", orderByID).
		Preload("Items.Product").
		First(&ret, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &ret, nil
}

func (r *repo) ListReturns(ctx context.Context, filter ListFilter) ([]*models.Return, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Return
	q := gormDB.
		Preload("Supermarket").
		Preload("Subchain").
		Preload("Items", orderByID).
		Preload("Items.Product").
		Order("return_date DESC").
		Order("id DESC")
	if err := applyDateRange(q, "return_date", filter).Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

// DeleteReturn removes the return and its items
func (r *repo) DeleteReturn(ctx context.Context, id uint) error {
	if err := r.DeleteReturnItems(ctx, id); err != nil {
		return err
	}
	return r.deleteByID(ctx, &models.Return{}, id)
}

// FirstReturnReferencing returns the oldest return pointing at the
// supermarket or subchain (pass 0 to ignore one of them)
func (r *repo) FirstReturnReferencing(ctx context.Context, supermarketID, subchainID uint) (*models.Return, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	q := gormDB.Model(&models.Return{})
	if supermarketID > 0 {
		q = q.Where("supermarket_id = ?", supermarketID)
	}
	if subchainID > 0 {
		q = q.Where("subchain_id = ?", subchainID)
	}

	var ret models.Return
	if err := q.Order("return_date").Order("id").First(&ret).Error; err != nil {
		return nil, translateError(err)
	}
	return &ret, nil
}

func (r *repo) DeleteReturnsBySupermarket(ctx context.Context, supermarketID uint) (int64, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	ids := gormDB.Model(&models.Return{}).Select("id").Where("supermarket_id = ?", supermarketID)
	if err := gormDB.Where("return_id IN (?)", ids).Delete(&models.ReturnItem{}).Error; err != nil {
		return 0, translateError(err)
	}
	res := gormDB.Where("supermarket_id = ?", supermarketID).Delete(&models.Return{})
	return res.RowsAffected, translateError(res.Error)
}

func (r *repo) DetachReturnsFromSubchain(ctx context.Context, subchainID uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Model(&models.Return{}).
		Where("subchain_id = ?", subchainID).
		Update("subchain_id", nil).Error)
}

func (r *repo) SummarizeReturns(ctx context.Context, filter ListFilter) ([]SupermarketTotal, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(gormDB, "returns", "return_items", "return_id", "return_date", filter)
}
