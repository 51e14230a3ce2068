package repository

import (
	"context"

	"example.com/backstage/services/inventory/internal/models"

	"gorm.io/gorm"
)

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name")
}

// Supermarket operations implementation

func (r *repo) CreateSupermarket(ctx context.Context, s *models.Supermarket) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit("Subchains").Create(s).Error)
}

func (r *repo) UpdateSupermarket(ctx context.Context, s *models.Supermarket) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit("Subchains").Save(s).Error)
}

func (r *repo) FindSupermarketByID(ctx context.Context, id uint) (*models.Supermarket, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var s models.Supermarket
	if err := gormDB.Preload("Subchains", orderByName).First(&s, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (r *repo) ListSupermarkets(ctx context.Context) ([]*models.Supermarket, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Supermarket
	if err := gormDB.Order("name").Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (r *repo) DeleteSupermarket(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Supermarket{}, id)
}

// Subchain operations implementation

func (r *repo) CreateSubchain(ctx context.Context, s *models.Subchain) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit("Supermarket").Create(s).Error)
}

func (r *repo) UpdateSubchain(ctx context.Context, s *models.Subchain) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Omit("Supermarket").Save(s).Error)
}

func (r *repo) FindSubchainByID(ctx context.Context, id uint) (*models.Subchain, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var s models.Subchain
	if err := gormDB.First(&s, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (r *repo) ListSubchains(ctx context.Context, supermarketID uint) ([]*models.Subchain, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Subchain
	if err := gormDB.Where("supermarket_id = ?", supermarketID).Order("name").Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (r *repo) DeleteSubchain(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Subchain{}, id)
}

func (r *repo) DeleteSubchainsBySupermarket(ctx context.Context, supermarketID uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Where("supermarket_id = ?", supermarketID).Delete(&models.Subchain{}).Error)
}

// Product operations implementation

func (r *repo) CreateProduct(ctx context.Context, p *models.Product) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Create(p).Error)
}

func (r *repo) UpdateProduct(ctx context.Context, p *models.Product) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Save(p).Error)
}

func (r *repo) FindProductByID(ctx context.Context, id uint) (*models.Product, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := gormDB.First(&p, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *repo) FindProductsByIDs(ctx context.Context, ids []uint) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Product
	if err := gormDB.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (r *repo) ListProducts(ctx context.Context) ([]*models.Product, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var list []*models.Product
	if err := gormDB.Order("name").Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (r *repo) DeleteProduct(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Product{}, id)
}

func (r *repo) CountProductReferences(ctx context.Context, productID uint) (int64, int64, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return 0, 0, err
	}

	var deliveries, returns int64
	err = gormDB.Model(&models.DeliveryItem{}).
		Where("product_id = ?", productID).
		Distinct("delivery_id").
		Count(&deliveries).Error
	if err != nil {
		return 0, 0, translateError(err)
	}
	err = gormDB.Model(&models.ReturnItem{}).
		Where("product_id = ?", productID).
		Distinct("return_id").
		Count(&returns).Error
	if err != nil {
		return 0, 0, translateError(err)
	}
	return deliveries, returns, nil
}

// deleteByID removes a row and reports ErrNotFound when nothing matched
func (r *repo) deleteByID(ctx context.Context, model interface{}, id uint) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}

	res := gormDB.Delete(model, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
