package repository

import (
	"context"
	"time"

	"example.com/backstage/services/inventory/internal/database"
	"example.com/backstage/services/inventory/internal/models"

	"gorm.io/gorm"
)

// ListFilter narrows aggregate listings. Zero values mean no restriction.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	SupermarketID uint
	Limit         int
	Offset        int
}

// SupermarketTotal is one row of the per-supermarket summary
type SupermarketTotal struct {
	SupermarketID   uint
	SupermarketName string
	Count           int64
	Quantity        int64
	Amount          string
}

// Repository provides data access methods
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUsersWithPasswordBefore(ctx context.Context, changedBefore time.Time) ([]*models.User, error)

	// Supermarket operations
	CreateSupermarket(ctx context.Context, s *models.Supermarket) error
	UpdateSupermarket(ctx context.Context, s *models.Supermarket) error
	FindSupermarketByID(ctx context.Context, id uint) (*models.Supermarket, error)
	ListSupermarkets(ctx context.Context) ([]*models.Supermarket, error)
	DeleteSupermarket(ctx context.Context, id uint) error

	// Subchain operations
	CreateSubchain(ctx context.Context, s *models.Subchain) error
	UpdateSubchain(ctx context.Context, s *models.Subchain) error
	FindSubchainByID(ctx context.Context, id uint) (*models.Subchain, error)
	ListSubchains(ctx context.Context, supermarketID uint) ([]*models.Subchain, error)
	DeleteSubchain(ctx context.Context, id uint) error
	DeleteSubchainsBySupermarket(ctx context.Context, supermarketID uint) error

	// Product operations
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	FindProductByID(ctx context.Context, id uint) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uint) ([]*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	CountProductReferences(ctx context.Context, productID uint) (deliveries int64, returns int64, err error)

	// Delivery operations
	CreateDelivery(ctx context.Context, d *models.Delivery) error
	CreateDeliveryItems(ctx context.Context, items []models.DeliveryItem) error
	UpdateDelivery(ctx context.Context, d *models.Delivery) error
	DeleteDeliveryItems(ctx context.Context, deliveryID uint) error
	FindDeliveryByID(ctx context.Context, id uint) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, filter ListFilter) ([]*models.Delivery, error)
	DeleteDelivery(ctx context.Context, id uint) error
	FirstDeliveryReferencing(ctx context.Context, supermarketID, subchainID uint) (*models.Delivery, error)
	DeleteDeliveriesBySupermarket(ctx context.Context, supermarketID uint) (int64, error)
	DetachDeliveriesFromSubchain(ctx context.Context, subchainID uint) error
	SummarizeDeliveries(ctx context.Context, filter ListFilter) ([]SupermarketTotal, error)

	// Return operations
	CreateReturn(ctx context.Context, r *models.Return) error
	CreateReturnItems(ctx context.Context, items []models.ReturnItem) error
	UpdateReturn(ctx context.Context, r *models.Return) error
	DeleteReturnItems(ctx context.Context, returnID uint) error
	FindReturnByID(ctx context.Context, id uint) (*models.Return, error)
	ListReturns(ctx context.Context, filter ListFilter) ([]*models.Return, error)
	DeleteReturn(ctx context.Context, id uint) error
	FirstReturnReferencing(ctx context.Context, supermarketID, subchainID uint) (*models.Return, error)
	DeleteReturnsBySupermarket(ctx context.Context, supermarketID uint) (int64, error)
	DetachReturnsFromSubchain(ctx context.Context, subchainID uint) error
	SummarizeReturns(ctx context.Context, filter ListFilter) ([]SupermarketTotal, error)
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// Helper type for transaction support
type dbWrapper struct {
	db *gorm.DB
}

func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

func (w *dbWrapper) Close() error {
	return nil
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}

// WithTransaction executes the given function within a database transaction.
// Any error returned by fn rolls back every write made through txRepo.
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}

	return gormDB.Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{
			db: &dbWrapper{db: tx},
		}
		return fn(ctx, txRepo)
	})
}

func (r *repo) conn(ctx context.Context) (*gorm.DB, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	return gormDB.WithContext(ctx), nil
}

func applyDateRange(q *gorm.DB, column string, filter ListFilter) *gorm.DB {
	if filter.From != nil {
		q = q.Where(column+" >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where(column+" <= ?", *filter.To)
	}
	if filter.SupermarketID > 0 {
		q = q.Where("supermarket_id = ?", filter.SupermarketID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q
}
