// Package mocks provides a testify mock of repository.Repository
package mocks

import (
	"context"
	"time"

	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/stretchr/testify/mock"
)

// Repository is a mock repository.Repository
type Repository struct {
	mock.Mock
}

var _ repository.Repository = (*Repository)(nil)

// WithTransaction runs fn against the mock itself. A configured error is
// returned without calling fn.
func (m *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

func (m *Repository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *Repository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.User)
	return v, args.Error(1)
}

func (m *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	v, _ := args.Get(0).(*models.User)
	return v, args.Error(1)
}

func (m *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	v, _ := args.Get(0).(*models.User)
	return v, args.Error(1)
}

func (m *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]*models.User)
	return v, args.Error(1)
}

func (m *Repository) ListUsersWithPasswordBefore(ctx context.Context, changedBefore time.Time) ([]*models.User, error) {
	args := m.Called(ctx, changedBefore)
	v, _ := args.Get(0).([]*models.User)
	return v, args.Error(1)
}

func (m *Repository) CreateSupermarket(ctx context.Context, s *models.Supermarket) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *Repository) UpdateSupermarket(ctx context.Context, s *models.Supermarket) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *Repository) FindSupermarketByID(ctx context.Context, id uint) (*models.Supermarket, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Supermarket)
	return v, args.Error(1)
}

func (m *Repository) ListSupermarkets(ctx context.Context) ([]*models.Supermarket, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]*models.Supermarket)
	return v, args.Error(1)
}

func (m *Repository) DeleteSupermarket(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) CreateSubchain(ctx context.Context, s *models.Subchain) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *Repository) UpdateSubchain(ctx context.Context, s *models.Subchain) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *Repository) FindSubchainByID(ctx context.Context, id uint) (*models.Subchain, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Subchain)
	return v, args.Error(1)
}

func (m *Repository) ListSubchains(ctx context.Context, supermarketID uint) ([]*models.Subchain, error) {
	args := m.Called(ctx, supermarketID)
	v, _ := args.Get(0).([]*models.Subchain)
	return v, args.Error(1)
}

func (m *Repository) DeleteSubchain(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) DeleteSubchainsBySupermarket(ctx context.Context, supermarketID uint) error {
	args := m.Called(ctx, supermarketID)
	return args.Error(0)
}

func (m *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *Repository) UpdateProduct(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *Repository) FindProductByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Product)
	return v, args.Error(1)
}

func (m *Repository) FindProductsByIDs(ctx context.Context, ids []uint) ([]*models.Product, error) {
	args := m.Called(ctx, ids)
	v, _ := args.Get(0).([]*models.Product)
	return v, args.Error(1)
}

func (m *Repository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]*models.Product)
	return v, args.Error(1)
}

func (m *Repository) DeleteProduct(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) CountProductReferences(ctx context.Context, productID uint) (int64, int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *Repository) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *Repository) CreateDeliveryItems(ctx context.Context, items []models.DeliveryItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *Repository) UpdateDelivery(ctx context.Context, d *models.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *Repository) DeleteDeliveryItems(ctx context.Context, deliveryID uint) error {
	args := m.Called(ctx, deliveryID)
	return args.Error(0)
}

func (m *Repository) FindDeliveryByID(ctx context.Context, id uint) (*models.Delivery, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Delivery)
	return v, args.Error(1)
}

func (m *Repository) ListDeliveries(ctx context.Context, filter repository.ListFilter) ([]*models.Delivery, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*models.Delivery)
	return v, args.Error(1)
}

func (m *Repository) DeleteDelivery(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) FirstDeliveryReferencing(ctx context.Context, supermarketID uint, subchainID uint) (*models.Delivery, error) {
	args := m.Called(ctx, supermarketID, subchainID)
	v, _ := args.Get(0).(*models.Delivery)
	return v, args.Error(1)
}

func (m *Repository) DeleteDeliveriesBySupermarket(ctx context.Context, supermarketID uint) (int64, error) {
	args := m.Called(ctx, supermarketID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository) DetachDeliveriesFromSubchain(ctx context.Context, subchainID uint) error {
	args := m.Called(ctx, subchainID)
	return args.Error(0)
}

func (m *Repository) SummarizeDeliveries(ctx context.Context, filter repository.ListFilter) ([]repository.SupermarketTotal, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]repository.SupermarketTotal)
	return v, args.Error(1)
}

func (m *Repository) CreateReturn(ctx context.Context, r *models.Return) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *Repository) CreateReturnItems(ctx context.Context, items []models.ReturnItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *Repository) UpdateReturn(ctx context.Context, r *models.Return) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *Repository) DeleteReturnItems(ctx context.Context, returnID uint) error {
	args := m.Called(ctx, returnID)
	return args.Error(0)
}

func (m *Repository) FindReturnByID(ctx context.Context, id uint) (*models.Return, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Return)
	return v, args.Error(1)
}

func (m *Repository) ListReturns(ctx context.Context, filter repository.ListFilter) ([]*models.Return, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*models.Return)
	return v, args.Error(1)
}

func (m *Repository) DeleteReturn(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) FirstReturnReferencing(ctx context.Context, supermarketID uint, subchainID uint) (*models.Return, error) {
	args := m.Called(ctx, supermarketID, subchainID)
	v, _ := args.Get(0).(*models.Return)
	return v, args.Error(1)
}

func (m *Repository) DeleteReturnsBySupermarket(ctx context.Context, supermarketID uint) (int64, error) {
	args := m.Called(ctx, supermarketID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository) DetachReturnsFromSubchain(ctx context.Context, subchainID uint) error {
	args := m.Called(ctx, subchainID)
	return args.Error(0)
}

func (m *Repository) SummarizeReturns(ctx context.Context, filter repository.ListFilter) ([]repository.SupermarketTotal, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]repository.SupermarketTotal)
	return v, args.Error(1)
}
