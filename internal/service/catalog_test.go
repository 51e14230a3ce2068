package service

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) withSupermarket(id uint) {
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindSupermarketByID", mock.Anything, id).
		Return(&models.Supermarket{Model: models.Model{ID: id}, Name: "Acme"}, nil)
}

func TestDeleteSupermarketCascadeRemovesHistory(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.withSupermarket(1)
	f.repo.On("DeleteDeliveriesBySupermarket", mock.Anything, uint(1)).Return(int64(1), nil)
	f.repo.On("DeleteReturnsBySupermarket", mock.Anything, uint(1)).Return(int64(0), nil)
	f.repo.On("DeleteSubchainsBySupermarket", mock.Anything, uint(1)).Return(nil)
	f.repo.On("DeleteSupermarket", mock.Anything, uint(1)).Return(nil)

	require.NoError(t, f.svc.DeleteSupermarket(context.Background(), 1))

	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "FirstDeliveryReferencing", mock.Anything, mock.Anything, mock.Anything)
	require.Equal(t, []string{messaging.EventSupermarketDeleted}, f.publisher.types())
}

func TestDeleteSupermarketRestrictNamesBlockingDelivery(t *testing.T) {
	f := newFixture(t, PolicyRestrict)
	f.withSupermarket(1)
	f.repo.On("FirstDeliveryReferencing", mock.Anything, uint(1), uint(0)).Return(&models.Delivery{
		Model:        models.Model{ID: 12},
		DeliveryDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}, nil)

	err := f.svc.DeleteSupermarket(context.Background(), 1)

	var rerr *ReferenceError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "delivery #12 dated 2024-01-10", rerr.Blocker)
	f.repo.AssertNotCalled(t, "DeleteSupermarket", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "DeleteDeliveriesBySupermarket", mock.Anything, mock.Anything)
	require.Empty(t, f.publisher.types())
}

func TestDeleteSupermarketRestrictNamesBlockingReturn(t *testing.T) {
	f := newFixture(t, PolicyRestrict)
	f.withSupermarket(1)
	f.repo.On("FirstDeliveryReferencing", mock.Anything, uint(1), uint(0)).Return(nil, repository.ErrNotFound)
	f.repo.On("FirstReturnReferencing", mock.Anything, uint(1), uint(0)).Return(&models.Return{
		Model:      models.Model{ID: 4},
		ReturnDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	err := f.svc.DeleteSupermarket(context.Background(), 1)

	var rerr *ReferenceError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "return #4 dated 2024-02-01", rerr.Blocker)
}

func TestDeleteSupermarketRestrictWithoutHistory(t *testing.T) {
	f := newFixture(t, PolicyRestrict)
	f.withSupermarket(1)
	f.repo.On("FirstDeliveryReferencing", mock.Anything, uint(1), uint(0)).Return(nil, repository.ErrNotFound)
	f.repo.On("FirstReturnReferencing", mock.Anything, uint(1), uint(0)).Return(nil, repository.ErrNotFound)
	f.repo.On("DeleteSubchainsBySupermarket", mock.Anything, uint(1)).Return(nil)
	f.repo.On("DeleteSupermarket", mock.Anything, uint(1)).Return(nil)

	require.NoError(t, f.svc.DeleteSupermarket(context.Background(), 1))
	f.repo.AssertExpectations(t)
}

func TestDeleteSupermarketNotFound(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindSupermarketByID", mock.Anything, uint(2)).Return(nil, repository.ErrNotFound)

	require.ErrorIs(t, f.svc.DeleteSupermarket(context.Background(), 2), repository.ErrNotFound)
}

func TestDeleteSupermarketStorageFailure(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.withSupermarket(1)
	f.repo.On("DeleteDeliveriesBySupermarket", mock.Anything, uint(1)).Return(int64(0), errors.New("deadlock"))

	require.ErrorIs(t, f.svc.DeleteSupermarket(context.Background(), 1), ErrPersistence)
	f.repo.AssertNotCalled(t, "DeleteSupermarket", mock.Anything, mock.Anything)
}

func TestDeleteSubchainCascadeDetachesHistory(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindSubchainByID", mock.Anything, uint(10)).
		Return(&models.Subchain{Model: models.Model{ID: 10}, SupermarketID: 1}, nil)
	f.repo.On("DetachDeliveriesFromSubchain", mock.Anything, uint(10)).Return(nil)
	f.repo.On("DetachReturnsFromSubchain", mock.Anything, uint(10)).Return(nil)
	f.repo.On("DeleteSubchain", mock.Anything, uint(10)).Return(nil)

	require.NoError(t, f.svc.DeleteSubchain(context.Background(), 10))
	f.repo.AssertExpectations(t)
}

func TestDeleteSubchainRestrict(t *testing.T) {
	f := newFixture(t, PolicyRestrict)
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindSubchainByID", mock.Anything, uint(10)).
		Return(&models.Subchain{Model: models.Model{ID: 10}, SupermarketID: 1}, nil)
	f.repo.On("FirstDeliveryReferencing", mock.Anything, uint(0), uint(10)).Return(&models.Delivery{
		Model:        models.Model{ID: 3},
		DeliveryDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, nil)

	err := f.svc.DeleteSubchain(context.Background(), 10)

	var rerr *ReferenceError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "subchain", rerr.Entity)
	f.repo.AssertNotCalled(t, "DeleteSubchain", mock.Anything, mock.Anything)
}

func TestDeleteProductReferencedIsRefusedWithCounts(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindProductByID", mock.Anything, uint(4)).Return(&models.Product{Model: models.Model{ID: 4}}, nil)
	f.repo.On("CountProductReferences", mock.Anything, uint(4)).Return(int64(2), int64(1), nil)

	err := f.svc.DeleteProduct(context.Background(), 4)

	var rerr *ReferenceError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, int64(2), rerr.DeliveryCount)
	require.Equal(t, int64(1), rerr.ReturnCount)
	f.repo.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
}

func TestDeleteUnreferencedProductInvalidatesCache(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	c := &memCache{data: map[string]string{productListCacheKey: "[]"}}
	f.svc.cache = c
	f.repo.On("WithTransaction", mock.Anything).Return(nil)
	f.repo.On("FindProductByID", mock.Anything, uint(4)).Return(&models.Product{Model: models.Model{ID: 4}}, nil)
	f.repo.On("CountProductReferences", mock.Anything, uint(4)).Return(int64(0), int64(0), nil)
	f.repo.On("DeleteProduct", mock.Anything, uint(4)).Return(nil)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), 4))
	require.NotContains(t, c.data, productListCacheKey)
}

func TestListProductsUsesCache(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.svc.cache = &memCache{data: map[string]string{}}
	f.repo.On("ListProducts", mock.Anything).Return([]*models.Product{
		{Model: models.Model{ID: 1}, Name: "Widget", Price: decimal.RequireFromString("2.50")},
	}, nil).Once()

	first, err := f.svc.ListProducts(context.Background())
	require.NoError(t, err)
	second, err := f.svc.ListProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, second, 1)
	require.Equal(t, first[0].Name, second[0].Name)
	require.True(t, second[0].Price.Equal(decimal.RequireFromString("2.50")))
	f.repo.AssertNumberOfCalls(t, "ListProducts", 1)
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, PolicyCascade)

	_, err := f.svc.CreateProduct(context.Background(), ProductInput{
		Name:   " ",
		Price:  decimal.NewFromInt(-1),
		Weight: decimal.Zero,
	})

	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	require.Len(t, ierr.Messages, 3)
	f.repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestCreateSupermarketTrimsName(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("CreateSupermarket", mock.Anything, mock.MatchedBy(func(s *models.Supermarket) bool {
		return s.Name == "Acme" && s.Address == "1 Main St"
	})).Return(nil)

	sm, err := f.svc.CreateSupermarket(context.Background(), SupermarketInput{Name: "  Acme ", Address: "1 Main St"})

	require.NoError(t, err)
	require.Equal(t, "Acme", sm.Name)
}

func TestCreateSubchainDuplicateNameIsConflict(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("FindSupermarketByID", mock.Anything, uint(1)).Return(&models.Supermarket{Model: models.Model{ID: 1}}, nil)
	f.repo.On("CreateSubchain", mock.Anything, mock.Anything).Return(repository.ErrDuplicateKey)

	_, err := f.svc.CreateSubchain(context.Background(), 1, SubchainInput{Name: "North"})

	var cerr *ConflictError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "name", cerr.Field)
}

func TestCreateProductRejectsExtraDecimalPlaces(t *testing.T) {
	f := newFixture(t, PolicyCascade)

	_, err := f.svc.CreateProduct(context.Background(), ProductInput{
		Name:   "Widget",
		Price:  decimal.RequireFromString("1.005"),
		Weight: decimal.RequireFromString("0.2505"),
	})

	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	require.ElementsMatch(t, []string{
		"price must have at most 2 decimal places",
		"weight must have at most 3 decimal places",
	}, ierr.Messages)
	f.repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}
