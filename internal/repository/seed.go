package repository

import (
	"context"

	"example.com/backstage/services/inventory/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// SeedSampleCatalog adds one supermarket with a subchain and one product to
// an empty catalog. It reports false when supermarkets already exist.
func SeedSampleCatalog(ctx context.Context, r Repository) (bool, error) {
	existing, err := r.ListSupermarkets(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to inspect catalog")
	}
	if len(existing) > 0 {
		return false, nil
	}

	err = r.WithTransaction(ctx, func(ctx context.Context, tx Repository) error {
		supermarket := &models.Supermarket{
			Name:          "Sample Supermarket",
			Address:       "123 Main St",
			ContactPerson: "John Doe",
			Phone:         "555-0123",
			Email:         "contact@sample.com",
		}
		if err := tx.CreateSupermarket(ctx, supermarket); err != nil {
			return err
		}
		if err := tx.CreateSubchain(ctx, &models.Subchain{
			Name:          "Downtown Branch",
			SupermarketID: supermarket.ID,
		}); err != nil {
			return err
		}
		return tx.CreateProduct(ctx, &models.Product{
			Name:   "Sample Product",
			Price:  decimal.RequireFromString("9.99"),
			Weight: decimal.NewFromInt(1),
		})
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to seed sample catalog")
	}
	return true, nil
}
