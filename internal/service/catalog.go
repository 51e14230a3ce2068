package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const productListCacheKey = "catalog:products"

// SupermarketInput is the supermarket form
type SupermarketInput struct {
	Name          string `json:"name" validate:"notblank,max=100"`
	Address       string `json:"address" validate:"max=200"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Phone         string `json:"phone" validate:"max=20"`
	Email         string `json:"email" validate:"omitempty,email,max=120"`
}

// SubchainInput is the subchain form, the owning supermarket comes from the route
type SubchainInput struct {
	Name          string `json:"name" validate:"notblank,max=100"`
	Address       string `json:"address" validate:"max=200"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Phone         string `json:"phone" validate:"max=20"`
	Email         string `json:"email" validate:"omitempty,email,max=120"`
}

// ProductInput is the product form
type ProductInput struct {
	Name   string          `json:"name" validate:"notblank,max=100"`
	Price  decimal.Decimal `json:"price" validate:"gte=0,decimal_places=2"`
	Weight decimal.Decimal `json:"weight" validate:"gt=0,decimal_places=3"`
}

// Supermarket operations implementation

func (s *service) CreateSupermarket(ctx context.Context, in SupermarketInput) (*models.Supermarket, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sm := &models.Supermarket{
		Name:          strings.TrimSpace(in.Name),
		Address:       strings.TrimSpace(in.Address),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
	}
	if err := s.repo.CreateSupermarket(ctx, sm); err != nil {
		return nil, s.persistenceError(err, "failed to create supermarket", logrus.Fields{"name": sm.Name})
	}
	return sm, nil
}

func (s *service) UpdateSupermarket(ctx context.Context, id uint, in SupermarketInput) (*models.Supermarket, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sm, err := s.repo.FindSupermarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sm.Name = strings.TrimSpace(in.Name)
	sm.Address = strings.TrimSpace(in.Address)
	sm.ContactPerson = strings.TrimSpace(in.ContactPerson)
	sm.Phone = strings.TrimSpace(in.Phone)
	sm.Email = strings.TrimSpace(in.Email)

	if err := s.repo.UpdateSupermarket(ctx, sm); err != nil {
		return nil, s.persistenceError(err, "failed to update supermarket", logrus.Fields{"supermarket_id": id})
	}
	return sm, nil
}

func (s *service) GetSupermarket(ctx context.Context, id uint) (*models.Supermarket, error) {
	return s.repo.FindSupermarketByID(ctx, id)
}

func (s *service) ListSupermarkets(ctx context.Context) ([]*models.Supermarket, error) {
	return s.repo.ListSupermarkets(ctx)
}

// DeleteSupermarket applies the configured deletion policy to the supermarket's history
func (s *service) DeleteSupermarket(ctx context.Context, id uint) error {
	var removedDeliveries, removedReturns int64

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindSupermarketByID(ctx, id); err != nil {
			return err
		}

		if s.policy == PolicyRestrict {
			if err := blockingAggregate(ctx, tx, "supermarket", id, id, 0); err != nil {
				return err
			}
		} else {
			var err error
			if removedDeliveries, err = tx.DeleteDeliveriesBySupermarket(ctx, id); err != nil {
				return err
			}
			if removedReturns, err = tx.DeleteReturnsBySupermarket(ctx, id); err != nil {
				return err
			}
		}

		if err := tx.DeleteSubchainsBySupermarket(ctx, id); err != nil {
			return err
		}
		return tx.DeleteSupermarket(ctx, id)
	})
	if err != nil {
		if passThrough(err) {
			return err
		}
		return s.persistenceError(err, "failed to delete supermarket", logrus.Fields{"supermarket_id": id})
	}

	s.log.WithFields(logrus.Fields{
		"supermarket_id":     id,
		"policy":             s.policy,
		"deliveries_removed": removedDeliveries,
		"returns_removed":    removedReturns,
	}).Info("Supermarket deleted")

	s.publish(ctx, messaging.NewEvent(messaging.EventSupermarketDeleted, fmt.Sprintf("supermarket:%d", id), map[string]interface{}{
		"supermarket_id":     id,
		"deliveries_removed": removedDeliveries,
		"returns_removed":    removedReturns,
	}))
	return nil
}

// blockingAggregate returns a ReferenceError naming the first delivery or return
// that points at the supermarket or subchain
func blockingAggregate(ctx context.Context, tx repository.Repository, entity string, id, supermarketID, subchainID uint) error {
	d, err := tx.FirstDeliveryReferencing(ctx, supermarketID, subchainID)
	switch {
	case err == nil:
		return &ReferenceError{
			Entity:  entity,
			ID:      id,
			Blocker: fmt.Sprintf("delivery #%d dated %s", d.ID, models.FormatDate(d.DeliveryDate)),
		}
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	r, err := tx.FirstReturnReferencing(ctx, supermarketID, subchainID)
	switch {
	case err == nil:
		return &ReferenceError{
			Entity:  entity,
			ID:      id,
			Blocker: fmt.Sprintf("return #%d dated %s", r.ID, models.FormatDate(r.ReturnDate)),
		}
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}
	return nil
}

// Subchain operations implementation

func (s *service) CreateSubchain(ctx context.Context, supermarketID uint, in SubchainInput) (*models.Subchain, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindSupermarketByID(ctx, supermarketID); err != nil {
		return nil, err
	}

	sc := &models.Subchain{
		Name:          strings.TrimSpace(in.Name),
		SupermarketID: supermarketID,
		Address:       strings.TrimSpace(in.Address),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
	}
	if err := s.repo.CreateSubchain(ctx, sc); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, subchainConflict(sc.Name)
		}
		return nil, s.persistenceError(err, "failed to create subchain", logrus.Fields{"supermarket_id": supermarketID})
	}
	return sc, nil
}

func (s *service) UpdateSubchain(ctx context.Context, id uint, in SubchainInput) (*models.Subchain, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sc, err := s.repo.FindSubchainByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sc.Name = strings.TrimSpace(in.Name)
	sc.Address = strings.TrimSpace(in.Address)
	sc.ContactPerson = strings.TrimSpace(in.ContactPerson)
	sc.Phone = strings.TrimSpace(in.Phone)
	sc.Email = strings.TrimSpace(in.Email)

	if err := s.repo.UpdateSubchain(ctx, sc); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, subchainConflict(sc.Name)
		}
		return nil, s.persistenceError(err, "failed to update subchain", logrus.Fields{"subchain_id": id})
	}
	return sc, nil
}

func subchainConflict(name string) error {
	return &ConflictError{
		Field:   "name",
		Message: fmt.Sprintf("subchain %q already exists for this supermarket", name),
	}
}

func (s *service) GetSubchain(ctx context.Context, id uint) (*models.Subchain, error) {
	return s.repo.FindSubchainByID(ctx, id)
}

func (s *service) ListSubchains(ctx context.Context, supermarketID uint) ([]*models.Subchain, error) {
	if _, err := s.repo.FindSupermarketByID(ctx, supermarketID); err != nil {
		return nil, err
	}
	return s.repo.ListSubchains(ctx, supermarketID)
}

// DeleteSubchain detaches the subchain from history under cascade and
// refuses while history exists under restrict
func (s *service) DeleteSubchain(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindSubchainByID(ctx, id); err != nil {
			return err
		}

		if s.policy == PolicyRestrict {
			if err := blockingAggregate(ctx, tx, "subchain", id, 0, id); err != nil {
				return err
			}
		} else {
			if err := tx.DetachDeliveriesFromSubchain(ctx, id); err != nil {
				return err
			}
			if err := tx.DetachReturnsFromSubchain(ctx, id); err != nil {
				return err
			}
		}
		return tx.DeleteSubchain(ctx, id)
	})
	if err != nil {
		if passThrough(err) {
			return err
		}
		return s.persistenceError(err, "failed to delete subchain", logrus.Fields{"subchain_id": id})
	}
	return nil
}

// Product operations implementation

func (s *service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:   strings.TrimSpace(in.Name),
		Price:  in.Price,
		Weight: in.Weight,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, s.persistenceError(err, "failed to create product", logrus.Fields{"name": p.Name})
	}
	s.invalidateProducts(ctx)
	return p, nil
}

// UpdateProduct changes the catalog entry only. Recorded line items keep their prices.
func (s *service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	p.Weight = in.Weight

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, s.persistenceError(err, "failed to update product", logrus.Fields{"product_id": id})
	}
	s.invalidateProducts(ctx)
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.FindProductByID(ctx, id)
}

// ListProducts serves the product lookup, from Redis when it is configured
func (s *service) ListProducts(ctx context.Context) ([]*models.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, productListCacheKey); err == nil {
			var products []*models.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, productListCacheKey, string(data), s.productTTL); err != nil {
				s.log.WithError(err).Warn("Failed to cache product list")
			}
		}
	}
	return products, nil
}

// DeleteProduct is refused while any delivery or return references the product
func (s *service) DeleteProduct(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindProductByID(ctx, id); err != nil {
			return err
		}

		deliveries, returns, err := tx.CountProductReferences(ctx, id)
		if err != nil {
			return err
		}
		if deliveries > 0 || returns > 0 {
			return &ReferenceError{Entity: "product", ID: id, DeliveryCount: deliveries, ReturnCount: returns}
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		if passThrough(err) {
			return err
		}
		if errors.Is(err, repository.ErrForeignKey) {
			return &ReferenceError{Entity: "product", ID: id, Blocker: "a line item recorded concurrently"}
		}
		return s.persistenceError(err, "failed to delete product", logrus.Fields{"product_id": id})
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *service) invalidateProducts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productListCacheKey); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate product list cache")
	}
}
