package service

import (
	"context"
	"fmt"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CreateReturn validates the submission and writes the header and items in one transaction
func (s *service) CreateReturn(ctx context.Context, userID uint, req aggregate.ReturnRequest) (*models.Return, error) {
	ret, err := s.validator.ValidateReturn(ctx, req)
	if err != nil {
		return nil, s.rejected(err, "return")
	}
	if userID > 0 {
		ret.CreatedBy = &userID
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return writeReturn(ctx, tx, ret, false)
	})
	if err != nil {
		return nil, s.persistenceError(err, "failed to create return", logrus.Fields{
			"supermarket_id": ret.SupermarketID,
			"items":          len(ret.Items),
		})
	}

	s.metrics.IncrementCounter(metrics.CounterReturnsCreated, 1)
	s.log.WithFields(logrus.Fields{
		"return_id":      ret.ID,
		"supermarket_id": ret.SupermarketID,
		"total_amount":   ret.TotalAmount().StringFixed(2),
	}).Info("Return created")
	s.publish(ctx, returnEvent(messaging.EventReturnCreated, ret))
	return ret, nil
}

// UpdateReturn replaces the header and the whole item set of an existing return
func (s *service) UpdateReturn(ctx context.Context, id uint, req aggregate.ReturnRequest) (*models.Return, error) {
	existing, err := s.repo.FindReturnByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ret, err := s.validator.ValidateReturn(ctx, req)
	if err != nil {
		return nil, s.rejected(err, "return")
	}
	ret.ID = existing.ID
	ret.CreatedAt = existing.CreatedAt
	ret.CreatedBy = existing.CreatedBy

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return writeReturn(ctx, tx, ret, true)
	})
	if err != nil {
		if passThrough(err) {
			return nil, err
		}
		return nil, s.persistenceError(err, "failed to update return", logrus.Fields{"return_id": id})
	}

	s.publish(ctx, returnEvent(messaging.EventReturnUpdated, ret))
	return ret, nil
}

func writeReturn(ctx context.Context, tx repository.Repository, ret *models.Return, replace bool) error {
	if replace {
		if err := tx.UpdateReturn(ctx, ret); err != nil {
			return err
		}
		if err := tx.DeleteReturnItems(ctx, ret.ID); err != nil {
			return errors.Wrap(err, "failed to remove return items")
		}
	} else if err := tx.CreateReturn(ctx, ret); err != nil {
		return errors.Wrap(err, "failed to insert return")
	}

	for i := range ret.Items {
		ret.Items[i].ID = 0
		ret.Items[i].ReturnID = ret.ID
	}
	if err := tx.CreateReturnItems(ctx, ret.Items); err != nil {
		return errors.Wrap(err, "failed to insert return items")
	}
	return nil
}

func (s *service) GetReturn(ctx context.Context, id uint) (*models.Return, error) {
	return s.repo.FindReturnByID(ctx, id)
}

func (s *service) ListReturns(ctx context.Context, filter repository.ListFilter) ([]*models.Return, error) {
	return s.repo.ListReturns(ctx, filter)
}

// DeleteReturn removes the return together with its items
func (s *service) DeleteReturn(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return tx.DeleteReturn(ctx, id)
	})
	if err != nil {
		if passThrough(err) {
			return err
		}
		return s.persistenceError(err, "failed to delete return", logrus.Fields{"return_id": id})
	}

	s.publish(ctx, messaging.NewEvent(messaging.EventReturnDeleted, returnKey(id), map[string]interface{}{
		"return_id": id,
	}))
	return nil
}

func returnKey(id uint) string {
	return fmt.Sprintf("return:%d", id)
}

func returnEvent(eventType string, r *models.Return) messaging.Event {
	return messaging.NewEvent(eventType, returnKey(r.ID), map[string]interface{}{
		"return_id":      r.ID,
		"delivery_date":  models.FormatDate(r.DeliveryDate),
		"return_date":    models.FormatDate(r.ReturnDate),
		"supermarket_id": r.SupermarketID,
		"subchain_id":    r.SubchainID,
		"items":          len(r.Items),
		"total_amount":   r.TotalAmount().StringFixed(2),
	})
}
