package service

import (
	"context"
	"fmt"
	"strings"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CreateDelivery validates the submission and writes the header and items in one transaction
func (s *service) CreateDelivery(ctx context.Context, userID uint, req aggregate.DeliveryRequest) (*models.Delivery, error) {
	delivery, err := s.validator.ValidateDelivery(ctx, req, aggregate.ModeCreate)
	if err != nil {
		return nil, s.rejected(err, "delivery")
	}
	if userID > 0 {
		delivery.CreatedBy = &userID
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return writeDelivery(ctx, tx, delivery, false)
	})
	if err != nil {
		return nil, s.persistenceError(err, "failed to create delivery", logrus.Fields{
			"supermarket_id": delivery.SupermarketID,
			"items":          len(delivery.Items),
		})
	}

	s.metrics.IncrementCounter(metrics.CounterDeliveriesCreated, 1)
	s.log.WithFields(logrus.Fields{
		"delivery_id":    delivery.ID,
		"supermarket_id": delivery.SupermarketID,
		"total_amount":   delivery.TotalAmount().StringFixed(2),
	}).Info("Delivery created")
	s.publish(ctx, deliveryEvent(messaging.EventDeliveryCreated, delivery))
	return delivery, nil
}

// UpdateDelivery replaces the header and the whole item set of an existing delivery
func (s *service) UpdateDelivery(ctx context.Context, id uint, req aggregate.DeliveryRequest) (*models.Delivery, error) {
	existing, err := s.repo.FindDeliveryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = string(existing.Status)
	}

	delivery, err := s.validator.ValidateDelivery(ctx, req, aggregate.ModeEdit)
	if err != nil {
		return nil, s.rejected(err, "delivery")
	}
	delivery.ID = existing.ID
	delivery.CreatedAt = existing.CreatedAt
	delivery.CreatedBy = existing.CreatedBy

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return writeDelivery(ctx, tx, delivery, true)
	})
	if err != nil {
		if passThrough(err) {
			return nil, err
		}
		return nil, s.persistenceError(err, "failed to update delivery", logrus.Fields{"delivery_id": id})
	}

	s.publish(ctx, deliveryEvent(messaging.EventDeliveryUpdated, delivery))
	return delivery, nil
}

// writeDelivery persists the header then the items. On edit the old items are removed first.
func writeDelivery(ctx context.Context, tx repository.Repository, delivery *models.Delivery, replace bool) error {
	if replace {
		if err := tx.UpdateDelivery(ctx, delivery); err != nil {
			return err
		}
		if err := tx.DeleteDeliveryItems(ctx, delivery.ID); err != nil {
			return errors.Wrap(err, "failed to remove delivery items")
		}
	} else if err := tx.CreateDelivery(ctx, delivery); err != nil {
		return errors.Wrap(err, "failed to insert delivery")
	}

	for i := range delivery.Items {
		delivery.Items[i].ID = 0
		delivery.Items[i].DeliveryID = delivery.ID
	}
	if err := tx.CreateDeliveryItems(ctx, delivery.Items); err != nil {
		return errors.Wrap(err, "failed to insert delivery items")
	}
	return nil
}

// UpdateDeliveryStatus moves a delivery to another lifecycle state
func (s *service) UpdateDeliveryStatus(ctx context.Context, id uint, status string) (*models.Delivery, error) {
	next := models.DeliveryStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, &aggregate.ValidationError{Violations: []aggregate.Violation{{
			Reason:  aggregate.ReasonInvalidStatus,
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", status),
		}}}
	}

	delivery, err := s.repo.FindDeliveryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := delivery.Status
	if previous == next {
		return delivery, nil
	}

	delivery.Status = next
	if err := s.repo.UpdateDelivery(ctx, delivery); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, s.persistenceError(err, "failed to update delivery status", logrus.Fields{"delivery_id": id})
	}

	s.publish(ctx, messaging.NewEvent(messaging.EventDeliveryStatusChanged, deliveryKey(id), map[string]interface{}{
		"delivery_id": id,
		"from":        previous,
		"to":          next,
	}))
	return delivery, nil
}

func (s *service) GetDelivery(ctx context.Context, id uint) (*models.Delivery, error) {
	return s.repo.FindDeliveryByID(ctx, id)
}

func (s *service) ListDeliveries(ctx context.Context, filter repository.ListFilter) ([]*models.Delivery, error) {
	return s.repo.ListDeliveries(ctx, filter)
}

// DeleteDelivery removes the delivery together with its items
func (s *service) DeleteDelivery(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return tx.DeleteDelivery(ctx, id)
	})
	if err != nil {
		if passThrough(err) {
			return err
		}
		return s.persistenceError(err, "failed to delete delivery", logrus.Fields{"delivery_id": id})
	}

	s.publish(ctx, messaging.NewEvent(messaging.EventDeliveryDeleted, deliveryKey(id), map[string]interface{}{
		"delivery_id": id,
	}))
	return nil
}

// rejected counts validation failures and hides lookup failures behind ErrPersistence
func (s *service) rejected(err error, kind string) error {
	var verr *aggregate.ValidationError
	if errors.As(err, &verr) {
		s.metrics.IncrementCounter(metrics.CounterValidationFailures, 1)
		s.log.WithFields(logrus.Fields{
			"kind":    kind,
			"reasons": verr.Reasons(),
		}).Debug("Submission rejected")
		return err
	}
	return s.persistenceError(err, "failed to validate "+kind, logrus.Fields{"kind": kind})
}

func deliveryKey(id uint) string {
	return fmt.Sprintf("delivery:%d", id)
}

func deliveryEvent(eventType string, d *models.Delivery) messaging.Event {
	return messaging.NewEvent(eventType, deliveryKey(d.ID), map[string]interface{}{
		"delivery_id":    d.ID,
		"delivery_date":  models.FormatDate(d.DeliveryDate),
		"supermarket_id": d.SupermarketID,
		"subchain_id":    d.SubchainID,
		"status":         d.Status,
		"items":          len(d.Items),
		"total_amount":   d.TotalAmount().StringFixed(2),
	})
}
