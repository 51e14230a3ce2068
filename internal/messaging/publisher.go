package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/backstage/services/inventory/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventDeliveryCreated       = "delivery.created"
	EventDeliveryUpdated       = "delivery.updated"
	EventDeliveryStatusChanged = "delivery.status_changed"
	EventDeliveryDeleted       = "delivery.deleted"
	EventReturnCreated         = "return.created"
	EventReturnUpdated         = "return.updated"
	EventReturnDeleted         = "return.deleted"
	EventSupermarketDeleted    = "supermarket.deleted"
)

// Event is the envelope written to the queue
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// NewEvent creates an event envelope. key groups events of one aggregate.
func NewEvent(eventType, key string, data interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// serviceBusPublisher publishes to an Azure Service Bus queue
type serviceBusPublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
	source string
}

// logPublisher only logs events, used when no connection string is configured
type logPublisher struct {
	log *logrus.Logger
}

// NewPublisher creates a Service Bus publisher, or a logging one for local development
func NewPublisher(cfg config.ServiceBusConfig, source string, log *logrus.Logger) (Publisher, error) {
	if cfg.ConnectionString == "" {
		return &logPublisher{log: log}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusPublisher{
		client: client,
		sender: sender,
		source: source,
	}, nil
}

// Publish sends the event with its key as session id so per-aggregate order is kept
func (p *serviceBusPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	sessionID := event.Key
	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		MessageID:   &event.ID,
		SessionID:   &sessionID,
		Subject:     &event.Type,
		ContentType: &contentType,
		ApplicationProperties: map[string]interface{}{
			"source": p.source,
			"type":   event.Type,
		},
	}

	return p.sender.SendMessage(ctx, msg, nil)
}

// Close closes the sender and the client
func (p *serviceBusPublisher) Close() error {
	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

func (p *logPublisher) Publish(_ context.Context, event Event) error {
	if p.log != nil {
		p.log.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"key":        event.Key,
		}).Debug("Event published (no message bus configured)")
	}
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
