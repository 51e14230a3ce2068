package service

import (
	"context"
	"io"
	"time"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/cache"
	"example.com/backstage/services/inventory/internal/mailer"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/report"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/validation"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DeletionPolicy decides what happens to history when a supermarket or subchain is deleted
type DeletionPolicy string

const (
	// PolicyCascade removes the owned deliveries and returns
	PolicyCascade DeletionPolicy = "cascade"
	// PolicyRestrict refuses the deletion while history exists
	PolicyRestrict DeletionPolicy = "restrict"
)

// Service defines the business logic operations
type Service interface {
	// Supermarket operations
	CreateSupermarket(ctx context.Context, in SupermarketInput) (*models.Supermarket, error)
	UpdateSupermarket(ctx context.Context, id uint, in SupermarketInput) (*models.Supermarket, error)
	GetSupermarket(ctx context.Context, id uint) (*models.Supermarket, error)
	ListSupermarkets(ctx context.Context) ([]*models.Supermarket, error)
	DeleteSupermarket(ctx context.Context, id uint) error

	// Subchain operations
	CreateSubchain(ctx context.Context, supermarketID uint, in SubchainInput) (*models.Subchain, error)
	UpdateSubchain(ctx context.Context, id uint, in SubchainInput) (*models.Subchain, error)
	GetSubchain(ctx context.Context, id uint) (*models.Subchain, error)
	ListSubchains(ctx context.Context, supermarketID uint) ([]*models.Subchain, error)
	DeleteSubchain(ctx context.Context, id uint) error

	// Product operations
	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	// Delivery operations
	CreateDelivery(ctx context.Context, userID uint, req aggregate.DeliveryRequest) (*models.Delivery, error)
	UpdateDelivery(ctx context.Context, id uint, req aggregate.DeliveryRequest) (*models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id uint, status string) (*models.Delivery, error)
	GetDelivery(ctx context.Context, id uint) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, filter repository.ListFilter) ([]*models.Delivery, error)
	DeleteDelivery(ctx context.Context, id uint) error

	// Return operations
	CreateReturn(ctx context.Context, userID uint, req aggregate.ReturnRequest) (*models.Return, error)
	UpdateReturn(ctx context.Context, id uint, req aggregate.ReturnRequest) (*models.Return, error)
	GetReturn(ctx context.Context, id uint) (*models.Return, error)
	ListReturns(ctx context.Context, filter repository.ListFilter) ([]*models.Return, error)
	DeleteReturn(ctx context.Context, id uint) error

	// Reports
	Summary(ctx context.Context, filter repository.ListFilter) (*Summary, error)
	ExportCSV(ctx context.Context, kind report.Kind, filter repository.ListFilter, w io.Writer) error

	// Account operations
	Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*models.User, error)
	Login(ctx context.Context, in LoginInput, meta RequestMeta) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) error
	ConfirmPasswordReset(ctx context.Context, in ResetConfirmInput, meta RequestMeta) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetUserActive(ctx context.Context, username string, active bool) (*models.User, error)
	ExpiredPasswords(ctx context.Context) ([]*models.User, error)
}

// service is an implementation of the Service interface
type service struct {
	repo           repository.Repository
	cache          cache.RedisClient
	publisher      messaging.Publisher
	mailer         mailer.Mailer
	tokens         *auth.TokenManager
	validator      *aggregate.Validator
	metrics        *metrics.Collector
	log            *logrus.Logger
	policy         DeletionPolicy
	productTTL     time.Duration
	passwordMaxAge time.Duration
	bcryptCost     int
	now            func() time.Time
}

// ServiceConfig holds the configuration for the service
type ServiceConfig struct {
	Repository     repository.Repository
	Cache          cache.RedisClient // optional
	Publisher      messaging.Publisher
	Mailer         mailer.Mailer
	Tokens         *auth.TokenManager
	Metrics        *metrics.Collector
	Logger         *logrus.Logger
	DeletionPolicy DeletionPolicy
	ProductTTL     time.Duration
	PasswordMaxAge time.Duration
	BcryptCost     int
	Now            func() time.Time
}

// NewService creates a new service instance
func NewService(config ServiceConfig) (Service, error) {
	if config.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if config.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if config.Mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if config.Tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	switch config.DeletionPolicy {
	case "":
		config.DeletionPolicy = PolicyCascade
	case PolicyCascade, PolicyRestrict:
	default:
		return nil, errors.Errorf("unknown deletion policy %q", config.DeletionPolicy)
	}
	if config.ProductTTL <= 0 {
		config.ProductTTL = 5 * time.Minute
	}

	return &service{
		repo:           config.Repository,
		cache:          config.Cache,
		publisher:      config.Publisher,
		mailer:         config.Mailer,
		tokens:         config.Tokens,
		validator:      aggregate.NewValidator(config.Repository, config.Now),
		metrics:        config.Metrics,
		log:            config.Logger,
		policy:         config.DeletionPolicy,
		productTTL:     config.ProductTTL,
		passwordMaxAge: config.PasswordMaxAge,
		bcryptCost:     config.BcryptCost,
		now:            config.Now,
	}, nil
}

// publish sends an event after the transaction committed. Failures are logged only.
func (s *service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_type": event.Type,
			"event_key":  event.Key,
		}).Warn("Failed to publish event")
		return
	}
	s.metrics.IncrementCounter(metrics.CounterEventsPublished, 1)
}

// persistenceError logs the storage failure and returns the generic error
func (s *service) persistenceError(err error, msg string, fields logrus.Fields) error {
	s.log.WithError(err).WithFields(fields).Error(msg)
	s.metrics.RecordError(metrics.ErrorTypeDatabase)
	return errors.Wrap(ErrPersistence, msg)
}

// validateInput runs the struct tags of a form DTO
func validateInput(in interface{}) error {
	if err := validation.ValidateStruct(in); err != nil {
		return &InputError{Messages: validation.Messages(err)}
	}
	return nil
}

// passThrough reports whether err should reach the caller unchanged
// instead of being turned into ErrPersistence
func passThrough(err error) bool {
	var (
		verr *aggregate.ValidationError
		rerr *ReferenceError
	)
	return errors.As(err, &verr) || errors.As(err, &rerr) || errors.Is(err, repository.ErrNotFound)
}
