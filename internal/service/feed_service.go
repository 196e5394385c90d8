package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostlens/calendar-api/internal/models"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
)

type feedRepository interface {
	GetByID(ctx context.Context, id string) (*models.FeedSubscription, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.FeedSubscription, error)
	Create(ctx context.Context, feed *models.FeedSubscription) error
	Delete(ctx context.Context, id string) error
}

// FeedService manages calendar feed subscriptions.
type FeedService struct {
	repo        feedRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFeedService constructs the service.
func NewFeedService(repo feedRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *FeedService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// CreateFeedRequest describes a new subscription.
type CreateFeedRequest struct {
	Platform string `json:"platform" validate:"required,max=100"`
	URL      string `json:"url" validate:"required,url"`
	Enabled  *bool  `json:"enabled"`
}

// Create registers a feed subscription for a property.
func (s *FeedService) Create(ctx context.Context, propertyID string, req CreateFeedRequest) (*models.FeedSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	feed := &models.FeedSubscription{
		PropertyID: propertyID,
		Platform:   req.Platform,
		URL:        req.URL,
		Enabled:    true,
		SyncStatus: models.SyncStatusPending,
	}
	if req.Enabled != nil {
		feed.Enabled = *req.Enabled
	}

	if err := s.repo.Create(ctx, feed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feed")
	}
	s.logger.Sugar().Infow("feed subscription created",
		"feed_id", feed.ID, "property_id", propertyID, "platform", feed.Platform)
	return feed, nil
}

// Get returns a single subscription.
func (s *FeedService) Get(ctx context.Context, id string) (*models.FeedSubscription, error) {
	feed, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feed subscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed")
	}
	return feed, nil
}

// List returns a property's subscriptions.
func (s *FeedService) List(ctx context.Context, propertyID string) ([]models.FeedSubscription, error) {
	feeds, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feeds")
	}
	return feeds, nil
}

// Delete removes a subscription and, through the schema cascade, the
// synced periods derived from it.
func (s *FeedService) Delete(ctx context.Context, id string) error {
	feed, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete feed")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateProperty(ctx, feed.PropertyID)
	}
	return nil
}
