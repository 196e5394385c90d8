package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostlens/calendar-api/internal/models"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
)

// MaxManualBlockSpanDays caps the length of a single host-declared block.
const MaxManualBlockSpanDays = 365

type manualBlockRepository interface {
	CreateManualBlock(ctx context.Context, block *models.ManualBlock) error
	ListManualBlocks(ctx context.Context, propertyID string) ([]models.ManualBlock, error)
	DeleteManualBlock(ctx context.Context, id string) error
}

type availabilityInvalidator interface {
	InvalidateProperty(ctx context.Context, propertyID string)
}

// ManualBlockService manages host-declared blocked periods. Ownership of
// the property is verified by the caller; this service only validates the
// block itself.
type ManualBlockService struct {
	repo        manualBlockRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewManualBlockService constructs the service.
func NewManualBlockService(repo manualBlockRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *ManualBlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManualBlockService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// CreateManualBlockRequest describes the create payload.
type CreateManualBlockRequest struct {
	StartDay string `json:"start_day" validate:"required"`
	EndDay   string `json:"end_day" validate:"required"`
	Note     string `json:"note" validate:"max=500"`
}

// Create validates and persists a manual block. Validation order: date
// format, end after start, span at most MaxManualBlockSpanDays. Each
// failure is rejected synchronously with a specific reason and nothing is
// persisted.
func (s *ManualBlockService) Create(ctx context.Context, propertyID string, req CreateManualBlockRequest) (*models.ManualBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	start, err := models.ParseDay(req.StartDay)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start_day: %v", err))
	}
	end, err := models.ParseDay(req.EndDay)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end_day: %v", err))
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	if models.DaysBetween(start, end) > MaxManualBlockSpanDays {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("block span must not exceed %d days", MaxManualBlockSpanDays))
	}

	block := &models.ManualBlock{
		PropertyID: propertyID,
		StartDay:   start,
		EndDay:     end,
	}
	if req.Note != "" {
		note := req.Note
		block.Note = &note
	}

	if err := s.repo.CreateManualBlock(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create manual block")
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProperty(ctx, propertyID)
	}
	s.logger.Sugar().Infow("manual block created",
		"property_id", propertyID, "block_id", block.ID,
		"start", start.String(), "end", end.String())
	return block, nil
}

// List returns a property's manual blocks sorted by start day.
func (s *ManualBlockService) List(ctx context.Context, propertyID string) ([]models.ManualBlock, error) {
	blocks, err := s.repo.ListManualBlocks(ctx, propertyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list manual blocks")
	}
	return blocks, nil
}

// Delete removes one manual block by id.
func (s *ManualBlockService) Delete(ctx context.Context, propertyID, id string) error {
	if err := s.repo.DeleteManualBlock(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manual block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete manual block")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateProperty(ctx, propertyID)
	}
	return nil
}
