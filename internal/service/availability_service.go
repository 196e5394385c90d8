package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hostlens/calendar-api/internal/interval"
	"github.com/hostlens/calendar-api/internal/models"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
)

type periodReader interface {
	ListByProperty(ctx context.Context, propertyID string) ([]models.BlockedPeriod, error)
}

// AvailabilityService is the read side of the engine. It owns no state:
// it projects the union of a property's synced and manual blocked periods
// onto a bounded future horizon. It takes no locks and tolerates reading a
// slightly stale synced set.
type AvailabilityService struct {
	periods        periodReader
	cache          *redis.Client
	cacheTTL       time.Duration
	defaultHorizon int
	maxHorizon     int
	logger         *zap.Logger
	nowFn          func() time.Time
}

// NewAvailabilityService constructs the service. cache may be nil, which
// disables response caching.
func NewAvailabilityService(periods periodReader, cache *redis.Client, cacheTTL time.Duration, defaultHorizon, maxHorizon int, logger *zap.Logger) *AvailabilityService {
	if defaultHorizon <= 0 {
		defaultHorizon = 3
	}
	if maxHorizon <= 0 {
		maxHorizon = 24
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		periods:        periods,
		cache:          cache,
		cacheTTL:       cacheTTL,
		defaultHorizon: defaultHorizon,
		maxHorizon:     maxHorizon,
		logger:         logger,
		nowFn:          time.Now,
	}
}

// SetNowFunc overrides the clock, for deterministic tests.
func (s *AvailabilityService) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

func (s *AvailabilityService) today() models.CalendarDay {
	return models.DayOf(s.nowFn().UTC())
}

// IsDateBlocked reports whether day falls inside any blocked period
// (synced or manual) of the property. A linear scan is fine at this
// scale: horizon windows of a few hundred days, period counts in the tens.
func (s *AvailabilityService) IsDateBlocked(ctx context.Context, propertyID string, day models.CalendarDay) (bool, error) {
	periods, err := s.periods.ListByProperty(ctx, propertyID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked periods")
	}
	for _, p := range periods {
		if p.Contains(day) {
			return true, nil
		}
	}
	return false, nil
}

// GetAvailablePeriods returns the minimal sorted set of open day-ranges in
// [today, today+horizonMonths). Manual and synced periods are merged
// together first since they can overlap each other. A fully blocked
// horizon yields an empty list.
func (s *AvailabilityService) GetAvailablePeriods(ctx context.Context, propertyID string, horizonMonths int) ([]models.AvailablePeriod, error) {
	if horizonMonths <= 0 {
		horizonMonths = s.defaultHorizon
	}
	if horizonMonths > s.maxHorizon {
		horizonMonths = s.maxHorizon
	}
	today := s.today()

	cacheKey := fmt.Sprintf("availability:%s:%d:%s", propertyID, horizonMonths, today)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	periods, err := s.periods.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked periods")
	}

	spans := make([]interval.Span, 0, len(periods))
	for _, p := range periods {
		spans = append(spans, interval.Span{Start: p.StartDay, End: p.EndDay})
	}
	blocked := interval.Merge(spans)
	if err := interval.Verify(blocked); err != nil {
		// Programmer error; never serve a projection built on a corrupt set.
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blocked period merge invariant violated")
	}

	horizon := interval.Span{Start: today, End: today.AddMonths(horizonMonths)}
	open := interval.Complement(blocked, horizon)

	available := make([]models.AvailablePeriod, 0, len(open))
	for _, span := range open {
		available = append(available, models.AvailablePeriod{StartDay: span.Start, EndDay: span.End})
	}

	s.cacheSet(ctx, cacheKey, available)
	return available, nil
}

// InvalidateProperty drops every cached availability projection for the
// property. Called after syncs and manual block mutations.
func (s *AvailabilityService) InvalidateProperty(ctx context.Context, propertyID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("availability:%s:*", propertyID)
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Sugar().Warnw("availability cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Sugar().Warnw("availability cache scan failed", "property_id", propertyID, "error", err)
	}
}

func (s *AvailabilityService) cacheGet(ctx context.Context, key string) ([]models.AvailablePeriod, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var periods []models.AvailablePeriod
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, false
	}
	return periods, true
}

func (s *AvailabilityService) cacheSet(ctx context.Context, key string, periods []models.AvailablePeriod) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(periods)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Sugar().Warnw("availability cache write failed", "key", key, "error", err)
	}
}
