package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostlens/calendar-api/internal/ical"
	"github.com/hostlens/calendar-api/internal/interval"
	"github.com/hostlens/calendar-api/internal/models"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
	"github.com/hostlens/calendar-api/pkg/jobs"
)

// Sync pipeline states, logged as each feed moves through its sync.
const (
	syncStateFetching   = "fetching"
	syncStateParsing    = "parsing"
	syncStatePersisting = "persisting"
	syncStateSucceeded  = "succeeded"
	syncStateFailed     = "failed"
)

// maxFeedBodyBytes caps how much of a feed response is read.
const maxFeedBodyBytes = 10 << 20

type feedStore interface {
	GetByID(ctx context.Context, id string) (*models.FeedSubscription, error)
	ListEnabled(ctx context.Context) ([]models.FeedSubscription, error)
	MarkSyncing(ctx context.Context, id string) error
	RecordSyncOutcome(ctx context.Context, id string, status string, syncErr *string) error
}

type syncedPeriodStore interface {
	ReplaceSyncedPeriods(ctx context.Context, feedID string, periods []models.BlockedPeriod) error
}

// SyncConfig tunes the orchestrator.
type SyncConfig struct {
	FetchTimeout time.Duration
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	UserAgent    string
}

// SyncService drives the per-feed pipeline: fetch the published feed with
// a bounded time budget, parse and normalize its events, merge the
// resulting day-ranges and atomically replace the feed's persisted synced
// set. Failures are isolated per feed and never clobber the last good set.
type SyncService struct {
	feeds       feedStore
	periods     syncedPeriodStore
	invalidator availabilityInvalidator
	metrics     *MetricsService
	client      *http.Client
	userAgent   string
	queue       *jobs.Queue
	logger      *zap.Logger
	nowFn       func() time.Time
}

// NewSyncService constructs the orchestrator. invalidator and metrics may
// be nil.
func NewSyncService(feeds feedStore, periods syncedPeriodStore, invalidator availabilityInvalidator, metrics *MetricsService, cfg SyncConfig, logger *zap.Logger) *SyncService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hostlens-calendar-sync/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SyncService{
		feeds:       feeds,
		periods:     periods,
		invalidator: invalidator,
		metrics:     metrics,
		client:      &http.Client{Timeout: cfg.FetchTimeout},
		userAgent:   cfg.UserAgent,
		logger:      logger,
		nowFn:       time.Now,
	}
	s.queue = jobs.NewQueue("feed_sync", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// SetNowFunc overrides the clock, for deterministic tests.
func (s *SyncService) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// SetHTTPClient swaps the fetch client, for tests.
func (s *SyncService) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.client = client
	}
}

// Start launches the sweep workers.
func (s *SyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the sweep workers.
func (s *SyncService) Stop() {
	s.queue.Stop()
}

// SyncFeed runs one feed through the full pipeline and returns its
// outcome. Transport and parse failures are recorded on the subscription
// and reported in the result rather than returned as errors; an error
// return means the feed could not be loaded or is disabled.
func (s *SyncService) SyncFeed(ctx context.Context, feedID string) (*models.SyncResult, error) {
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feed subscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed")
	}
	if !feed.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeedDisabled, "feed subscription is disabled")
	}

	if err := s.feeds.MarkSyncing(ctx, feed.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark feed syncing")
	}

	started := s.nowFn()
	result := s.runPipeline(ctx, feed)
	result.Duration = s.nowFn().Sub(started)
	result.SyncedAt = s.nowFn().UTC()

	status := syncStateSucceeded
	outcome := models.SyncStatusSuccess
	var reason *string
	if !result.Success {
		status = syncStateFailed
		outcome = models.SyncStatusError
		r := result.Error
		reason = &r
	}

	if err := s.feeds.RecordSyncOutcome(ctx, feed.ID, outcome, reason); err != nil {
		s.logger.Sugar().Errorw("failed to record sync outcome", "feed_id", feed.ID, "error", err)
	}
	s.metrics.ObserveFeedSync(status, result.Duration, result.EventCount, result.PeriodCount)

	if result.Success && s.invalidator != nil {
		s.invalidator.InvalidateProperty(ctx, feed.PropertyID)
	}

	s.logger.Sugar().Infow("feed sync finished",
		"feed_id", feed.ID, "property_id", feed.PropertyID, "platform", feed.Platform,
		"state", status, "events", result.EventCount, "periods", result.PeriodCount,
		"duration", result.Duration, "error", result.Error)
	return result, nil
}

// runPipeline executes Fetching -> Parsing -> Persisting for one feed.
// Any failure leaves the previously persisted synced set untouched:
// stale-but-present beats empty.
func (s *SyncService) runPipeline(ctx context.Context, feed *models.FeedSubscription) *models.SyncResult {
	result := &models.SyncResult{FeedID: feed.ID}

	s.logState(feed, syncStateFetching)
	body, err := s.fetch(ctx, feed.URL)
	if err != nil {
		result.Error = fmt.Sprintf("fetch: %v", err)
		return result
	}

	s.logState(feed, syncStateParsing)
	events := ical.Parse(string(body))
	result.EventCount = len(events)

	today := models.DayOf(s.nowFn().UTC())
	candidates := ical.Normalize(events, feed.ID, feed.PropertyID, today)

	merged, err := mergeSyncedPeriods(candidates)
	if err != nil {
		// Fail closed: never persist a set that violates the merge invariant.
		result.Error = fmt.Sprintf("merge: %v", err)
		return result
	}
	result.PeriodCount = len(merged)

	s.logState(feed, syncStatePersisting)
	if err := s.periods.ReplaceSyncedPeriods(ctx, feed.ID, merged); err != nil {
		result.Error = fmt.Sprintf("persist: %v", err)
		return result
	}

	result.Success = true
	return result
}

// fetch downloads the feed body within the configured time budget.
// Non-2xx statuses are failures.
func (s *SyncService) fetch(ctx context.Context, url string) ([]byte, error) {
	if s.client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.client.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/calendar, text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
}

// mergeSyncedPeriods collapses candidate periods into the canonical
// disjoint set. UID and summary survive only on periods whose bounds were
// not changed by merging; a span built from several events keeps neither.
func mergeSyncedPeriods(candidates []models.BlockedPeriod) ([]models.BlockedPeriod, error) {
	spans := make([]interval.Span, 0, len(candidates))
	for _, p := range candidates {
		spans = append(spans, interval.Span{Start: p.StartDay, End: p.EndDay})
	}
	mergedSpans := interval.Merge(spans)
	if err := interval.Verify(mergedSpans); err != nil {
		return nil, err
	}

	byBounds := make(map[string]models.BlockedPeriod, len(candidates))
	for _, p := range candidates {
		byBounds[p.StartDay.String()+"/"+p.EndDay.String()] = p
	}

	merged := make([]models.BlockedPeriod, 0, len(mergedSpans))
	for _, span := range mergedSpans {
		period := models.BlockedPeriod{
			StartDay: span.Start,
			EndDay:   span.End,
		}
		if src, ok := byBounds[span.Start.String()+"/"+span.End.String()]; ok {
			period = src
		}
		if len(candidates) > 0 {
			period.PropertyID = candidates[0].PropertyID
			period.FeedID = candidates[0].FeedID
		}
		period.Source = models.PeriodSourceSynced
		period.StartDay = span.Start
		period.EndDay = span.End
		merged = append(merged, period)
	}
	return merged, nil
}

// SweepAll enqueues a sync job for every enabled feed. Feeds are
// independent units of work: one feed's failure never aborts another's.
func (s *SyncService) SweepAll(ctx context.Context) (int, error) {
	feeds, err := s.feeds.ListEnabled(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feeds for sweep")
	}

	enqueued := 0
	for _, feed := range feeds {
		job := jobs.Job{ID: uuid.NewString(), Type: "feed_sync", Payload: feed.ID}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Sugar().Errorw("failed to enqueue feed sync", "feed_id", feed.ID, "error", err)
			continue
		}
		enqueued++
	}
	s.logger.Sugar().Infow("sync sweep enqueued", "feeds", enqueued)
	return enqueued, nil
}

func (s *SyncService) handleJob(ctx context.Context, job jobs.Job) error {
	feedID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("feed sync job %s has payload %T, want string", job.ID, job.Payload)
	}
	result, err := s.SyncFeed(ctx, feedID)
	if err != nil {
		return err
	}
	if !result.Success {
		// Returning the failure lets the queue retry transport blips; the
		// recorded outcome already reflects this attempt.
		return errors.New(result.Error)
	}
	return nil
}

func (s *SyncService) logState(feed *models.FeedSubscription, state string) {
	s.logger.Sugar().Debugw("feed sync state", "feed_id", feed.ID, "state", state)
}
