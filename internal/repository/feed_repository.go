package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hostlens/calendar-api/internal/models"
)

// FeedRepository persists calendar feed subscriptions.
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository constructs a feed repository.
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

const feedColumns = "id, property_id, platform, url, enabled, sync_status, sync_error, last_sync_at, created_at, updated_at"

// GetByID fetches a single subscription.
func (r *FeedRepository) GetByID(ctx context.Context, id string) (*models.FeedSubscription, error) {
	query := fmt.Sprintf("SELECT %s FROM feed_subscriptions WHERE id = $1", feedColumns)
	var feed models.FeedSubscription
	if err := r.db.GetContext(ctx, &feed, query, id); err != nil {
		return nil, err
	}
	return &feed, nil
}

// ListByProperty returns a property's subscriptions.
func (r *FeedRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.FeedSubscription, error) {
	query := fmt.Sprintf("SELECT %s FROM feed_subscriptions WHERE property_id = $1 ORDER BY created_at ASC", feedColumns)
	var feeds []models.FeedSubscription
	if err := r.db.SelectContext(ctx, &feeds, query, propertyID); err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return feeds, nil
}

// ListEnabled returns every enabled subscription, for the sweep.
func (r *FeedRepository) ListEnabled(ctx context.Context) ([]models.FeedSubscription, error) {
	query := fmt.Sprintf("SELECT %s FROM feed_subscriptions WHERE enabled ORDER BY created_at ASC", feedColumns)
	var feeds []models.FeedSubscription
	if err := r.db.SelectContext(ctx, &feeds, query); err != nil {
		return nil, fmt.Errorf("list enabled feeds: %w", err)
	}
	return feeds, nil
}

// Create inserts a subscription.
func (r *FeedRepository) Create(ctx context.Context, feed *models.FeedSubscription) error {
	if feed.ID == "" {
		feed.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if feed.CreatedAt.IsZero() {
		feed.CreatedAt = now
	}
	feed.UpdatedAt = now
	if feed.SyncStatus == "" {
		feed.SyncStatus = models.SyncStatusPending
	}
	const query = `INSERT INTO feed_subscriptions (id, property_id, platform, url, enabled, sync_status, sync_error, last_sync_at, created_at, updated_at)
VALUES (:id, :property_id, :platform, :url, :enabled, :sync_status, :sync_error, :last_sync_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feed); err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	return nil
}

// Delete removes a subscription; its synced periods go with it via the
// foreign key cascade.
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM feed_subscriptions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return nil
}

// MarkSyncing flags a subscription as mid-sync.
func (r *FeedRepository) MarkSyncing(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE feed_subscriptions SET sync_status = $1, updated_at = $2 WHERE id = $3",
		models.SyncStatusSyncing, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("mark feed syncing: %w", err)
	}
	return nil
}

// RecordSyncOutcome stores the terminal status of a sync attempt. syncErr
// is nil on success and the failure reason otherwise.
func (r *FeedRepository) RecordSyncOutcome(ctx context.Context, id string, status string, syncErr *string) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE feed_subscriptions SET sync_status = $1, sync_error = $2, last_sync_at = $3, updated_at = $3 WHERE id = $4",
		status, syncErr, now, id,
	); err != nil {
		return fmt.Errorf("record sync outcome: %w", err)
	}
	return nil
}
