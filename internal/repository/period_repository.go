package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hostlens/calendar-api/internal/models"
)

// PeriodRepository persists blocked periods, both feed-synced and manual.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ReplaceSyncedPeriods swaps the entire synced set for one feed inside a
// single transaction (delete then insert), so a concurrent reader never
// observes a half-replaced set. Manual periods are untouched.
func (r *PeriodRepository) ReplaceSyncedPeriods(ctx context.Context, feedID string, periods []models.BlockedPeriod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace synced periods: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM blocked_periods WHERE feed_id = $1 AND source = $2",
		feedID, models.PeriodSourceSynced,
	); err != nil {
		return fmt.Errorf("clear synced periods: %w", err)
	}

	const insert = `INSERT INTO blocked_periods (id, property_id, feed_id, source, start_day, end_day, uid, summary, note, created_at)
VALUES (:id, :property_id, :feed_id, :source, :start_day, :end_day, :uid, :summary, :note, :created_at)`
	now := time.Now().UTC()
	for i := range periods {
		p := periods[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, p); err != nil {
			return fmt.Errorf("insert synced period: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace synced periods: %w", err)
	}
	return nil
}

// ListByProperty returns every blocked period (synced and manual) for a
// property, ordered by start day.
func (r *PeriodRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.BlockedPeriod, error) {
	const query = `SELECT id, property_id, feed_id, source, start_day, end_day, uid, summary, note, created_at
FROM blocked_periods WHERE property_id = $1 ORDER BY start_day ASC, end_day ASC`
	var periods []models.BlockedPeriod
	if err := r.db.SelectContext(ctx, &periods, query, propertyID); err != nil {
		return nil, fmt.Errorf("list blocked periods: %w", err)
	}
	return periods, nil
}

// ListSyncedByFeed returns the currently persisted synced set for a feed.
func (r *PeriodRepository) ListSyncedByFeed(ctx context.Context, feedID string) ([]models.BlockedPeriod, error) {
	const query = `SELECT id, property_id, feed_id, source, start_day, end_day, uid, summary, note, created_at
FROM blocked_periods WHERE feed_id = $1 AND source = $2 ORDER BY start_day ASC`
	var periods []models.BlockedPeriod
	if err := r.db.SelectContext(ctx, &periods, query, feedID, models.PeriodSourceSynced); err != nil {
		return nil, fmt.Errorf("list synced periods: %w", err)
	}
	return periods, nil
}

// CreateManualBlock inserts a host-declared blocked period.
func (r *PeriodRepository) CreateManualBlock(ctx context.Context, block *models.ManualBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO blocked_periods (id, property_id, source, start_day, end_day, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		block.ID, block.PropertyID, models.PeriodSourceManual,
		block.StartDay, block.EndDay, block.Note, block.CreatedAt,
	); err != nil {
		return fmt.Errorf("create manual block: %w", err)
	}
	return nil
}

// ListManualBlocks returns a property's manual blocks sorted by start day.
func (r *PeriodRepository) ListManualBlocks(ctx context.Context, propertyID string) ([]models.ManualBlock, error) {
	const query = `SELECT id, property_id, start_day, end_day, note, created_at
FROM blocked_periods WHERE property_id = $1 AND source = $2 ORDER BY start_day ASC`
	var blocks []models.ManualBlock
	if err := r.db.SelectContext(ctx, &blocks, query, propertyID, models.PeriodSourceManual); err != nil {
		return nil, fmt.Errorf("list manual blocks: %w", err)
	}
	return blocks, nil
}

// DeleteManualBlock removes one manual block by id. Returns sql.ErrNoRows
// when nothing matched so callers can surface a 404.
func (r *PeriodRepository) DeleteManualBlock(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM blocked_periods WHERE id = $1 AND source = $2",
		id, models.PeriodSourceManual,
	)
	if err != nil {
		return fmt.Errorf("delete manual block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete manual block: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
