package models

import "time"

// PeriodSource distinguishes how a blocked period came to exist.
const (
	PeriodSourceSynced = "synced"
	PeriodSourceManual = "manual"
)

// Sync status constants for feed subscriptions.
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// BlockedPeriod is a half-open day range [StartDay, EndDay) during which a
// property is unavailable. EndDay is the first available day after the
// block; EndDay > StartDay always holds for persisted rows.
type BlockedPeriod struct {
	ID         string      `db:"id" json:"id"`
	PropertyID string      `db:"property_id" json:"property_id"`
	FeedID     *string     `db:"feed_id" json:"feed_id,omitempty"`
	Source     string      `db:"source" json:"source"`
	StartDay   CalendarDay `db:"start_day" json:"start_day"`
	EndDay     CalendarDay `db:"end_day" json:"end_day"`
	UID        *string     `db:"uid" json:"uid,omitempty"`
	Summary    *string     `db:"summary" json:"summary,omitempty"`
	Note       *string     `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// Contains reports whether day falls inside [StartDay, EndDay).
func (p BlockedPeriod) Contains(day CalendarDay) bool {
	return !day.Before(p.StartDay) && day.Before(p.EndDay)
}

// ManualBlock is a host-declared blocked period independent of any feed.
// It is stored in the same table as synced periods but is individually
// addressable so hosts can delete single blocks.
type ManualBlock struct {
	ID         string      `db:"id" json:"id"`
	PropertyID string      `db:"property_id" json:"property_id"`
	StartDay   CalendarDay `db:"start_day" json:"start_day"`
	EndDay     CalendarDay `db:"end_day" json:"end_day"`
	Note       *string     `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// FeedSubscription ties one property to one published calendar feed on one
// booking platform.
type FeedSubscription struct {
	ID         string     `db:"id" json:"id"`
	PropertyID string     `db:"property_id" json:"property_id"`
	Platform   string     `db:"platform" json:"platform"`
	URL        string     `db:"url" json:"url"`
	Enabled    bool       `db:"enabled" json:"enabled"`
	SyncStatus string     `db:"sync_status" json:"sync_status"`
	SyncError  *string    `db:"sync_error" json:"sync_error,omitempty"`
	LastSyncAt *time.Time `db:"last_sync_at" json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// AvailablePeriod is a derived open day range [StartDay, EndDay) inside a
// query horizon. Never persisted.
type AvailablePeriod struct {
	StartDay CalendarDay `json:"start_day"`
	EndDay   CalendarDay `json:"end_day"`
}

// SyncResult reports the outcome of one feed sync.
type SyncResult struct {
	FeedID      string        `json:"feed_id"`
	Success     bool          `json:"success"`
	EventCount  int           `json:"event_count"`
	PeriodCount int           `json:"period_count"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"-"`
	SyncedAt    time.Time     `json:"synced_at"`
}
