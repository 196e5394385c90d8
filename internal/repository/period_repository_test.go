package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlens/calendar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func mustDay(t *testing.T, raw string) models.CalendarDay {
	t.Helper()
	d, err := models.ParseDay(raw)
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string { return &s }

func TestReplaceSyncedPeriodsDeleteThenInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	feedID := "feed-1"
	periods := []models.BlockedPeriod{
		{
			PropertyID: "prop-1",
			FeedID:     &feedID,
			Source:     models.PeriodSourceSynced,
			StartDay:   mustDay(t, "2026-01-10"),
			EndDay:     mustDay(t, "2026-01-15"),
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_periods WHERE feed_id = $1 AND source = $2")).
		WithArgs(feedID, models.PeriodSourceSynced).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocked_periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceSyncedPeriods(context.Background(), feedID, periods)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSyncedPeriodsEmptySetClears(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_periods")).
		WithArgs("feed-1", models.PeriodSourceSynced).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceSyncedPeriods(context.Background(), "feed-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSyncedPeriodsRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	feedID := "feed-1"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_periods")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocked_periods")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplaceSyncedPeriods(context.Background(), feedID, []models.BlockedPeriod{
		{FeedID: &feedID, StartDay: mustDay(t, "2026-01-10"), EndDay: mustDay(t, "2026-01-12")},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByProperty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	rows := sqlmock.NewRows([]string{"id", "property_id", "feed_id", "source", "start_day", "end_day", "uid", "summary", "note", "created_at"}).
		AddRow("p-1", "prop-1", strPtr("feed-1"), "synced", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), strPtr("u-1"), strPtr("Reserved"), nil, time.Now()).
		AddRow("p-2", "prop-1", nil, "manual", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), nil, nil, strPtr("painting"), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, property_id, feed_id, source, start_day, end_day, uid, summary, note, created_at")).
		WithArgs("prop-1").
		WillReturnRows(rows)

	periods, err := repo.ListByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2026-01-10", periods[0].StartDay.String())
	assert.Equal(t, models.PeriodSourceSynced, periods[0].Source)
	assert.Equal(t, models.PeriodSourceManual, periods[1].Source)
	require.NotNil(t, periods[1].Note)
	assert.Equal(t, "painting", *periods[1].Note)
}

func TestCreateManualBlock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocked_periods")).
		WithArgs(sqlmock.AnyArg(), "prop-1", models.PeriodSourceManual, sqlmock.AnyArg(), sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	block := &models.ManualBlock{
		PropertyID: "prop-1",
		StartDay:   mustDay(t, "2026-03-01"),
		EndDay:     mustDay(t, "2026-03-05"),
	}
	require.NoError(t, repo.CreateManualBlock(context.Background(), block))
	assert.NotEmpty(t, block.ID)
	assert.False(t, block.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteManualBlockNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_periods WHERE id = $1 AND source = $2")).
		WithArgs("missing", models.PeriodSourceManual).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteManualBlock(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteManualBlockDeletes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_periods WHERE id = $1 AND source = $2")).
		WithArgs("p-1", models.PeriodSourceManual).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteManualBlock(context.Background(), "p-1"))
}
