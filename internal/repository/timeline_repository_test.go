package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimelineRepositoryAppendFieldChange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_timeline")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.TimelineEntry{
		RequestID: "req-1",
		EventType: models.EventStatusChange,
		EventData: &models.FieldChange{Field: "status", OldValue: "new", NewValue: "in_progress"},
		CreatedBy: "a@x.com",
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryAppendRejectsInvalidEntries(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)

	// change entry without payload
	err := repo.Append(context.Background(), &models.TimelineEntry{
		RequestID: "req-1",
		EventType: models.EventPriorityChange,
		CreatedBy: "a@x.com",
	})
	require.Error(t, err)

	// comment entry without text
	err = repo.Append(context.Background(), &models.TimelineEntry{
		RequestID: "req-1",
		EventType: models.EventComment,
		CreatedBy: "a@x.com",
	})
	require.Error(t, err)
}

func TestTimelineRepositoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	now := time.Now().UTC()
	comment := "Called family"
	rows := sqlmock.NewRows([]string{"id", "seq", "request_id", "event_type", "event_data", "comment", "created_by", "created_at"}).
		AddRow("e-2", 2, "req-1", "comment", nil, comment, "b@x.com", now).
		AddRow("e-1", 1, "req-1", "status_change", []byte(`{"field":"status","old_value":"new","new_value":"in_progress"}`), nil, "a@x.com", now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, seq, request_id, event_type, event_data, comment, created_by, created_at")).
		WithArgs("req-1").
		WillReturnRows(rows)

	entries, err := repo.ListByRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "e-2", entries[0].ID)
	require.Equal(t, models.EventComment, entries[0].EventType)
	require.NotNil(t, entries[1].EventData)
	require.Equal(t, "in_progress", entries[1].EventData.NewValue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryListBreaksTimestampTiesBySeq(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	// Two entries written within the same timestamp: the higher seq was
	// inserted later and must come out first.
	now := time.Now().UTC().Truncate(time.Millisecond)
	rows := sqlmock.NewRows([]string{"id", "seq", "request_id", "event_type", "event_data", "comment", "created_by", "created_at"}).
		AddRow("e-2", 2, "req-1", "verification_change", []byte(`{"field":"verification_status","old_value":"unverified","new_value":"pending"}`), nil, "a@x.com", now).
		AddRow("e-1", 1, "req-1", "status_change", []byte(`{"field":"status","old_value":"new","new_value":"in_progress"}`), nil, "a@x.com", now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, seq DESC")).
		WithArgs("req-1").
		WillReturnRows(rows)

	entries, err := repo.ListByRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entries[0].CreatedAt, entries[1].CreatedAt)
	require.Equal(t, int64(2), entries[0].Seq)
	require.Equal(t, int64(1), entries[1].Seq)
	require.Equal(t, models.EventVerificationChange, entries[0].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryListEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	rows := sqlmock.NewRows([]string{"id", "seq", "request_id", "event_type", "event_data", "comment", "created_by", "created_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, seq, request_id")).
		WithArgs("req-none").
		WillReturnRows(rows)

	entries, err := repo.ListByRequest(context.Background(), "req-none")
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
