package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arunalla/relief-intake-api/internal/models"
)

// TimelineRepository persists the append-only audit log for support
// requests. The table has no UPDATE or DELETE path; the seq column is a
// bigserial so that entries created within the same millisecond keep a
// stable insertion order.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository constructs the repository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Append inserts a new timeline entry. The insert is a single statement,
// so the entry is visible either fully populated or not at all.
func (r *TimelineRepository) Append(ctx context.Context, entry *models.TimelineEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO request_timeline
	(id, request_id, event_type, event_data, comment, created_by, created_at)
	VALUES (:id, :request_id, :event_type, :event_data, :comment, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append timeline entry: %w", err)
	}
	return nil
}

// ListByRequest returns the full history for a request, newest first.
// A request with no entries yields an empty slice, not an error.
func (r *TimelineRepository) ListByRequest(ctx context.Context, requestID string) ([]models.TimelineEntry, error) {
	const query = `SELECT id, seq, request_id, event_type, event_data, comment, created_by, created_at
	FROM request_timeline
	WHERE request_id = $1
	ORDER BY created_at DESC, seq DESC`
	entries := make([]models.TimelineEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("list timeline entries: %w", err)
	}
	return entries, nil
}
