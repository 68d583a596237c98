package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
)

// timelineStore is the persistence surface the timeline service needs.
type timelineStore interface {
	Append(ctx context.Context, entry *models.TimelineEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]models.TimelineEntry, error)
}

// TimelineService owns the append-only audit history of support requests.
// All writes funnel through here so every classification change, comment,
// and note lands in the same table with the same shape.
type TimelineService struct {
	entries timelineStore
	logger  *zap.Logger
}

// NewTimelineService constructs the service.
func NewTimelineService(entries timelineStore, logger *zap.Logger) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{entries: entries, logger: logger}
}

// RecordCreated writes the submission entry for a brand-new request.
func (s *TimelineService) RecordCreated(ctx context.Context, requestID, actor string) error {
	entry := &models.TimelineEntry{
		RequestID: requestID,
		EventType: models.EventCreated,
		CreatedBy: actor,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record request creation")
	}
	return nil
}

// TrackStatusChange records a status transition.
func (s *TimelineService) TrackStatusChange(ctx context.Context, requestID, actor string, oldValue, newValue models.RequestStatus) error {
	return s.track(ctx, requestID, actor, models.EventStatusChange, "status", string(oldValue), string(newValue))
}

// TrackVerificationChange records a verification transition.
func (s *TimelineService) TrackVerificationChange(ctx context.Context, requestID, actor string, oldValue, newValue models.VerificationStatus) error {
	return s.track(ctx, requestID, actor, models.EventVerificationChange, "verification_status", string(oldValue), string(newValue))
}

// TrackPriorityChange records a priority transition.
func (s *TimelineService) TrackPriorityChange(ctx context.Context, requestID, actor string, oldValue, newValue models.PriorityLevel) error {
	return s.track(ctx, requestID, actor, models.EventPriorityChange, "priority", string(oldValue), string(newValue))
}

// The three trackers differ only in event type and field name; everything
// else is shared here.
func (s *TimelineService) track(ctx context.Context, requestID, actor string, eventType models.TimelineEventType, field, oldValue, newValue string) error {
	entry := &models.TimelineEntry{
		RequestID: requestID,
		EventType: eventType,
		EventData: &models.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue},
		CreatedBy: actor,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record "+field+" change")
	}
	return nil
}

// AddComment appends a staff comment to the request history.
func (s *TimelineService) AddComment(ctx context.Context, requestID, actor, text string) (*models.TimelineEntry, error) {
	return s.addText(ctx, requestID, actor, text, models.EventComment)
}

// AddNote records that the admin notes were edited, keeping the note text
// in the history alongside the editable field.
func (s *TimelineService) AddNote(ctx context.Context, requestID, actor, text string) (*models.TimelineEntry, error) {
	return s.addText(ctx, requestID, actor, text, models.EventNote)
}

func (s *TimelineService) addText(ctx context.Context, requestID, actor, text string, eventType models.TimelineEventType) (*models.TimelineEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment text is required")
	}
	entry := &models.TimelineEntry{
		RequestID: requestID,
		EventType: eventType,
		Comment:   &text,
		CreatedBy: actor,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record comment")
	}
	entry.Description = entry.Describe()
	return entry, nil
}

// Timeline returns the full history for a request, newest first, with the
// display description filled in for each entry.
func (s *TimelineService) Timeline(ctx context.Context, requestID string) ([]models.TimelineEntry, error) {
	entries, err := s.entries.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load request timeline")
	}
	for i := range entries {
		entries[i].Description = entries[i].Describe()
	}
	return entries, nil
}
