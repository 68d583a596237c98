package store

import (
	"context"

	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
)

// classificationService is the slice of the request service the writer
// needs: the three audited field updates.
type classificationService interface {
	UpdateStatus(ctx context.Context, id, actor string, status models.RequestStatus) (*models.SupportRequest, error)
	UpdateVerification(ctx context.Context, id, actor string, status models.VerificationStatus) (*models.SupportRequest, error)
	UpdatePriority(ctx context.Context, id, actor string, priority models.PriorityLevel) (*models.SupportRequest, error)
}

// ServiceWriter adapts the request service to the coordinator's Writer,
// routing each field to its audited update operation under a fixed actor.
type ServiceWriter struct {
	requests classificationService
	actor    string
}

// NewServiceWriter builds a writer acting on behalf of the given staff user.
func NewServiceWriter(requests classificationService, actor string) *ServiceWriter {
	return &ServiceWriter{requests: requests, actor: actor}
}

// WriteField issues the authoritative update for one classification field.
func (w *ServiceWriter) WriteField(ctx context.Context, requestID string, field Field, value string) error {
	switch field {
	case FieldStatus:
		_, err := w.requests.UpdateStatus(ctx, requestID, w.actor, models.RequestStatus(value))
		return err
	case FieldVerification:
		_, err := w.requests.UpdateVerification(ctx, requestID, w.actor, models.VerificationStatus(value))
		return err
	case FieldPriority:
		_, err := w.requests.UpdatePriority(ctx, requestID, w.actor, models.PriorityLevel(value))
		return err
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown classification field")
	}
}
