package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

type recordedUpdate struct {
	id    string
	actor string
	field Field
	value string
}

type fakeClassificationService struct {
	updates []recordedUpdate
}

func (f *fakeClassificationService) UpdateStatus(ctx context.Context, id, actor string, status models.RequestStatus) (*models.SupportRequest, error) {
	f.updates = append(f.updates, recordedUpdate{id, actor, FieldStatus, string(status)})
	return &models.SupportRequest{ID: id, Status: status}, nil
}

func (f *fakeClassificationService) UpdateVerification(ctx context.Context, id, actor string, status models.VerificationStatus) (*models.SupportRequest, error) {
	f.updates = append(f.updates, recordedUpdate{id, actor, FieldVerification, string(status)})
	return &models.SupportRequest{ID: id, VerificationStatus: status}, nil
}

func (f *fakeClassificationService) UpdatePriority(ctx context.Context, id, actor string, priority models.PriorityLevel) (*models.SupportRequest, error) {
	f.updates = append(f.updates, recordedUpdate{id, actor, FieldPriority, string(priority)})
	return &models.SupportRequest{ID: id, Priority: priority}, nil
}

func TestServiceWriterRoutesFields(t *testing.T) {
	svc := &fakeClassificationService{}
	writer := NewServiceWriter(svc, "staff@arunalla.help")

	require.NoError(t, writer.WriteField(context.Background(), "req-1", FieldStatus, "in_progress"))
	require.NoError(t, writer.WriteField(context.Background(), "req-1", FieldVerification, "verified"))
	require.NoError(t, writer.WriteField(context.Background(), "req-1", FieldPriority, "high"))

	require.Equal(t, []recordedUpdate{
		{"req-1", "staff@arunalla.help", FieldStatus, "in_progress"},
		{"req-1", "staff@arunalla.help", FieldVerification, "verified"},
		{"req-1", "staff@arunalla.help", FieldPriority, "high"},
	}, svc.updates)
}

func TestServiceWriterRejectsUnknownField(t *testing.T) {
	writer := NewServiceWriter(&fakeClassificationService{}, "staff@arunalla.help")

	err := writer.WriteField(context.Background(), "req-1", Field("admin_notes"), "x")
	require.Error(t, err)
}
