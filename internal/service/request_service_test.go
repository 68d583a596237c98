package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/models"
)

type fakeRequestStore struct {
	requests map[string]*models.SupportRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]*models.SupportRequest)}
}

func (f *fakeRequestStore) Create(ctx context.Context, request *models.SupportRequest) error {
	if request.ID == "" {
		request.ID = "req-" + request.ReferenceCode
	}
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeRequestStore) GetByID(ctx context.Context, id string) (*models.SupportRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestStore) List(ctx context.Context, filter models.RequestFilter) ([]models.SupportRequest, *models.Pagination, error) {
	out := make([]models.SupportRequest, 0, len(f.requests))
	for _, request := range f.requests {
		out = append(out, *request)
	}
	return out, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(out)}, nil
}

func (f *fakeRequestStore) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	request, ok := f.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.Status = status
	return nil
}

func (f *fakeRequestStore) UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) error {
	request, ok := f.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.VerificationStatus = status
	return nil
}

func (f *fakeRequestStore) UpdatePriority(ctx context.Context, id string, priority models.PriorityLevel) error {
	request, ok := f.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.Priority = priority
	return nil
}

func (f *fakeRequestStore) UpdateAdminNotes(ctx context.Context, id string, notes string) error {
	request, ok := f.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.AdminNotes = &notes
	return nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("miss")
}
func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (noopCache) Invalidate(ctx context.Context, pattern string) {}

func newRequestServiceForTest(store *fakeRequestStore, timelineStore *fakeTimelineStore) *RequestService {
	timeline := NewTimelineService(timelineStore, zap.NewNop())
	return NewRequestService(store, timeline, noopCache{}, nil, RequestServiceConfig{ReferencePrefix: "FLD"}, zap.NewNop())
}

func submitPayload() dto.SubmitRequestPayload {
	return dto.SubmitRequestPayload{
		Name:              "Nimal Perera",
		BirthYear:         "2009",
		District:          "Gampaha",
		Phone:             "0771234567",
		Grade:             "O/L (Ordinary Level)",
		ExamYear:          "2026",
		Subjects:          "Maths, Science",
		FloodImpactTypes:  []string{"lost_materials", "displaced"},
		FloodImpactDetail: "House flooded, school books destroyed",
		SupportNeeded:     []string{"past_papers"},
	}
}

func TestSubmitAssignsReferenceAndRecordsCreation(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^FLD-\d{4}-\d{5}$`), result.ReferenceCode)

	saved, err := store.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, saved.Status)
	assert.Equal(t, models.VerificationUnverified, saved.VerificationStatus)
	assert.Equal(t, models.PriorityMedium, saved.Priority)
	assert.Contains(t, saved.FloodImpact, "Types: lost_materials, displaced")
	assert.Contains(t, saved.FloodImpact, "Details: House flooded")

	require.Len(t, timelineStore.entries, 1)
	assert.Equal(t, models.EventCreated, timelineStore.entries[0].EventType)
	assert.Equal(t, SystemActor, timelineStore.entries[0].CreatedBy)
}

func TestUpdateStatusRecordsTransition(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), result.ID, "admin@x.com", models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	require.Len(t, timelineStore.entries, 2)
	change := timelineStore.entries[1]
	assert.Equal(t, models.EventStatusChange, change.EventType)
	assert.Equal(t, "admin@x.com", change.CreatedBy)
	assert.Equal(t, "new", change.EventData.OldValue)
	assert.Equal(t, "in_progress", change.EventData.NewValue)
}

func TestUpdateStatusKeepsFieldWhenTimelineFails(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	// The field update is authoritative: a timeline failure is logged,
	// not surfaced, and the status stays changed.
	timelineStore.appendErr = errors.New("timeline down")
	updated, err := svc.UpdateStatus(context.Background(), result.ID, "admin@x.com", models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	saved, err := store.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, saved.Status)
	assert.Len(t, timelineStore.entries, 1) // only the created entry
}

func TestTimelineCountersFollowAppendOutcome(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	timeline := NewTimelineService(timelineStore, zap.NewNop())
	metrics := NewMetricsService()
	svc := NewRequestService(store, timeline, noopCache{}, metrics, RequestServiceConfig{ReferencePrefix: "FLD"}, zap.NewNop())

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timelineWrites.WithLabelValues("created")))

	_, err = svc.UpdateStatus(context.Background(), result.ID, "admin@x.com", models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timelineWrites.WithLabelValues("status_change")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.timelineErrors))

	// The field update still succeeds when the append is lost; only the
	// failure counter must move, never the write counter.
	timelineStore.appendErr = errors.New("timeline down")
	updated, err := svc.UpdateStatus(context.Background(), result.ID, "admin@x.com", models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timelineWrites.WithLabelValues("status_change")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timelineErrors))
}

func TestUpdateStatusNoOpWhenUnchanged(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), result.ID, "admin@x.com", models.StatusNew)
	require.NoError(t, err)
	assert.Len(t, timelineStore.entries, 1)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := newRequestServiceForTest(newFakeRequestStore(), &fakeTimelineStore{})

	_, err := svc.UpdateStatus(context.Background(), "req-1", "admin@x.com", models.RequestStatus("archived"))
	require.Error(t, err)
}

func TestUpdatePriorityRecordsTransition(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	updated, err := svc.UpdatePriority(context.Background(), result.ID, "admin@x.com", models.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, updated.Priority)

	change := timelineStore.entries[len(timelineStore.entries)-1]
	assert.Equal(t, models.EventPriorityChange, change.EventType)
	assert.Equal(t, "medium", change.EventData.OldValue)
	assert.Equal(t, "high", change.EventData.NewValue)
}

func TestUpdateAdminNotesRecordsNote(t *testing.T) {
	store := newFakeRequestStore()
	timelineStore := &fakeTimelineStore{}
	svc := newRequestServiceForTest(store, timelineStore)

	result, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	updated, err := svc.UpdateAdminNotes(context.Background(), result.ID, "admin@x.com", "Verified by phone")
	require.NoError(t, err)
	require.NotNil(t, updated.AdminNotes)

	note := timelineStore.entries[len(timelineStore.entries)-1]
	assert.Equal(t, models.EventNote, note.EventType)
	require.NotNil(t, note.Comment)
	assert.Equal(t, "Verified by phone", *note.Comment)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	svc := newRequestServiceForTest(newFakeRequestStore(), &fakeTimelineStore{})

	_, err := svc.List(context.Background(), dto.RequestQuery{Status: "archived"})
	require.Error(t, err)
}

func TestExportCSVIncludesRows(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestServiceForTest(store, &fakeTimelineStore{})

	_, err := svc.Submit(context.Background(), submitPayload())
	require.NoError(t, err)

	data, filename, contentType, err := svc.Export(context.Background(), dto.RequestQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, filename, ".csv")
	assert.Contains(t, string(data), "Nimal Perera")
}
