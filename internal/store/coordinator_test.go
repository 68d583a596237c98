package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

type recordingWriter struct {
	mu      sync.Mutex
	written map[string]string // "<id>/<field>" -> value
	err     error
	block   chan struct{} // when set, WriteField waits until closed
}

func (w *recordingWriter) WriteField(ctx context.Context, requestID string, field Field, value string) error {
	if w.block != nil {
		<-w.block
	}
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = make(map[string]string)
	}
	w.written[requestID+"/"+string(field)] = value
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (n *recordingNotifier) Success(requestID string, field Field, value string) {
	n.mu.Lock()
	n.successes++
	n.mu.Unlock()
}

func (n *recordingNotifier) Failure(requestID string, field Field, err error) {
	n.mu.Lock()
	n.failures++
	n.mu.Unlock()
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.successes, n.failures
}

func loadedRequest() *models.SupportRequest {
	return &models.SupportRequest{
		ID:                 "req-1",
		Status:             models.StatusNew,
		VerificationStatus: models.VerificationUnverified,
		Priority:           models.PriorityMedium,
	}
}

func TestApplyConfirmsAndMerges(t *testing.T) {
	writer := &recordingWriter{}
	notifier := &recordingNotifier{}
	var refreshed []string
	coordinator := NewCoordinator(writer, notifier, func(id string) { refreshed = append(refreshed, id) })
	coordinator.Load(loadedRequest())

	require.NoError(t, coordinator.Apply(context.Background(), "req-1", FieldStatus, "in_progress"))

	value, ok := coordinator.CurrentValue("req-1", FieldStatus)
	require.True(t, ok)
	assert.Equal(t, "in_progress", value)
	assert.Equal(t, StateConfirmed, coordinator.LastOutcome("req-1", FieldStatus))
	assert.Equal(t, StateIdle, coordinator.EditState("req-1", FieldStatus))
	assert.Equal(t, []string{"req-1"}, refreshed)

	successes, failures := notifier.counts()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
}

func TestApplyRollsBackOnWriteFailure(t *testing.T) {
	writer := &recordingWriter{err: errors.New("persistence down")}
	notifier := &recordingNotifier{}
	refreshes := 0
	coordinator := NewCoordinator(writer, notifier, func(string) { refreshes++ })
	coordinator.Load(loadedRequest())

	err := coordinator.Apply(context.Background(), "req-1", FieldPriority, "high")
	require.Error(t, err)

	// Display reverts to the pre-attempt authoritative value.
	value, ok := coordinator.CurrentValue("req-1", FieldPriority)
	require.True(t, ok)
	assert.Equal(t, "medium", value)
	assert.Equal(t, StateRolledBack, coordinator.LastOutcome("req-1", FieldPriority))
	assert.Equal(t, StateIdle, coordinator.EditState("req-1", FieldPriority))
	assert.Error(t, coordinator.LastError("req-1", FieldPriority))
	assert.Zero(t, refreshes)

	// The failure notification fires exactly once.
	successes, failures := notifier.counts()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, failures)
}

func TestOverlayVisibleWhilePending(t *testing.T) {
	writer := &recordingWriter{block: make(chan struct{})}
	coordinator := NewCoordinator(writer, &recordingNotifier{}, nil)
	coordinator.Load(loadedRequest())

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Apply(context.Background(), "req-1", FieldStatus, "in_progress")
	}()

	require.Eventually(t, func() bool {
		return coordinator.EditState("req-1", FieldStatus) == StatePending
	}, time.Second, time.Millisecond)

	value, _ := coordinator.CurrentValue("req-1", FieldStatus)
	assert.Equal(t, "in_progress", value, "overlay value shown while write is in flight")

	close(writer.block)
	require.NoError(t, <-done)
}

func TestConcurrentEditToSameFieldRejected(t *testing.T) {
	writer := &recordingWriter{block: make(chan struct{})}
	coordinator := NewCoordinator(writer, &recordingNotifier{}, nil)
	coordinator.Load(loadedRequest())

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Apply(context.Background(), "req-1", FieldStatus, "in_progress")
	}()
	require.Eventually(t, func() bool {
		return coordinator.EditState("req-1", FieldStatus) == StatePending
	}, time.Second, time.Millisecond)

	err := coordinator.Apply(context.Background(), "req-1", FieldStatus, "completed")
	assert.ErrorIs(t, err, ErrEditInFlight)

	close(writer.block)
	require.NoError(t, <-done)
}

func TestEditsToDifferentFieldsAreIndependent(t *testing.T) {
	writer := &recordingWriter{block: make(chan struct{})}
	coordinator := NewCoordinator(writer, &recordingNotifier{}, nil)
	coordinator.Load(loadedRequest())

	statusDone := make(chan error, 1)
	go func() {
		statusDone <- coordinator.Apply(context.Background(), "req-1", FieldStatus, "in_progress")
	}()
	require.Eventually(t, func() bool {
		return coordinator.EditState("req-1", FieldStatus) == StatePending
	}, time.Second, time.Millisecond)

	priorityDone := make(chan error, 1)
	go func() {
		priorityDone <- coordinator.Apply(context.Background(), "req-1", FieldPriority, "high")
	}()
	require.Eventually(t, func() bool {
		return coordinator.EditState("req-1", FieldPriority) == StatePending
	}, time.Second, time.Millisecond)

	close(writer.block)
	require.NoError(t, <-statusDone)
	require.NoError(t, <-priorityDone)

	status, _ := coordinator.CurrentValue("req-1", FieldStatus)
	priority, _ := coordinator.CurrentValue("req-1", FieldPriority)
	assert.Equal(t, "in_progress", status)
	assert.Equal(t, "high", priority)
}

func TestApplyUnknownRequest(t *testing.T) {
	coordinator := NewCoordinator(&recordingWriter{}, &recordingNotifier{}, nil)

	err := coordinator.Apply(context.Background(), "req-missing", FieldStatus, "in_progress")
	assert.ErrorIs(t, err, ErrUnknownRequest)
}

type fakeReader struct {
	mu    sync.Mutex
	calls int
	data  []models.TimelineEntry
}

func (r *fakeReader) Timeline(ctx context.Context, requestID string) ([]models.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.data, nil
}

func TestTimelineCacheMemoizesUntilInvalidated(t *testing.T) {
	reader := &fakeReader{data: []models.TimelineEntry{{ID: "e-1", RequestID: "req-1"}}}
	cache := NewTimelineCache(reader)

	first, err := cache.Get(context.Background(), "req-1")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls)

	cache.Invalidate("req-1")
	_, err = cache.Get(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}
