// Package store holds the dashboard-facing state container: an optimistic
// update coordinator that applies speculative classification changes over
// the last-known authoritative record, and a timeline view cache refreshed
// when a change is confirmed. The container is injectable, never ambient:
// the embedding client (a dashboard gateway, a desktop frontend, a test)
// constructs one Coordinator per staff session and owns its lifetime.
// Typical wiring, with svc a *service.RequestService and timeline a
// *service.TimelineService:
//
//	cache := store.NewTimelineCache(timeline)
//	coord := store.NewCoordinator(
//		store.NewServiceWriter(svc, claims.Email),
//		notifier,
//		cache.Invalidate,
//	)
//	coord.Load(request)
//	err := coord.Apply(ctx, request.ID, store.FieldStatus, "in_progress")
//
// The HTTP API itself stays stateless; nothing here is referenced by the
// server bootstrap.
package store

import (
	"context"
	"sync"

	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
)

// Field names a classification field that supports optimistic edits.
type Field string

const (
	FieldStatus       Field = "status"
	FieldVerification Field = "verification_status"
	FieldPriority     Field = "priority"
)

// State is the per-(request, field) edit state. CONFIRMED and ROLLED_BACK
// are terminal outcomes reported via LastOutcome; EditState itself only
// ever observes IDLE or PENDING.
type State string

const (
	StateIdle       State = "IDLE"
	StatePending    State = "PENDING"
	StateConfirmed  State = "CONFIRMED"
	StateRolledBack State = "ROLLED_BACK"
)

// Writer performs the authoritative field write.
type Writer interface {
	WriteField(ctx context.Context, requestID string, field Field, value string) error
}

// Notifier receives exactly one outcome notification per applied edit.
type Notifier interface {
	Success(requestID string, field Field, value string)
	Failure(requestID string, field Field, err error)
}

// RefreshFunc is called after a confirmed write so the caller can re-fetch
// the request timeline and show the newly appended change entry.
type RefreshFunc func(requestID string)

// Edit errors.
var (
	ErrUnknownRequest = appErrors.Clone(appErrors.ErrNotFound, "request not loaded")
	// A second edit to the same (request, field) while the first is
	// still pending is rejected rather than left racing: a rollback of
	// the first edit must restore a single well-defined value.
	ErrEditInFlight = appErrors.Clone(appErrors.ErrConflict, "another edit to this field is still pending")
)

type editKey struct {
	requestID string
	field     Field
}

// Coordinator applies optimistic field changes. The speculative overlay is
// layered over the authoritative snapshot, never written into it: a read
// of the current display value is the authoritative value with the overlay
// applied if one exists. Every edit is reconciled exactly once.
type Coordinator struct {
	mu            sync.Mutex
	authoritative map[string]map[Field]string
	overlay       map[editKey]string
	pending       map[editKey]bool
	lastOutcome   map[editKey]State
	lastErr       map[editKey]error

	writer   Writer
	notifier Notifier
	refresh  RefreshFunc
}

// NewCoordinator constructs an empty coordinator.
func NewCoordinator(writer Writer, notifier Notifier, refresh RefreshFunc) *Coordinator {
	return &Coordinator{
		authoritative: make(map[string]map[Field]string),
		overlay:       make(map[editKey]string),
		pending:       make(map[editKey]bool),
		lastOutcome:   make(map[editKey]State),
		lastErr:       make(map[editKey]error),
		writer:        writer,
		notifier:      notifier,
		refresh:       refresh,
	}
}

// Load seeds (or replaces) the authoritative snapshot of a request's
// classification fields.
func (c *Coordinator) Load(request *models.SupportRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative[request.ID] = map[Field]string{
		FieldStatus:       string(request.Status),
		FieldVerification: string(request.VerificationStatus),
		FieldPriority:     string(request.Priority),
	}
}

// CurrentValue returns the display value for a field: the pending overlay
// value when an edit is in flight, the authoritative value otherwise.
func (c *Coordinator) CurrentValue(requestID string, field Field) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, ok := c.overlay[editKey{requestID, field}]; ok {
		return value, true
	}
	fields, ok := c.authoritative[requestID]
	if !ok {
		return "", false
	}
	value, ok := fields[field]
	return value, ok
}

// EditState reports whether an edit to the field is in flight.
func (c *Coordinator) EditState(requestID string, field Field) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[editKey{requestID, field}] {
		return StatePending
	}
	return StateIdle
}

// LastOutcome returns the terminal state of the most recent completed edit
// to the field, or IDLE if none has completed.
func (c *Coordinator) LastOutcome(requestID string, field Field) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if outcome, ok := c.lastOutcome[editKey{requestID, field}]; ok {
		return outcome
	}
	return StateIdle
}

// LastError returns the error recorded by the most recent rolled-back edit
// to the field, if any.
func (c *Coordinator) LastError(requestID string, field Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr[editKey{requestID, field}]
}

// Apply runs one optimistic edit end to end: overlay the new value, issue
// the authoritative write, then confirm (merge, refresh, notify success)
// or roll back (discard overlay, record error, notify failure). The
// pending marker is always cleared, whatever the outcome. Edits to
// different fields of the same request proceed independently; a concurrent
// edit to the same field is rejected with ErrEditInFlight.
func (c *Coordinator) Apply(ctx context.Context, requestID string, field Field, newValue string) error {
	key := editKey{requestID, field}

	c.mu.Lock()
	if _, ok := c.authoritative[requestID]; !ok {
		c.mu.Unlock()
		return ErrUnknownRequest
	}
	if c.pending[key] {
		c.mu.Unlock()
		return ErrEditInFlight
	}
	c.pending[key] = true
	c.overlay[key] = newValue
	c.mu.Unlock()

	// The lock is not held across the write: edits to other fields and
	// other requests stay concurrent.
	err := c.writer.WriteField(ctx, requestID, field, newValue)

	c.mu.Lock()
	delete(c.overlay, key)
	delete(c.pending, key)
	if err == nil {
		c.authoritative[requestID][field] = newValue
		c.lastOutcome[key] = StateConfirmed
		delete(c.lastErr, key)
	} else {
		// Discarding the overlay reverts the display to the last
		// authoritative value; no entry for this attempt exists
		// anywhere.
		c.lastOutcome[key] = StateRolledBack
		c.lastErr[key] = err
	}
	c.mu.Unlock()

	if err == nil {
		if c.refresh != nil {
			c.refresh(requestID)
		}
		if c.notifier != nil {
			c.notifier.Success(requestID, field, newValue)
		}
		return nil
	}
	if c.notifier != nil {
		c.notifier.Failure(requestID, field, err)
	}
	return err
}
