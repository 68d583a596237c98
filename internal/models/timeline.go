package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimelineEventType tags the kind of activity a timeline entry records.
type TimelineEventType string

const (
	EventCreated            TimelineEventType = "created"
	EventStatusChange       TimelineEventType = "status_change"
	EventVerificationChange TimelineEventType = "verification_change"
	EventPriorityChange     TimelineEventType = "priority_change"
	EventComment            TimelineEventType = "comment"
	EventNote               TimelineEventType = "note"
)

// IsFieldChange reports whether the event records a before/after transition.
func (t TimelineEventType) IsFieldChange() bool {
	switch t {
	case EventStatusChange, EventVerificationChange, EventPriorityChange:
		return true
	}
	return false
}

// FieldChange is the structured payload carried by *_change entries.
// Comment and note entries carry their text in TimelineEntry.Comment and
// have a nil payload.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Value implements driver.Valuer so the payload persists as JSONB.
func (f FieldChange) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB columns.
func (f *FieldChange) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("unsupported field change source %T", src)
}

// TimelineEntry is one immutable audit record on a support request.
// Entries are append-only: no update or delete path exists anywhere in the
// codebase, and reads return them newest first.
type TimelineEntry struct {
	ID        string            `db:"id" json:"id"`
	Seq       int64             `db:"seq" json:"-"`
	RequestID string            `db:"request_id" json:"request_id"`
	EventType TimelineEventType `db:"event_type" json:"event_type"`
	EventData *FieldChange      `db:"event_data" json:"event_data,omitempty"`
	Comment   *string           `db:"comment" json:"comment,omitempty"`
	CreatedBy string            `db:"created_by" json:"created_by"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`

	// Description is derived from the entry (see Describe) when it is
	// served to the dashboard; it is never stored.
	Description string `db:"-" json:"description,omitempty"`
}

// Validate enforces the payload/event pairing: change events carry a
// complete FieldChange, comment and note events carry text, and created
// events carry neither.
func (e *TimelineEntry) Validate() error {
	switch {
	case e.RequestID == "":
		return fmt.Errorf("timeline entry requires a request id")
	case e.CreatedBy == "":
		return fmt.Errorf("timeline entry requires an actor")
	}
	switch e.EventType {
	case EventStatusChange, EventVerificationChange, EventPriorityChange:
		if e.EventData == nil || e.EventData.Field == "" || e.EventData.NewValue == "" {
			return fmt.Errorf("%s entry requires field change data", e.EventType)
		}
	case EventComment, EventNote:
		if e.Comment == nil || strings.TrimSpace(*e.Comment) == "" {
			return fmt.Errorf("%s entry requires text", e.EventType)
		}
	case EventCreated:
		// no payload
	default:
		return fmt.Errorf("unknown timeline event type %q", e.EventType)
	}
	return nil
}

// Describe renders a human-readable summary of the entry for dashboards
// and exports.
func (e *TimelineEntry) Describe() string {
	switch e.EventType {
	case EventCreated:
		return "Request submitted"
	case EventStatusChange:
		return fmt.Sprintf("Status changed from %q to %q", titleCase(e.EventData.OldValue), titleCase(e.EventData.NewValue))
	case EventVerificationChange:
		return fmt.Sprintf("Verification status changed from %q to %q", titleCase(e.EventData.OldValue), titleCase(e.EventData.NewValue))
	case EventPriorityChange:
		return fmt.Sprintf("Priority changed from %q to %q", titleCase(e.EventData.OldValue), titleCase(e.EventData.NewValue))
	case EventComment:
		if e.Comment != nil {
			return *e.Comment
		}
		return "Comment added"
	case EventNote:
		if e.Comment != nil {
			return *e.Comment
		}
		return "Note added"
	}
	return "Activity recorded"
}

func titleCase(value string) string {
	if value == "" {
		return "N/A"
	}
	words := strings.Split(value, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
