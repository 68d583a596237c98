package models

import (
	"time"

	"github.com/lib/pq"
)

// RequestStatus tracks where a support request sits in the triage workflow.
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
)

// Valid reports whether the status is one of the known workflow states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// VerificationStatus tracks staff verification of an applicant.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
)

// Valid reports whether the verification status is a known value.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified:
		return true
	}
	return false
}

// PriorityLevel ranks a request for staff attention.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// Valid reports whether the priority is a known level.
func (p PriorityLevel) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// SupportRequest is a submitted education-support case tied to an applicant.
// The three classification fields (status, verification_status, priority)
// are mutated only by staff action; every change is mirrored into the
// request timeline.
type SupportRequest struct {
	ID                 string             `db:"id" json:"id"`
	ReferenceCode      string             `db:"reference_code" json:"reference_code"`
	Name               string             `db:"name" json:"name"`
	BirthYear          string             `db:"birth_year" json:"birth_year"`
	District           string             `db:"district" json:"district"`
	NearestTown        *string            `db:"nearest_town" json:"nearest_town,omitempty"`
	Phone              string             `db:"phone" json:"phone"`
	Email              *string            `db:"email" json:"email,omitempty"`
	Grade              string             `db:"grade" json:"grade"`
	ExamYear           string             `db:"exam_year" json:"exam_year"`
	Subjects           string             `db:"subjects" json:"subjects"`
	FloodImpact        string             `db:"flood_impact" json:"flood_impact"`
	SupportNeeded      pq.StringArray     `db:"support_needed" json:"support_needed"`
	Status             RequestStatus      `db:"status" json:"status"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
	Priority           PriorityLevel      `db:"priority" json:"priority"`
	AdminNotes         *string            `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

// RequestFilter captures dashboard listing criteria.
type RequestFilter struct {
	District     string
	Status       RequestStatus
	Verification VerificationStatus
	Priority     PriorityLevel
	Search       string
	Page         int
	PageSize     int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
