package dto

import "github.com/arunalla/relief-intake-api/internal/models"

// SubmitRequestPayload is the public intake form for a support request.
type SubmitRequestPayload struct {
	Name              string   `json:"name" binding:"required"`
	BirthYear         string   `json:"birth_year" binding:"required"`
	District          string   `json:"district" binding:"required"`
	NearestTown       string   `json:"nearest_town"`
	Phone             string   `json:"phone" binding:"required"`
	Email             string   `json:"email" binding:"omitempty,email"`
	Grade             string   `json:"grade" binding:"required"`
	ExamYear          string   `json:"exam_year" binding:"required"`
	Subjects          string   `json:"subjects" binding:"required"`
	FloodImpactTypes  []string `json:"flood_impact_types" binding:"required,min=1"`
	FloodImpactDetail string   `json:"flood_impact_details" binding:"required"`
	OtherSituations   string   `json:"other_situations"`
	SupportNeeded     []string `json:"support_needed" binding:"required,min=1"`
}

// SubmitRequestResult returns the applicant-facing reference code.
type SubmitRequestResult struct {
	ID            string `json:"id"`
	ReferenceCode string `json:"reference_code"`
}

// UpdateStatusPayload changes the triage status of a request.
type UpdateStatusPayload struct {
	Status models.RequestStatus `json:"status" binding:"required"`
}

// UpdateVerificationPayload changes the verification status of a request.
type UpdateVerificationPayload struct {
	VerificationStatus models.VerificationStatus `json:"verification_status" binding:"required"`
}

// UpdatePriorityPayload changes the priority of a request.
type UpdatePriorityPayload struct {
	Priority models.PriorityLevel `json:"priority" binding:"required"`
}

// UpdateNotesPayload replaces the free-text admin notes.
type UpdateNotesPayload struct {
	AdminNotes string `json:"admin_notes"`
}

// AddCommentPayload appends a comment to the request timeline.
type AddCommentPayload struct {
	Comment string `json:"comment" binding:"required"`
}

// RequestQuery mirrors supported dashboard list filters.
type RequestQuery struct {
	District     string `form:"district"`
	Status       string `form:"status"`
	Verification string `form:"verification"`
	Priority     string `form:"priority"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}
