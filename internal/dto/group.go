package dto

import "github.com/arunalla/relief-intake-api/internal/models"

// CreateGroupPayload creates a named manager group.
type CreateGroupPayload struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddMemberPayload adds a manager to a group.
type AddMemberPayload struct {
	ManagerID string `json:"manager_id" binding:"required"`
}

// GroupMember pairs a membership row with the manager profile for display.
type GroupMember struct {
	GroupID string         `json:"group_id"`
	Manager models.Manager `json:"manager"`
}
