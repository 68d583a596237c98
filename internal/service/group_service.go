package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/models"
	"github.com/arunalla/relief-intake-api/internal/repository"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
)

type groupStore interface {
	Create(ctx context.Context, group *models.ManagerGroup) error
	GetByID(ctx context.Context, id string) (*models.ManagerGroup, error)
	List(ctx context.Context) ([]models.ManagerGroup, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, managerID string) error
	RemoveMember(ctx context.Context, groupID, managerID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.Manager, error)
}

// GroupService manages named collections of volunteer managers.
type GroupService struct {
	groups   groupStore
	managers managerStore
	logger   *zap.Logger
}

// NewGroupService constructs the service.
func NewGroupService(groups groupStore, managers managerStore, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, managers: managers, logger: logger}
}

// Create makes a new empty group.
func (s *GroupService) Create(ctx context.Context, payload dto.CreateGroupPayload) (*models.ManagerGroup, error) {
	group := &models.ManagerGroup{Name: payload.Name}
	if payload.Description != "" {
		group.Description = &payload.Description
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create group")
	}
	return group, nil
}

// List returns all groups.
func (s *GroupService) List(ctx context.Context) ([]models.ManagerGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list groups")
	}
	return groups, nil
}

// Get loads one group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.ManagerGroup, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load group")
	}
	return group, nil
}

// Delete removes a group and its memberships.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete group")
	}
	return nil
}

// AddMember joins a manager to a group. Both sides must exist, and a
// manager can be in a group only once.
func (s *GroupService) AddMember(ctx context.Context, groupID, managerID string) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.managers.GetByID(ctx, managerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manager not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load manager")
	}

	if err := s.groups.AddMember(ctx, groupID, managerID); err != nil {
		if errors.Is(err, repository.ErrDuplicateMember) {
			return appErrors.Clone(appErrors.ErrConflict, "manager is already in this group")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to add member")
	}
	return nil
}

// RemoveMember takes a manager out of a group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, managerID string) error {
	if err := s.groups.RemoveMember(ctx, groupID, managerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to remove member")
	}
	return nil
}

// Members lists the manager profiles in a group.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.Manager, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list members")
	}
	return members, nil
}
