package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
)

type managerStore interface {
	Create(ctx context.Context, manager *models.Manager) error
	GetByID(ctx context.Context, id string) (*models.Manager, error)
	FindByEmail(ctx context.Context, email string) (*models.Manager, error)
	List(ctx context.Context, filter models.ManagerFilter) ([]models.Manager, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
	UpdateProfile(ctx context.Context, email string, manager *models.Manager) error
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, email string) error
}

// ManagerService handles volunteer applications and the staff-facing
// manager directory.
type ManagerService struct {
	managers managerStore
	logger   *zap.Logger
}

// NewManagerService constructs the service.
func NewManagerService(managers managerStore, logger *zap.Logger) *ManagerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagerService{managers: managers, logger: logger}
}

// Apply accepts a public volunteer application. Duplicate emails are
// rejected so the onboarding flow has a single application per address.
func (s *ManagerService) Apply(ctx context.Context, payload dto.SubmitManagerPayload) (*models.Manager, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if existing, err := s.managers.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application already exists for this email")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check existing application")
	}

	manager := managerFromPayload(payload)
	manager.Email = email
	if err := s.managers.Create(ctx, manager); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save application")
	}

	s.logger.Info("manager application received",
		zap.String("manager_id", manager.ID), zap.String("district", manager.District))
	return manager, nil
}

// Get loads one manager profile.
func (s *ManagerService) Get(ctx context.Context, id string) (*models.Manager, error) {
	manager, err := s.managers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manager not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load manager")
	}
	return manager, nil
}

// GetByEmail loads the manager profile behind a staff account.
func (s *ManagerService) GetByEmail(ctx context.Context, email string) (*models.Manager, error) {
	manager, err := s.managers.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manager not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load manager")
	}
	return manager, nil
}

// List returns managers matching the directory filters.
func (s *ManagerService) List(ctx context.Context, query dto.ManagerQuery) ([]models.Manager, error) {
	managers, err := s.managers.List(ctx, models.ManagerFilter{
		District: query.District,
		Tag:      query.Tag,
		Search:   query.Search,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list managers")
	}
	return managers, nil
}

// UpdateTags replaces the staff-assigned tags on a manager.
func (s *ManagerService) UpdateTags(ctx context.Context, id string, tags []string) (*models.Manager, error) {
	manager, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	normalized := normalizeTags(tags)
	if err := s.managers.UpdateTags(ctx, id, normalized); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update tags")
	}
	manager.Tags = normalized
	return manager, nil
}

// UpdateProfile applies the self-service settings form for the manager
// behind the given email. Phone and email are immutable.
func (s *ManagerService) UpdateProfile(ctx context.Context, email string, payload dto.UpdateProfilePayload) (*models.Manager, error) {
	current, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	updated := managerFromProfile(payload)
	if err := s.managers.UpdateProfile(ctx, current.Email, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update profile")
	}
	return s.GetByEmail(ctx, current.Email)
}

func managerFromPayload(payload dto.SubmitManagerPayload) *models.Manager {
	manager := &models.Manager{
		FullName:             strings.TrimSpace(payload.FullName),
		Phone:                payload.Phone,
		District:             payload.District,
		JobRole:              payload.JobRole,
		ExperienceYears:      payload.ExperienceYears,
		HighestQualification: payload.HighestQualification,
		ProfessionalSkills:   payload.ProfessionalSkills,
		SupportTypes:         payload.SupportTypes,
		GradeLevels:          payload.GradeLevels,
		Subjects:             payload.Subjects,
		AvailableDays:        payload.AvailableDays,
		AvailableTimeSlots:   payload.AvailableTimeSlots,
		TeachingMode:         payload.TeachingMode,
		IsTeacher:            strings.EqualFold(payload.JobRole, "teacher"),
		SupportMethods:       payload.SupportMethods,
		Tags:                 []string{},
	}
	setOptional(&manager.NearestTown, payload.NearestTown)
	setOptional(&manager.OtherRole, payload.OtherRole)
	setOptional(&manager.OtherQualification, payload.OtherQualification)
	setOptional(&manager.OtherSkill, payload.OtherSkill)
	setOptional(&manager.OtherSubject, payload.OtherSubject)
	setOptional(&manager.VolunteeringExperience, payload.VolunteeringExp)
	setOptional(&manager.PreferencesLimitations, payload.Preferences)
	setOptional(&manager.Comments, payload.Comments)
	return manager
}

func managerFromProfile(payload dto.UpdateProfilePayload) *models.Manager {
	manager := &models.Manager{
		FullName:             strings.TrimSpace(payload.FullName),
		District:             payload.District,
		JobRole:              payload.JobRole,
		ExperienceYears:      payload.ExperienceYears,
		HighestQualification: payload.HighestQualification,
		ProfessionalSkills:   payload.ProfessionalSkills,
		SupportTypes:         payload.SupportTypes,
		GradeLevels:          payload.GradeLevels,
		Subjects:             payload.Subjects,
		AvailableDays:        payload.AvailableDays,
		AvailableTimeSlots:   payload.AvailableTimeSlots,
		TeachingMode:         payload.TeachingMode,
		IsTeacher:            strings.EqualFold(payload.JobRole, "teacher"),
		SupportMethods:       payload.SupportMethods,
	}
	setOptional(&manager.NearestTown, payload.NearestTown)
	setOptional(&manager.OtherRole, payload.OtherRole)
	setOptional(&manager.OtherQualification, payload.OtherQualification)
	setOptional(&manager.OtherSkill, payload.OtherSkill)
	setOptional(&manager.OtherSubject, payload.OtherSubject)
	setOptional(&manager.VolunteeringExperience, payload.VolunteeringExp)
	setOptional(&manager.PreferencesLimitations, payload.Preferences)
	setOptional(&manager.Comments, payload.Comments)
	return manager
}

func setOptional(dest **string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = &trimmed
	}
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
