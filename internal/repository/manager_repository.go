package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arunalla/relief-intake-api/internal/models"
)

const managerColumns = `id, full_name, email, phone, district, nearest_town, job_role, other_role,
       experience_years, highest_qualification, other_qualification, professional_skills, other_skill,
       support_types, grade_levels, subjects, other_subject, available_days, available_time_slots,
       teaching_mode, is_teacher, support_methods, volunteering_experience, preferences_limitations,
       comments, tags, verification_status, otp_code, otp_expires_at, created_at`

// ManagerRepository persists volunteer manager applications.
type ManagerRepository struct {
	db *sqlx.DB
}

// NewManagerRepository constructs the repository.
func NewManagerRepository(db *sqlx.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

// Create inserts a new manager application.
func (r *ManagerRepository) Create(ctx context.Context, manager *models.Manager) error {
	if manager.ID == "" {
		manager.ID = uuid.NewString()
	}
	if manager.VerificationStatus == "" {
		manager.VerificationStatus = models.VerificationUnverified
	}
	if manager.CreatedAt.IsZero() {
		manager.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO managers
	(id, full_name, email, phone, district, nearest_town, job_role, other_role, experience_years,
	 highest_qualification, other_qualification, professional_skills, other_skill, support_types,
	 grade_levels, subjects, other_subject, available_days, available_time_slots, teaching_mode,
	 is_teacher, support_methods, volunteering_experience, preferences_limitations, comments, tags,
	 verification_status, created_at)
	VALUES (:id, :full_name, :email, :phone, :district, :nearest_town, :job_role, :other_role, :experience_years,
	 :highest_qualification, :other_qualification, :professional_skills, :other_skill, :support_types,
	 :grade_levels, :subjects, :other_subject, :available_days, :available_time_slots, :teaching_mode,
	 :is_teacher, :support_methods, :volunteering_experience, :preferences_limitations, :comments, :tags,
	 :verification_status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, manager); err != nil {
		return fmt.Errorf("create manager: %w", err)
	}
	return nil
}

// GetByID fetches a manager by identifier.
func (r *ManagerRepository) GetByID(ctx context.Context, id string) (*models.Manager, error) {
	query := fmt.Sprintf(`SELECT %s FROM managers WHERE id = $1`, managerColumns)
	var manager models.Manager
	if err := r.db.GetContext(ctx, &manager, query, id); err != nil {
		return nil, err
	}
	return &manager, nil
}

// FindByEmail fetches a manager by application email.
func (r *ManagerRepository) FindByEmail(ctx context.Context, email string) (*models.Manager, error) {
	query := fmt.Sprintf(`SELECT %s FROM managers WHERE email = $1`, managerColumns)
	var manager models.Manager
	if err := r.db.GetContext(ctx, &manager, query, email); err != nil {
		return nil, err
	}
	return &manager, nil
}

// List returns managers matching the filter, newest first.
func (r *ManagerRepository) List(ctx context.Context, filter models.ManagerFilter) ([]models.Manager, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", idx, idx))
	}

	query := fmt.Sprintf("SELECT %s FROM managers", managerColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	managers := make([]models.Manager, 0)
	if err := r.db.SelectContext(ctx, &managers, query, args...); err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	return managers, nil
}

// UpdateTags replaces the staff-assigned tags.
func (r *ManagerRepository) UpdateTags(ctx context.Context, id string, tags []string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE managers SET tags = $1 WHERE id = $2", pq.StringArray(tags), id); err != nil {
		return fmt.Errorf("update manager tags: %w", err)
	}
	return nil
}

// UpdateProfile replaces the self-editable profile fields, keyed by email.
func (r *ManagerRepository) UpdateProfile(ctx context.Context, email string, manager *models.Manager) error {
	const query = `UPDATE managers SET
	 full_name = :full_name, district = :district, nearest_town = :nearest_town, job_role = :job_role,
	 other_role = :other_role, experience_years = :experience_years,
	 highest_qualification = :highest_qualification, other_qualification = :other_qualification,
	 professional_skills = :professional_skills, other_skill = :other_skill, support_types = :support_types,
	 grade_levels = :grade_levels, subjects = :subjects, other_subject = :other_subject,
	 available_days = :available_days, available_time_slots = :available_time_slots,
	 teaching_mode = :teaching_mode, is_teacher = :is_teacher, support_methods = :support_methods,
	 volunteering_experience = :volunteering_experience, preferences_limitations = :preferences_limitations,
	 comments = :comments
	WHERE email = :email`
	params := map[string]interface{}{
		"email":                   email,
		"full_name":               manager.FullName,
		"district":                manager.District,
		"nearest_town":            manager.NearestTown,
		"job_role":                manager.JobRole,
		"other_role":              manager.OtherRole,
		"experience_years":        manager.ExperienceYears,
		"highest_qualification":   manager.HighestQualification,
		"other_qualification":     manager.OtherQualification,
		"professional_skills":     manager.ProfessionalSkills,
		"other_skill":             manager.OtherSkill,
		"support_types":           manager.SupportTypes,
		"grade_levels":            manager.GradeLevels,
		"subjects":                manager.Subjects,
		"other_subject":           manager.OtherSubject,
		"available_days":          manager.AvailableDays,
		"available_time_slots":    manager.AvailableTimeSlots,
		"teaching_mode":           manager.TeachingMode,
		"is_teacher":              manager.IsTeacher,
		"support_methods":         manager.SupportMethods,
		"volunteering_experience": manager.VolunteeringExperience,
		"preferences_limitations": manager.PreferencesLimitations,
		"comments":                manager.Comments,
	}
	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return fmt.Errorf("update manager profile: %w", err)
	}
	return nil
}

// SetOTP stores a fresh verification code and its expiry.
func (r *ManagerRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE managers SET otp_code = $1, otp_expires_at = $2 WHERE id = $3", code, expiresAt, id); err != nil {
		return fmt.Errorf("set manager otp: %w", err)
	}
	return nil
}

// MarkVerified clears the OTP and flags the manager as verified.
func (r *ManagerRepository) MarkVerified(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE managers SET verification_status = $1, otp_code = NULL, otp_expires_at = NULL WHERE email = $2",
		models.VerificationVerified, email); err != nil {
		return fmt.Errorf("mark manager verified: %w", err)
	}
	return nil
}
