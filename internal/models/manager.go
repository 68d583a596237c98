package models

import (
	"time"

	"github.com/lib/pq"
)

// Manager is a volunteer application record. Applications arrive through
// the public form; staff tag and group managers, and verified managers may
// later be granted dashboard access through the OTP onboarding flow.
type Manager struct {
	ID                      string             `db:"id" json:"id"`
	FullName                string             `db:"full_name" json:"full_name"`
	Email                   string             `db:"email" json:"email"`
	Phone                   string             `db:"phone" json:"phone"`
	District                string             `db:"district" json:"district"`
	NearestTown             *string            `db:"nearest_town" json:"nearest_town,omitempty"`
	JobRole                 string             `db:"job_role" json:"job_role"`
	OtherRole               *string            `db:"other_role" json:"other_role,omitempty"`
	ExperienceYears         string             `db:"experience_years" json:"experience_years"`
	HighestQualification    string             `db:"highest_qualification" json:"highest_qualification"`
	OtherQualification      *string            `db:"other_qualification" json:"other_qualification,omitempty"`
	ProfessionalSkills      pq.StringArray     `db:"professional_skills" json:"professional_skills"`
	OtherSkill              *string            `db:"other_skill" json:"other_skill,omitempty"`
	SupportTypes            pq.StringArray     `db:"support_types" json:"support_types"`
	GradeLevels             pq.StringArray     `db:"grade_levels" json:"grade_levels"`
	Subjects                string             `db:"subjects" json:"subjects"`
	OtherSubject            *string            `db:"other_subject" json:"other_subject,omitempty"`
	AvailableDays           pq.StringArray     `db:"available_days" json:"available_days"`
	AvailableTimeSlots      pq.StringArray     `db:"available_time_slots" json:"available_time_slots"`
	TeachingMode            string             `db:"teaching_mode" json:"teaching_mode"`
	IsTeacher               bool               `db:"is_teacher" json:"is_teacher"`
	SupportMethods          pq.StringArray     `db:"support_methods" json:"support_methods"`
	VolunteeringExperience  *string            `db:"volunteering_experience" json:"volunteering_experience,omitempty"`
	PreferencesLimitations  *string            `db:"preferences_limitations" json:"preferences_limitations,omitempty"`
	Comments                *string            `db:"comments" json:"comments,omitempty"`
	Tags                    pq.StringArray     `db:"tags" json:"tags"`
	VerificationStatus      VerificationStatus `db:"verification_status" json:"verification_status"`
	OTPCode                 *string            `db:"otp_code" json:"-"`
	OTPExpiresAt            *time.Time         `db:"otp_expires_at" json:"-"`
	CreatedAt               time.Time          `db:"created_at" json:"created_at"`
}

// ManagerGroup is a named collection of volunteer managers.
type ManagerGroup struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ManagerGroupMember joins managers to groups. (group_id, manager_id) is
// unique.
type ManagerGroupMember struct {
	GroupID   string    `db:"group_id" json:"group_id"`
	ManagerID string    `db:"manager_id" json:"manager_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ManagerFilter constrains manager listing queries.
type ManagerFilter struct {
	District string
	Tag      string
	Search   string
}
