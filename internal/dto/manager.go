package dto

// SubmitManagerPayload is the public volunteer application form.
type SubmitManagerPayload struct {
	FullName             string   `json:"full_name" binding:"required"`
	Email                string   `json:"email" binding:"required,email"`
	Phone                string   `json:"phone" binding:"required"`
	District             string   `json:"district" binding:"required"`
	NearestTown          string   `json:"nearest_town"`
	JobRole              string   `json:"job_role" binding:"required"`
	OtherRole            string   `json:"other_role"`
	ExperienceYears      string   `json:"experience_years"`
	HighestQualification string   `json:"highest_qualification"`
	OtherQualification   string   `json:"other_qualification"`
	ProfessionalSkills   []string `json:"professional_skills"`
	OtherSkill           string   `json:"other_skill"`
	SupportTypes         []string `json:"support_types" binding:"required,min=1"`
	GradeLevels          []string `json:"grade_levels"`
	Subjects             string   `json:"subjects"`
	OtherSubject         string   `json:"other_subject"`
	AvailableDays        []string `json:"available_days"`
	AvailableTimeSlots   []string `json:"available_time_slots"`
	TeachingMode         string   `json:"teaching_mode" binding:"required"`
	SupportMethods       []string `json:"support_methods"`
	VolunteeringExp      string   `json:"volunteering_experience"`
	Preferences          string   `json:"preferences_limitations"`
	Comments             string   `json:"comments"`
}

// UpdateTagsPayload replaces the staff-assigned tags on a manager.
type UpdateTagsPayload struct {
	Tags []string `json:"tags" binding:"required"`
}

// UpdateProfilePayload is the manager self-service settings form. Phone
// is deliberately absent: it cannot be changed after application.
type UpdateProfilePayload struct {
	FullName             string   `json:"full_name" binding:"required"`
	District             string   `json:"district" binding:"required"`
	NearestTown          string   `json:"nearest_town"`
	JobRole              string   `json:"job_role" binding:"required"`
	OtherRole            string   `json:"other_role"`
	ExperienceYears      string   `json:"experience_years"`
	HighestQualification string   `json:"highest_qualification"`
	OtherQualification   string   `json:"other_qualification"`
	ProfessionalSkills   []string `json:"professional_skills"`
	OtherSkill           string   `json:"other_skill"`
	SupportTypes         []string `json:"support_types"`
	GradeLevels          []string `json:"grade_levels"`
	Subjects             string   `json:"subjects"`
	OtherSubject         string   `json:"other_subject"`
	AvailableDays        []string `json:"available_days"`
	AvailableTimeSlots   []string `json:"available_time_slots"`
	TeachingMode         string   `json:"teaching_mode"`
	SupportMethods       []string `json:"support_methods"`
	VolunteeringExp      string   `json:"volunteering_experience"`
	Preferences          string   `json:"preferences_limitations"`
	Comments             string   `json:"comments"`
}

// ManagerQuery mirrors supported manager list filters.
type ManagerQuery struct {
	District string `form:"district"`
	Tag      string `form:"tag"`
	Search   string `form:"search"`
}
