package profiles

import "time"

// StudentProfile is the student-specific extension record. Its existence,
// not its content, is what admits a student past the onboarding gate.
type StudentProfile struct {
	UserID         string    `json:"user_id"`
	Department     string    `json:"department"`
	Degree         string    `json:"degree"`
	GraduationYear int       `json:"graduation_year"`
	RegistrationNo string    `json:"registration_no"`
	CGPA           float64   `json:"cgpa"`
	Skills         []string  `json:"skills"`
	ResumeKey      string    `json:"resume_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
