package applications

import (
	"errors"
	"time"
)

// Application statuses in lifecycle order.
const (
	StatusApplied     = "applied"
	StatusShortlisted = "shortlisted"
	StatusInterview   = "interview"
	StatusOffered     = "offered"
	StatusRejected    = "rejected"
	StatusWithdrawn   = "withdrawn"
)

var (
	// ErrNotFound indicates the application does not exist.
	ErrNotFound = errors.New("applications: not found")
	// ErrAlreadyApplied indicates the student already applied to the posting.
	ErrAlreadyApplied = errors.New("applications: already applied")
	// ErrBadTransition indicates an illegal status move.
	ErrBadTransition = errors.New("applications: illegal status transition")
	// ErrNotEligible indicates the student fails the posting criteria.
	ErrNotEligible = errors.New("applications: student not eligible")
)

// Application links a student to a posting with a review status.
type Application struct {
	ID         int64     `json:"id"`
	PostingID  int64     `json:"posting_id"`
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	CoverNote  string    `json:"cover_note,omitempty"`
	ResumeKey  string    `json:"resume_key,omitempty"`
	AppliedAt  time.Time `json:"applied_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
}

// Row is an application joined with student detail for staff review lists
// and CSV exports.
type Row struct {
	Application
	StudentName    string  `json:"student_name"`
	StudentEmail   string  `json:"student_email"`
	Department     string  `json:"department"`
	CGPA           float64 `json:"cgpa"`
	RegistrationNo string  `json:"registration_no"`
}

// transitions maps each status to the statuses staff may move it to.
var transitions = map[string][]string{
	StatusApplied:     {StatusShortlisted, StatusRejected},
	StatusShortlisted: {StatusInterview, StatusRejected},
	StatusInterview:   {StatusOffered, StatusRejected},
}

// CanTransition reports whether staff may move an application from one
// status to another. Offered, rejected and withdrawn are terminal.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
