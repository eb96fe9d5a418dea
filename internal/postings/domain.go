package postings

import (
	"errors"
	"time"
)

// Posting statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrNotFound indicates the posting does not exist.
var ErrNotFound = errors.New("postings: not found")

// Posting is a job opening published by the placement cell.
type Posting struct {
	ID             int64     `json:"id"`
	Company        string    `json:"company"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	CTCMinLPA      float64   `json:"ctc_min_lpa"`
	CTCMaxLPA      float64   `json:"ctc_max_lpa"`
	MinCGPA        float64   `json:"min_cgpa"`
	Departments    []string  `json:"departments"`
	GraduationYear int       `json:"graduation_year"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AcceptsDepartment reports whether a department is eligible. An empty
// department list means the posting is open to all departments.
func (p *Posting) AcceptsDepartment(dept string) bool {
	if len(p.Departments) == 0 {
		return true
	}
	for _, d := range p.Departments {
		if d == dept {
			return true
		}
	}
	return false
}
