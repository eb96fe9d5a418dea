package postings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

// EligibilityReason explains why a student fails a posting's criteria.
type EligibilityReason string

const (
	ReasonCGPA       EligibilityReason = "cgpa_below_minimum"
	ReasonDepartment EligibilityReason = "department_not_accepted"
	ReasonBatch      EligibilityReason = "graduation_year_mismatch"
	ReasonDeadline   EligibilityReason = "deadline_passed"
	ReasonClosed     EligibilityReason = "posting_closed"
)

// Eligibility is the outcome of matching a profile against a posting.
type Eligibility struct {
	Eligible bool                `json:"eligible"`
	Reasons  []EligibilityReason `json:"reasons,omitempty"`
}

// Service owns posting lifecycle and eligibility rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a posting service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateInput carries the fields for a new posting.
type CreateInput struct {
	Company        string
	Title          string
	Description    string
	Location       string
	CTCMinLPA      float64
	CTCMaxLPA      float64
	MinCGPA        float64
	Departments    []string
	GraduationYear int
	Deadline       time.Time
}

// Create publishes a new open posting on behalf of placement staff.
func (s *Service) Create(ctx context.Context, actor *shared.Identity, in CreateInput) (*Posting, error) {
	if actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("create posting: %w", httpx.ErrForbidden)
	}
	if in.CTCMaxLPA > 0 && in.CTCMaxLPA < in.CTCMinLPA {
		return nil, fmt.Errorf("ctc range inverted: %w", httpx.ErrValidation)
	}
	if !in.Deadline.After(s.now()) {
		return nil, fmt.Errorf("deadline must be in the future: %w", httpx.ErrValidation)
	}
	p := &Posting{
		Company:        in.Company,
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		CTCMinLPA:      in.CTCMinLPA,
		CTCMaxLPA:      in.CTCMaxLPA,
		MinCGPA:        in.MinCGPA,
		Departments:    in.Departments,
		GraduationYear: in.GraduationYear,
		Deadline:       in.Deadline,
		Status:         StatusOpen,
		CreatedBy:      actor.ID,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create posting: %w", err)
	}
	p.ID = id
	s.logger.Info("posting created", "posting_id", id, "company", p.Company, "by", actor.ID)
	return p, nil
}

// Update rewrites an open posting. Closed postings cannot be edited.
func (s *Service) Update(ctx context.Context, actor *shared.Identity, id int64, in CreateInput) (*Posting, error) {
	if actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("update posting: %w", httpx.ErrForbidden)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update posting: %w", err)
	}
	if p.Status == StatusClosed {
		return nil, fmt.Errorf("posting is closed: %w", httpx.ErrConflict)
	}
	p.Company = in.Company
	p.Title = in.Title
	p.Description = in.Description
	p.Location = in.Location
	p.CTCMinLPA = in.CTCMinLPA
	p.CTCMaxLPA = in.CTCMaxLPA
	p.MinCGPA = in.MinCGPA
	p.Departments = in.Departments
	p.GraduationYear = in.GraduationYear
	p.Deadline = in.Deadline
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update posting: %w", err)
	}
	return p, nil
}

// Close marks a posting as no longer accepting applications.
func (s *Service) Close(ctx context.Context, actor *shared.Identity, id int64) error {
	if actor.Role != shared.RolePlacementStaff {
		return fmt.Errorf("close posting: %w", httpx.ErrForbidden)
	}
	if err := s.repo.SetStatus(ctx, id, StatusClosed); err != nil {
		return fmt.Errorf("close posting: %w", err)
	}
	s.logger.Info("posting closed", "posting_id", id, "by", actor.ID)
	return nil
}

// Get fetches a single posting.
func (s *Service) Get(ctx context.Context, id int64) (*Posting, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return p, nil
}

// List returns a page of postings. Students only ever see open ones,
// staff may pass any status filter.
func (s *Service) List(ctx context.Context, actor *shared.Identity, filter ListFilter, page shared.Pagination) ([]Posting, int, error) {
	if actor.Role == shared.RoleStudent {
		filter.Status = StatusOpen
	}
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list postings: %w", err)
	}
	return items, total, nil
}

// CheckEligibility matches a student profile against a posting's criteria
// and reports every failing rule, not just the first.
func (s *Service) CheckEligibility(p *Posting, profile *profiles.StudentProfile) Eligibility {
	var reasons []EligibilityReason
	if p.Status != StatusOpen {
		reasons = append(reasons, ReasonClosed)
	}
	if s.now().After(p.Deadline) {
		reasons = append(reasons, ReasonDeadline)
	}
	if profile.CGPA < p.MinCGPA {
		reasons = append(reasons, ReasonCGPA)
	}
	if !p.AcceptsDepartment(profile.Department) {
		reasons = append(reasons, ReasonDepartment)
	}
	if p.GraduationYear != 0 && p.GraduationYear != profile.GraduationYear {
		reasons = append(reasons, ReasonBatch)
	}
	return Eligibility{Eligible: len(reasons) == 0, Reasons: reasons}
}
