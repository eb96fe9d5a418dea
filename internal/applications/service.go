package applications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/postings"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

// Service owns the application lifecycle: students apply and withdraw,
// placement staff move applications through review.
type Service struct {
	repo     Repository
	postings *postings.Service
	profiles *profiles.Service
	logger   *slog.Logger
}

// NewService constructs an application service.
func NewService(repo Repository, postingSvc *postings.Service, profileSvc *profiles.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, postings: postingSvc, profiles: profileSvc, logger: logger}
}

// ApplyInput carries a student's application submission.
type ApplyInput struct {
	PostingID int64
	CoverNote string
}

// Apply submits a student's application. The posting must be open, within
// deadline, and the student's profile must pass every eligibility rule.
func (s *Service) Apply(ctx context.Context, actor *shared.Identity, in ApplyInput) (*Application, error) {
	if actor.Role != shared.RoleStudent {
		return nil, fmt.Errorf("apply: %w", httpx.ErrForbidden)
	}
	posting, err := s.postings.Get(ctx, in.PostingID)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	profile, err := s.profiles.Get(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("apply: load profile: %w", err)
	}
	if result := s.postings.CheckEligibility(posting, profile); !result.Eligible {
		return nil, fmt.Errorf("apply: %w: %v", ErrNotEligible, result.Reasons)
	}
	a := &Application{
		PostingID: in.PostingID,
		StudentID: actor.ID,
		Status:    StatusApplied,
		CoverNote: in.CoverNote,
		ResumeKey: profile.ResumeKey,
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	a.ID = id
	s.logger.Info("application submitted", "application_id", id, "posting_id", in.PostingID, "student_id", actor.ID)
	return a, nil
}

// Withdraw lets a student pull back an application that has not yet
// progressed past the applied state.
func (s *Service) Withdraw(ctx context.Context, actor *shared.Identity, id int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	if a.StudentID != actor.ID {
		return fmt.Errorf("withdraw: %w", httpx.ErrForbidden)
	}
	if a.Status != StatusApplied {
		return fmt.Errorf("withdraw from %s: %w", a.Status, ErrBadTransition)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusWithdrawn, ""); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	return nil
}

// ListOwn returns the acting student's applications.
func (s *Service) ListOwn(ctx context.Context, actor *shared.Identity) ([]Application, error) {
	items, err := s.repo.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list own applications: %w", err)
	}
	return items, nil
}

// ListForPosting returns the staff review sheet for one posting.
func (s *Service) ListForPosting(ctx context.Context, actor *shared.Identity, postingID int64) ([]Row, error) {
	if actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("list applications: %w", httpx.ErrForbidden)
	}
	rows, err := s.repo.ListByPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return rows, nil
}

// Advance moves an application to a new status, enforcing the lifecycle
// order. Terminal statuses cannot be left.
func (s *Service) Advance(ctx context.Context, actor *shared.Identity, id int64, status string) (*Application, error) {
	if actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("advance: %w", httpx.ErrForbidden)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("advance: %w", err)
	}
	if !CanTransition(a.Status, status) {
		return nil, fmt.Errorf("advance %s to %s: %w", a.Status, status, ErrBadTransition)
	}
	if err := s.repo.UpdateStatus(ctx, id, status, actor.ID); err != nil {
		return nil, fmt.Errorf("advance: %w", err)
	}
	a.Status = status
	a.ReviewedBy = actor.ID
	s.logger.Info("application advanced", "application_id", id, "status", status, "by", actor.ID)
	return a, nil
}
