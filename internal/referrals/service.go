package referrals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// Service owns the referral board: alumni post openings, students browse
// the active ones.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a referral service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput carries the fields for a new referral.
type CreateInput struct {
	Company     string
	RoleTitle   string
	Description string
	ApplyURL    string
	ContactNote string
}

// Create posts an active referral on behalf of an alumnus.
func (s *Service) Create(ctx context.Context, actor *shared.Identity, in CreateInput) (*Referral, error) {
	if actor.Role != shared.RoleAlumni {
		return nil, fmt.Errorf("create referral: %w", httpx.ErrForbidden)
	}
	ref := &Referral{
		Company:     in.Company,
		RoleTitle:   in.RoleTitle,
		Description: in.Description,
		ApplyURL:    in.ApplyURL,
		ContactNote: in.ContactNote,
		Status:      StatusActive,
		PostedBy:    actor.ID,
	}
	id, err := s.repo.Create(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}
	ref.ID = id
	s.logger.Info("referral posted", "referral_id", id, "company", ref.Company, "by", actor.ID)
	return ref, nil
}

// ListActive returns the referrals students may browse.
func (s *Service) ListActive(ctx context.Context) ([]Referral, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active referrals: %w", err)
	}
	return items, nil
}

// ListOwn returns the acting alumnus's referrals, closed ones included.
func (s *Service) ListOwn(ctx context.Context, actor *shared.Identity) ([]Referral, error) {
	items, err := s.repo.ListByAlumnus(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list own referrals: %w", err)
	}
	return items, nil
}

// Close takes a referral off the board. Only its poster may close it.
func (s *Service) Close(ctx context.Context, actor *shared.Identity, id int64) error {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("close referral: %w", err)
	}
	if ref.PostedBy != actor.ID {
		return fmt.Errorf("close referral: %w", httpx.ErrForbidden)
	}
	if err := s.repo.SetStatus(ctx, id, StatusClosed); err != nil {
		return fmt.Errorf("close referral: %w", err)
	}
	return nil
}
