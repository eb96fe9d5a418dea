package seminars

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// AlumnusDirectory verifies that a request is addressed to an alumni
// account.
type AlumnusDirectory interface {
	ResolveIdentity(ctx context.Context, userID string) (*shared.Identity, error)
}

// Service owns seminar requests: students and staff invite an alumnus,
// the alumnus accepts or declines.
type Service struct {
	repo      Repository
	directory AlumnusDirectory
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a seminar service.
func NewService(repo Repository, directory AlumnusDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, directory: directory, logger: logger, now: time.Now}
}

// RequestInput carries a new seminar invitation.
type RequestInput struct {
	AlumnusID    string
	Topic        string
	Details      string
	ProposedDate time.Time
}

// Request creates a pending invitation. Alumni cannot request seminars of
// each other; the target must be an alumni account.
func (s *Service) Request(ctx context.Context, actor *shared.Identity, in RequestInput) (*Request, error) {
	if actor.Role != shared.RoleStudent && actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("request seminar: %w", httpx.ErrForbidden)
	}
	if !in.ProposedDate.After(s.now()) {
		return nil, fmt.Errorf("proposed date must be in the future: %w", httpx.ErrValidation)
	}
	target, err := s.directory.ResolveIdentity(ctx, in.AlumnusID)
	if err != nil {
		return nil, fmt.Errorf("request seminar: resolve alumnus: %w", err)
	}
	if target == nil || target.Role != shared.RoleAlumni {
		return nil, fmt.Errorf("target is not an alumni account: %w", httpx.ErrValidation)
	}
	req := &Request{
		AlumnusID:    in.AlumnusID,
		RequesterID:  actor.ID,
		Topic:        in.Topic,
		Details:      in.Details,
		ProposedDate: in.ProposedDate,
		Status:       StatusPending,
	}
	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request seminar: %w", err)
	}
	req.ID = id
	s.logger.Info("seminar requested", "request_id", id, "alumnus_id", in.AlumnusID, "by", actor.ID)
	return req, nil
}

// ListIncoming returns the acting alumnus's inbox.
func (s *Service) ListIncoming(ctx context.Context, actor *shared.Identity) ([]Request, error) {
	items, err := s.repo.ListForAlumnus(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list incoming seminars: %w", err)
	}
	return items, nil
}

// ListOutgoing returns requests the actor has sent.
func (s *Service) ListOutgoing(ctx context.Context, actor *shared.Identity) ([]Request, error) {
	items, err := s.repo.ListForRequester(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing seminars: %w", err)
	}
	return items, nil
}

// Answer resolves a pending request. Only the addressed alumnus may answer,
// and only once.
func (s *Service) Answer(ctx context.Context, actor *shared.Identity, id int64, accept bool, note string) (*Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("answer seminar: %w", err)
	}
	if req.AlumnusID != actor.ID {
		return nil, fmt.Errorf("answer seminar: %w", httpx.ErrForbidden)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("answer seminar: %w", ErrAlreadyAnswered)
	}
	status := StatusDeclined
	if accept {
		status = StatusAccepted
	}
	answeredAt := s.now()
	if err := s.repo.Answer(ctx, id, status, note, answeredAt); err != nil {
		return nil, fmt.Errorf("answer seminar: %w", err)
	}
	req.Status = status
	req.ResponseNote = note
	req.AnsweredAt = answeredAt
	s.logger.Info("seminar answered", "request_id", id, "status", status, "by", actor.ID)
	return req, nil
}
