package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushire/campushire/internal/shared"
)

// Mailer delivers the verification email, typically by enqueueing a
// background task.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	mailer Mailer
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenIssuer, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, mailer: mailer, logger: logger}
}

// SignUpInput carries registration fields. The role is fixed at creation.
type SignUpInput struct {
	Email     string
	Password  string
	Role      shared.Role
	FirstName string
	LastName  string
}

// SignUp registers a new account and sends the verification email. The
// email delivery is best effort: a failed enqueue is logged, not fatal.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*Account, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if _, ok := shared.ParseRole(string(input.Role)); !ok {
		return nil, fmt.Errorf("identity: unknown role %q", input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	acc := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueVerification(acc.ID)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil {
		if err := s.mailer.SendVerificationEmail(ctx, acc.Email, token); err != nil && s.logger != nil {
			s.logger.Warn("enqueue verification email", slog.String("email", acc.Email), slog.Any("error", err))
		}
	}
	return acc, nil
}

// Authenticate validates email/password credentials. Failures distinguish
// bad credentials from an unverified email; both leave state untouched.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity: authenticate %s: %w", email, err)
	}
	if !acc.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !acc.EmailVerified {
		return nil, shared.ErrEmailUnverified
	}
	return acc, nil
}

// VerifyEmail redeems a verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	accountID, err := s.tokens.ParseVerification(token)
	if err != nil {
		return err
	}
	return s.repo.MarkEmailVerified(ctx, accountID)
}

// SetAvatar records the storage key of an uploaded avatar.
func (s *Service) SetAvatar(ctx context.Context, userID, key string) error {
	if err := s.repo.SetAvatarKey(ctx, userID, key); err != nil {
		return fmt.Errorf("identity: set avatar: %w", err)
	}
	return nil
}

// ResolveIdentity loads the identity for a session subject id. Implements
// the guard's resolver boundary.
func (s *Service) ResolveIdentity(ctx context.Context, userID string) (*shared.Identity, error) {
	acc, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("identity: resolve %s: %w", userID, err)
	}
	return acc.Identity(), nil
}
