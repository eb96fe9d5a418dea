package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushire/campushire/internal/shared"
)

type mockRepository struct {
	byEmail map[string]*Account
	byID    map[string]*Account

	createErr error
	findErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byEmail: make(map[string]*Account),
		byID:    make(map[string]*Account),
	}
}

func (m *mockRepository) CreateAccount(ctx context.Context, acc *Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byEmail[acc.Email]; ok {
		return ErrEmailTaken
	}
	stored := *acc
	// PGRepository.CreateAccount inserts is_active = TRUE regardless of the
	// struct field; mirror that here.
	stored.IsActive = true
	m.byEmail[acc.Email] = &stored
	m.byID[acc.ID] = &stored
	return nil
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	acc, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	acc, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (m *mockRepository) MarkEmailVerified(ctx context.Context, id string) error {
	acc, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	acc.EmailVerified = true
	return nil
}

func (m *mockRepository) SetAvatarKey(ctx context.Context, id, key string) error {
	acc, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	acc.AvatarKey = key
	return nil
}

type recordingMailer struct {
	emails []string
	tokens []string
	err    error
}

func (m *recordingMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, email)
	m.tokens = append(m.tokens, token)
	return nil
}

func newTestService(repo Repository, mailer Mailer) *Service {
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour), mailer, nil)
}

func seedAccount(t *testing.T, repo *mockRepository, email, password string, role shared.Role, verified bool) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	acc := &Account{
		ID:            "acc-" + email,
		Email:         email,
		PasswordHash:  string(hash),
		Role:          role,
		EmailVerified: verified,
		IsActive:      true,
	}
	require.NoError(t, repo.CreateAccount(context.Background(), acc))
	return acc
}

func TestSignUpSendsVerificationToken(t *testing.T) {
	repo := newMockRepository()
	mailer := &recordingMailer{}
	svc := newTestService(repo, mailer)

	acc, err := svc.SignUp(context.Background(), SignUpInput{
		Email:     "Riya.Sharma@College.EDU",
		Password:  "hunter2hunter2",
		Role:      shared.RoleStudent,
		FirstName: "Riya",
		LastName:  "Sharma",
	})
	require.NoError(t, err)
	assert.Equal(t, "riya.sharma@college.edu", acc.Email)
	assert.False(t, acc.EmailVerified)
	require.Len(t, mailer.tokens, 1)

	subject, err := NewTokenIssuer("test-secret", time.Hour).ParseVerification(mailer.tokens[0])
	require.NoError(t, err)
	assert.Equal(t, acc.ID, subject)
}

func TestSignUpRejectsUnknownRole(t *testing.T) {
	svc := newTestService(newMockRepository(), nil)
	_, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "x@college.edu",
		Password: "hunter2hunter2",
		Role:     shared.Role("dean"),
	})
	require.Error(t, err)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	seedAccount(t, repo, "dup@college.edu", "hunter2hunter2", shared.RoleAlumni, true)

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "dup@college.edu",
		Password: "hunter2hunter2",
		Role:     shared.RoleAlumni,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticateDistinguishesFailures(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	seedAccount(t, repo, "verified@college.edu", "correct-horse", shared.RoleStudent, true)
	seedAccount(t, repo, "pending@college.edu", "correct-horse", shared.RoleStudent, false)

	t.Run("success", func(t *testing.T) {
		acc, err := svc.Authenticate(context.Background(), "verified@college.edu", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, shared.RoleStudent, acc.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "verified@college.edu", "battery-staple")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "ghost@college.edu", "correct-horse")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("unverified email is its own failure", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "pending@college.edu", "correct-horse")
		assert.ErrorIs(t, err, shared.ErrEmailUnverified)
		assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("store failure is not bad credentials", func(t *testing.T) {
		downRepo := newMockRepository()
		downRepo.findErr = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		downSvc := newTestService(downRepo, nil)

		_, err := downSvc.Authenticate(context.Background(), "verified@college.edu", "correct-horse")
		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
		assert.NotErrorIs(t, err, shared.ErrEmailUnverified)
		assert.ErrorIs(t, err, downRepo.findErr)
	})
}

func TestVerifyEmailRoundTrip(t *testing.T) {
	repo := newMockRepository()
	mailer := &recordingMailer{}
	svc := newTestService(repo, mailer)

	acc, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "new@college.edu",
		Password: "hunter2hunter2",
		Role:     shared.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "new@college.edu", "hunter2hunter2")
	assert.ErrorIs(t, err, shared.ErrEmailUnverified)

	require.NoError(t, svc.VerifyEmail(context.Background(), mailer.tokens[0]))

	got, err := svc.Authenticate(context.Background(), "new@college.edu", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
}

func TestVerifyEmailBadToken(t *testing.T) {
	svc := newTestService(newMockRepository(), nil)
	err := svc.VerifyEmail(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResolveIdentityProjection(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	acc := seedAccount(t, repo, "res@college.edu", "correct-horse", shared.RoleAlumni, true)

	id, err := svc.ResolveIdentity(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id.ID)
	assert.Equal(t, shared.RoleAlumni, id.Role)

	_, err = svc.ResolveIdentity(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveIdentityWrapsStoreErrors(t *testing.T) {
	repo := newMockRepository()
	repo.findErr = errors.New("connection reset")
	svc := newTestService(repo, nil)

	_, err := svc.ResolveIdentity(context.Background(), "acc-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}
