package seminars

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

type mockRepository struct {
	requests map[int64]*Request
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{requests: make(map[int64]*Request), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, req *Request) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *req
	stored.ID = id
	m.requests[id] = &stored
	return id, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockRepository) ListForAlumnus(ctx context.Context, alumnusID string) ([]Request, error) {
	var out []Request
	for _, req := range m.requests {
		if req.AlumnusID == alumnusID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *mockRepository) ListForRequester(ctx context.Context, requesterID string) ([]Request, error) {
	var out []Request
	for _, req := range m.requests {
		if req.RequesterID == requesterID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *mockRepository) Answer(ctx context.Context, id int64, status, note string, answeredAt time.Time) error {
	req, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != StatusPending {
		return ErrAlreadyAnswered
	}
	req.Status = status
	req.ResponseNote = note
	req.AnsweredAt = answeredAt
	return nil
}

type stubDirectory struct {
	identities map[string]*shared.Identity
}

func (s *stubDirectory) ResolveIdentity(ctx context.Context, userID string) (*shared.Identity, error) {
	id, ok := s.identities[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return id, nil
}

func newFixture() *Service {
	repo := newMockRepository()
	directory := &stubDirectory{identities: map[string]*shared.Identity{
		"alum-1":    {ID: "alum-1", Role: shared.RoleAlumni},
		"student-9": {ID: "student-9", Role: shared.RoleStudent},
	}}
	svc := NewService(repo, directory, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func student() *shared.Identity {
	return &shared.Identity{ID: "student-1", Role: shared.RoleStudent}
}

func alumnus(id string) *shared.Identity {
	return &shared.Identity{ID: id, Role: shared.RoleAlumni}
}

func validInput() RequestInput {
	return RequestInput{
		AlumnusID:    "alum-1",
		Topic:        "System design interviews",
		ProposedDate: time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC),
	}
}

func TestRequestRejectsAlumniRequesters(t *testing.T) {
	svc := newFixture()

	_, err := svc.Request(context.Background(), alumnus("alum-2"), validInput())
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestRequestRejectsNonAlumniTarget(t *testing.T) {
	svc := newFixture()

	in := validInput()
	in.AlumnusID = "student-9"
	_, err := svc.Request(context.Background(), student(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRequestRejectsPastDate(t *testing.T) {
	svc := newFixture()

	in := validInput()
	in.ProposedDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Request(context.Background(), student(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRequestStartsPending(t *testing.T) {
	svc := newFixture()

	req, err := svc.Request(context.Background(), student(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "student-1", req.RequesterID)
}

func TestAnswerOnlyByAddressedAlumnus(t *testing.T) {
	svc := newFixture()

	req, err := svc.Request(context.Background(), student(), validInput())
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), alumnus("alum-2"), req.ID, true, "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAnswerIsFinal(t *testing.T) {
	svc := newFixture()

	req, err := svc.Request(context.Background(), student(), validInput())
	require.NoError(t, err)

	answered, err := svc.Answer(context.Background(), alumnus("alum-1"), req.ID, true, "Happy to help")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, answered.Status)
	assert.Equal(t, "Happy to help", answered.ResponseNote)

	_, err = svc.Answer(context.Background(), alumnus("alum-1"), req.ID, false, "")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}
