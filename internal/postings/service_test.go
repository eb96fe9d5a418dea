package postings

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

type mockRepository struct {
	postings map[int64]*Posting
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{postings: make(map[int64]*Posting), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, p *Posting) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *p
	stored.ID = id
	m.postings[id] = &stored
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, p *Posting) error {
	if _, ok := m.postings[p.ID]; !ok {
		return ErrNotFound
	}
	stored := *p
	m.postings[p.ID] = &stored
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Posting, error) {
	p, ok := m.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Posting, int, error) {
	var out []Posting
	for _, p := range m.postings {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status string) error {
	p, ok := m.postings[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func staff() *shared.Identity {
	return &shared.Identity{ID: "staff-1", Role: shared.RolePlacementStaff}
}

func student() *shared.Identity {
	return &shared.Identity{ID: "student-1", Role: shared.RoleStudent}
}

func validInput() CreateInput {
	return CreateInput{
		Company:        "Initech",
		Title:          "Backend Engineer",
		MinCGPA:        7.0,
		Departments:    []string{"Computer Science"},
		GraduationYear: 2026,
		Deadline:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateRequiresPlacementStaff(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), student(), validInput())
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRejectsPastDeadline(t *testing.T) {
	svc := newTestService(newMockRepository())

	in := validInput()
	in.Deadline = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), staff(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsInvertedCTCRange(t *testing.T) {
	svc := newTestService(newMockRepository())

	in := validInput()
	in.CTCMinLPA = 20
	in.CTCMaxLPA = 10
	_, err := svc.Create(context.Background(), staff(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateOpensPosting(t *testing.T) {
	svc := newTestService(newMockRepository())

	p, err := svc.Create(context.Background(), staff(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, p.Status)
	assert.Equal(t, "staff-1", p.CreatedBy)
	assert.NotZero(t, p.ID)
}

func TestUpdateRejectsClosedPosting(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), staff(), validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), staff(), p.ID))

	_, err = svc.Update(context.Background(), staff(), p.ID, validInput())
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCloseRequiresPlacementStaff(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), staff(), validInput())
	require.NoError(t, err)

	err = svc.Close(context.Background(), student(), p.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestStudentListingForcesOpenStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	open, err := svc.Create(context.Background(), staff(), validInput())
	require.NoError(t, err)
	closed, err := svc.Create(context.Background(), staff(), validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), staff(), closed.ID))

	items, total, err := svc.List(context.Background(), student(), ListFilter{Status: StatusClosed}, shared.Pagination{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)
}

func TestCheckEligibilityCollectsEveryFailingRule(t *testing.T) {
	svc := newTestService(newMockRepository())

	p := &Posting{
		Status:         StatusOpen,
		MinCGPA:        8.0,
		Departments:    []string{"Computer Science"},
		GraduationYear: 2026,
		Deadline:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	profile := &profiles.StudentProfile{
		CGPA:           6.5,
		Department:     "Mechanical Engineering",
		GraduationYear: 2027,
	}

	result := svc.CheckEligibility(p, profile)
	assert.False(t, result.Eligible)
	assert.ElementsMatch(t, []EligibilityReason{ReasonDeadline, ReasonCGPA, ReasonDepartment, ReasonBatch}, result.Reasons)
}

func TestCheckEligibilityPasses(t *testing.T) {
	svc := newTestService(newMockRepository())

	p := &Posting{
		Status:         StatusOpen,
		MinCGPA:        7.0,
		GraduationYear: 2026,
		Deadline:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	profile := &profiles.StudentProfile{
		CGPA:           8.2,
		Department:     "Electronics",
		GraduationYear: 2026,
	}

	result := svc.CheckEligibility(p, profile)
	assert.True(t, result.Eligible)
	assert.Empty(t, result.Reasons)
}
