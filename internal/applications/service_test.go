package applications

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/postings"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

type mockRepository struct {
	apps   map[int64]*Application
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{apps: make(map[int64]*Application), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, a *Application) (int64, error) {
	for _, existing := range m.apps {
		if existing.PostingID == a.PostingID && existing.StudentID == a.StudentID {
			return 0, ErrAlreadyApplied
		}
	}
	id := m.nextID
	m.nextID++
	stored := *a
	stored.ID = id
	m.apps[id] = &stored
	return id, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Application, error) {
	a, ok := m.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) ListByStudent(ctx context.Context, studentID string) ([]Application, error) {
	var out []Application
	for _, a := range m.apps {
		if a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByPosting(ctx context.Context, postingID int64) ([]Row, error) {
	var out []Row
	for _, a := range m.apps {
		if a.PostingID == postingID {
			out = append(out, Row{Application: *a, StudentName: "Test Student", StudentEmail: "student@example.edu"})
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status, reviewedBy string) error {
	a, ok := m.apps[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.ReviewedBy = reviewedBy
	return nil
}

func (m *mockRepository) CountByPosting(ctx context.Context, postingID int64) (int, error) {
	rows, _ := m.ListByPosting(ctx, postingID)
	return len(rows), nil
}

type stubPostingRepo struct {
	postings map[int64]*postings.Posting
}

func (s *stubPostingRepo) Create(ctx context.Context, p *postings.Posting) (int64, error) {
	return 0, nil
}

func (s *stubPostingRepo) Update(ctx context.Context, p *postings.Posting) error { return nil }

func (s *stubPostingRepo) Get(ctx context.Context, id int64) (*postings.Posting, error) {
	p, ok := s.postings[id]
	if !ok {
		return nil, postings.ErrNotFound
	}
	return p, nil
}

func (s *stubPostingRepo) List(ctx context.Context, filter postings.ListFilter) ([]postings.Posting, int, error) {
	return nil, 0, nil
}

func (s *stubPostingRepo) SetStatus(ctx context.Context, id int64, status string) error { return nil }

type stubProfileRepo struct {
	profiles map[string]*profiles.StudentProfile
}

func (s *stubProfileRepo) CreateStudentProfile(ctx context.Context, p *profiles.StudentProfile) error {
	return nil
}

func (s *stubProfileRepo) GetStudentProfile(ctx context.Context, userID string) (*profiles.StudentProfile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) StudentProfileExists(ctx context.Context, userID string) (bool, error) {
	_, ok := s.profiles[userID]
	return ok, nil
}

func (s *stubProfileRepo) MergeSkills(ctx context.Context, userID string, skills []string) error {
	return nil
}

func (s *stubProfileRepo) SetResumeKey(ctx context.Context, userID, key string) error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture() (*Service, *mockRepository) {
	repo := newMockRepository()
	postingRepo := &stubPostingRepo{postings: map[int64]*postings.Posting{
		1: {
			ID:             1,
			Company:        "Initech",
			Status:         postings.StatusOpen,
			MinCGPA:        7.0,
			GraduationYear: 2026,
			Deadline:       time.Now().Add(72 * time.Hour),
		},
	}}
	profileRepo := &stubProfileRepo{profiles: map[string]*profiles.StudentProfile{
		"student-1": {UserID: "student-1", Department: "Computer Science", CGPA: 8.1, GraduationYear: 2026, ResumeKey: "resumes/student-1.pdf"},
		"student-2": {UserID: "student-2", Department: "Computer Science", CGPA: 6.0, GraduationYear: 2026},
	}}
	svc := NewService(repo, postings.NewService(postingRepo, discard()), profiles.NewService(profileRepo), discard())
	return svc, repo
}

func studentIdentity(id string) *shared.Identity {
	return &shared.Identity{ID: id, Role: shared.RoleStudent}
}

func staffIdentity() *shared.Identity {
	return &shared.Identity{ID: "staff-1", Role: shared.RolePlacementStaff}
}

func TestApplyAttachesResumeAndStartsApplied(t *testing.T) {
	svc, _ := newFixture()

	a, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, a.Status)
	assert.Equal(t, "resumes/student-1.pdf", a.ResumeKey)
}

func TestApplyRejectsIneligibleStudent(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Apply(context.Background(), studentIdentity("student-2"), ApplyInput{PostingID: 1})
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestApplyRejectsDuplicate(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestApplyRequiresStudentRole(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Apply(context.Background(), staffIdentity(), ApplyInput{PostingID: 1})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestWithdrawOnlyFromApplied(t *testing.T) {
	svc, _ := newFixture()

	a, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), staffIdentity(), a.ID, StatusShortlisted)
	require.NoError(t, err)

	err = svc.Withdraw(context.Background(), studentIdentity("student-1"), a.ID)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestWithdrawRejectsOtherStudents(t *testing.T) {
	svc, _ := newFixture()

	a, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)

	err = svc.Withdraw(context.Background(), studentIdentity("student-2"), a.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAdvanceFollowsLifecycleOrder(t *testing.T) {
	svc, _ := newFixture()

	a, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)

	// Skipping shortlisted is not allowed.
	_, err = svc.Advance(context.Background(), staffIdentity(), a.ID, StatusOffered)
	assert.ErrorIs(t, err, ErrBadTransition)

	for _, status := range []string{StatusShortlisted, StatusInterview, StatusOffered} {
		updated, err := svc.Advance(context.Background(), staffIdentity(), a.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	// Offered is terminal.
	_, err = svc.Advance(context.Background(), staffIdentity(), a.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestAdvanceRecordsReviewer(t *testing.T) {
	svc, repo := newFixture()

	a, err := svc.Apply(context.Background(), studentIdentity("student-1"), ApplyInput{PostingID: 1})
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), staffIdentity(), a.ID, StatusShortlisted)
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", stored.ReviewedBy)
}

func TestWriteCSVIncludesHeaderAndRows(t *testing.T) {
	rows := []Row{
		{
			Application:    Application{ID: 7, Status: StatusShortlisted, AppliedAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)},
			StudentName:    "Asha Rao",
			StudentEmail:   "asha@example.edu",
			Department:     "Computer Science",
			CGPA:           8.4,
			RegistrationNo: "CS2026041",
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, rows))

	out := sb.String()
	assert.Contains(t, out, "Application ID")
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, "8.40")
	assert.Contains(t, out, "shortlisted")
}
