package quizzes

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

type mockRepository struct {
	quizzes         map[int64]*Quiz
	attempts        map[string]*Attempt
	nextID          int64
	leaderboardHits int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quizzes:  make(map[int64]*Quiz),
		attempts: make(map[string]*Attempt),
		nextID:   1,
	}
}

func attemptKey(quizID int64, studentID string) string {
	return studentID + "/" + strconv.FormatInt(quizID, 10)
}

func (m *mockRepository) CreateQuiz(ctx context.Context, q *Quiz) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *q
	stored.ID = id
	m.quizzes[id] = &stored
	return id, nil
}

func (m *mockRepository) GetQuiz(ctx context.Context, id int64) (*Quiz, error) {
	q, ok := m.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockRepository) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	var out []Quiz
	for _, q := range m.quizzes {
		summary := *q
		summary.Questions = nil
		out = append(out, summary)
	}
	return out, nil
}

func (m *mockRepository) CreateAttempt(ctx context.Context, a *Attempt) (int64, error) {
	key := attemptKey(a.QuizID, a.StudentID)
	if _, ok := m.attempts[key]; ok {
		return 0, ErrAlreadyAttempted
	}
	id := m.nextID
	m.nextID++
	stored := *a
	stored.ID = id
	stored.SubmittedAt = time.Now()
	m.attempts[key] = &stored
	return id, nil
}

func (m *mockRepository) GetAttempt(ctx context.Context, quizID int64, studentID string) (*Attempt, error) {
	a, ok := m.attempts[attemptKey(quizID, studentID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) Leaderboard(ctx context.Context, quizID int64, limit int) ([]LeaderboardEntry, error) {
	m.leaderboardHits++
	var out []LeaderboardEntry
	rank := 0
	for _, a := range m.attempts {
		if a.QuizID != quizID {
			continue
		}
		rank++
		out = append(out, LeaderboardEntry{Rank: rank, StudentID: a.StudentID, Score: a.Score, Total: a.Total})
	}
	return out, nil
}

func newFixture(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, NewCache(client, time.Minute), logger), repo
}

func staff() *shared.Identity {
	return &shared.Identity{ID: "staff-1", Role: shared.RolePlacementStaff}
}

func student(id string) *shared.Identity {
	return &shared.Identity{ID: id, Role: shared.RoleStudent}
}

func sampleInput() CreateInput {
	return CreateInput{
		Title:       "Aptitude Round 1",
		Topic:       "Quantitative",
		DurationMin: 30,
		Questions: []QuestionInput{
			{Prompt: "2 + 2", Options: []string{"3", "4", "5"}, CorrectOption: 1},
			{Prompt: "10 / 2", Options: []string{"5", "2"}, CorrectOption: 0},
			{Prompt: "3 * 3", Options: []string{"6", "9"}, CorrectOption: 1},
		},
	}
}

func TestCreateRequiresPlacementStaff(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(context.Background(), student("student-1"), sampleInput())
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRejectsCorrectOptionOutOfRange(t *testing.T) {
	svc, _ := newFixture(t)

	in := sampleInput()
	in.Questions[0].CorrectOption = 5
	_, err := svc.Create(context.Background(), staff(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSubmitScoresServerSide(t *testing.T) {
	svc, _ := newFixture(t)

	quiz, err := svc.Create(context.Background(), staff(), sampleInput())
	require.NoError(t, err)

	attempt, err := svc.Submit(context.Background(), student("student-1"), quiz.ID, []int{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, attempt.Score)
	assert.Equal(t, 3, attempt.Total)
}

func TestSubmitRejectsSecondAttempt(t *testing.T) {
	svc, _ := newFixture(t)

	quiz, err := svc.Create(context.Background(), staff(), sampleInput())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), student("student-1"), quiz.ID, []int{1, 0, 1})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), student("student-1"), quiz.ID, []int{1, 0, 1})
	assert.ErrorIs(t, err, ErrAlreadyAttempted)
}

func TestSubmitRejectsAnswerCountMismatch(t *testing.T) {
	svc, _ := newFixture(t)

	quiz, err := svc.Create(context.Background(), staff(), sampleInput())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), student("student-1"), quiz.ID, []int{1})
	assert.ErrorIs(t, err, ErrAnswerCount)
}

func TestLeaderboardIsCachedUntilNewAttempt(t *testing.T) {
	svc, repo := newFixture(t)

	quiz, err := svc.Create(context.Background(), staff(), sampleInput())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), student("student-1"), quiz.ID, []int{1, 0, 1})
	require.NoError(t, err)

	_, err = svc.Leaderboard(context.Background(), quiz.ID)
	require.NoError(t, err)
	_, err = svc.Leaderboard(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.leaderboardHits)

	// A new attempt invalidates the cache, so the next read rebuilds.
	_, err = svc.Submit(context.Background(), student("student-2"), quiz.ID, []int{1, 0, 0})
	require.NoError(t, err)

	entries, err := svc.Leaderboard(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.leaderboardHits)
	assert.Len(t, entries, 2)
}
