package quizzes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

const leaderboardSize = 20

// Service owns quiz publication, scoring and leaderboards.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs a quiz service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// QuestionInput carries one question of a quiz submission.
type QuestionInput struct {
	Prompt        string
	Options       []string
	CorrectOption int
}

// CreateInput carries the fields for a new quiz.
type CreateInput struct {
	Title       string
	Topic       string
	DurationMin int
	Questions   []QuestionInput
}

// Create publishes a quiz on behalf of placement staff.
func (s *Service) Create(ctx context.Context, actor *shared.Identity, in CreateInput) (*Quiz, error) {
	if actor.Role != shared.RolePlacementStaff {
		return nil, fmt.Errorf("create quiz: %w", httpx.ErrForbidden)
	}
	if len(in.Questions) == 0 {
		return nil, fmt.Errorf("quiz needs at least one question: %w", httpx.ErrValidation)
	}
	q := &Quiz{
		Title:       in.Title,
		Topic:       in.Topic,
		DurationMin: in.DurationMin,
		CreatedBy:   actor.ID,
	}
	for i, question := range in.Questions {
		if len(question.Options) < 2 {
			return nil, fmt.Errorf("question %d needs at least two options: %w", i+1, httpx.ErrValidation)
		}
		if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
			return nil, fmt.Errorf("question %d correct option out of range: %w", i+1, httpx.ErrValidation)
		}
		q.Questions = append(q.Questions, Question{
			Prompt:        question.Prompt,
			Options:       question.Options,
			CorrectOption: question.CorrectOption,
		})
	}
	id, err := s.repo.CreateQuiz(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	q.ID = id
	s.logger.Info("quiz created", "quiz_id", id, "questions", len(q.Questions), "by", actor.ID)
	return q, nil
}

// List returns quiz summaries.
func (s *Service) List(ctx context.Context) ([]Quiz, error) {
	quizzes, err := s.repo.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Get fetches a quiz with its questions. Correct answers are stripped from
// the JSON encoding, so this is safe to serve to students.
func (s *Service) Get(ctx context.Context, id int64) (*Quiz, error) {
	q, err := s.repo.GetQuiz(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// Submit scores a student's answers server side. Answers map positionally
// onto the quiz questions; -1 marks a skipped question. One attempt per
// student per quiz.
func (s *Service) Submit(ctx context.Context, actor *shared.Identity, quizID int64, answers []int) (*Attempt, error) {
	if actor.Role != shared.RoleStudent {
		return nil, fmt.Errorf("submit quiz: %w", httpx.ErrForbidden)
	}
	q, err := s.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("submit quiz: %w", err)
	}
	if len(answers) != len(q.Questions) {
		return nil, fmt.Errorf("got %d answers for %d questions: %w", len(answers), len(q.Questions), ErrAnswerCount)
	}
	score := 0
	for i, question := range q.Questions {
		if answers[i] == question.CorrectOption {
			score++
		}
	}
	attempt := &Attempt{
		QuizID:    quizID,
		StudentID: actor.ID,
		Score:     score,
		Total:     len(q.Questions),
	}
	id, err := s.repo.CreateAttempt(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("submit quiz: %w", err)
	}
	attempt.ID = id
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.logger.Warn("leaderboard invalidate failed", "quiz_id", quizID, slog.Any("error", err))
	}
	s.logger.Info("quiz attempt scored", "quiz_id", quizID, "student_id", actor.ID, "score", score, "total", attempt.Total)
	return attempt, nil
}

// OwnAttempt returns the acting student's attempt for a quiz if one exists.
func (s *Service) OwnAttempt(ctx context.Context, actor *shared.Identity, quizID int64) (*Attempt, error) {
	a, err := s.repo.GetAttempt(ctx, quizID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("own attempt: %w", err)
	}
	return a, nil
}

// Leaderboard returns the top attempts for a quiz. Results are cached in
// Redis and concurrent rebuilds for the same quiz collapse into one query.
func (s *Service) Leaderboard(ctx context.Context, quizID int64) ([]LeaderboardEntry, error) {
	key := strconv.FormatInt(quizID, 10)
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.FetchLeaderboard(ctx, quizID, func(ctx context.Context) ([]LeaderboardEntry, error) {
			return s.repo.Leaderboard(ctx, quizID, leaderboardSize)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries, _ := result.([]LeaderboardEntry)
	return entries, nil
}
