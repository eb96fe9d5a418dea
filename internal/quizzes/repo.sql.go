package quizzes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for quizzes and attempts.
type Repository interface {
	CreateQuiz(ctx context.Context, q *Quiz) (int64, error)
	GetQuiz(ctx context.Context, id int64) (*Quiz, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)
	CreateAttempt(ctx context.Context, a *Attempt) (int64, error)
	GetAttempt(ctx context.Context, quizID int64, studentID string) (*Attempt, error)
	Leaderboard(ctx context.Context, quizID int64, limit int) ([]LeaderboardEntry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateQuiz inserts a quiz and its questions in one transaction.
func (r *PGRepository) CreateQuiz(ctx context.Context, q *Quiz) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO quizzes (title, topic, duration_min, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		q.Title, q.Topic, q.DurationMin, q.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	for i := range q.Questions {
		err = tx.QueryRow(ctx, `
			INSERT INTO quiz_questions (quiz_id, position, prompt, options, correct_option)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			id, i, q.Questions[i].Prompt, q.Questions[i].Options, q.Questions[i].CorrectOption,
		).Scan(&q.Questions[i].ID)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetQuiz fetches a quiz with its questions in position order.
func (r *PGRepository) GetQuiz(ctx context.Context, id int64) (*Quiz, error) {
	var q Quiz
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, topic, duration_min, created_by, created_at FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.Topic, &q.DurationMin, &q.CreatedBy, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, options, correct_option FROM quiz_questions WHERE quiz_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var question Question
		if err := rows.Scan(&question.ID, &question.Prompt, &question.Options, &question.CorrectOption); err != nil {
			return nil, err
		}
		q.Questions = append(q.Questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuizzes returns quiz summaries without questions, newest first.
func (r *PGRepository) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, topic, duration_min, created_by, created_at FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quiz
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Topic, &q.DurationMin, &q.CreatedBy, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CreateAttempt records a scored attempt. A unique index on
// (quiz_id, student_id) backs the single-attempt rule.
func (r *PGRepository) CreateAttempt(ctx context.Context, a *Attempt) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quiz_attempts (quiz_id, student_id, score, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.QuizID, a.StudentID, a.Score, a.Total,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlreadyAttempted
		}
		return 0, err
	}
	return id, nil
}

// GetAttempt fetches a student's attempt for a quiz.
func (r *PGRepository) GetAttempt(ctx context.Context, quizID int64, studentID string) (*Attempt, error) {
	var a Attempt
	err := r.pool.QueryRow(ctx, `
		SELECT id, quiz_id, student_id, score, total, submitted_at
		FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Score, &a.Total, &a.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Leaderboard ranks attempts by score, earlier submission breaking ties.
func (r *PGRepository) Leaderboard(ctx context.Context, quizID int64, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT qa.student_id, acc.first_name || ' ' || acc.last_name, qa.score, qa.total, qa.submitted_at
		FROM quiz_attempts qa
		JOIN accounts acc ON acc.id = qa.student_id
		WHERE qa.quiz_id = $1
		ORDER BY qa.score DESC, qa.submitted_at ASC
		LIMIT $2`, quizID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.StudentID, &e.StudentName, &e.Score, &e.Total, &e.SubmittedAt); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
