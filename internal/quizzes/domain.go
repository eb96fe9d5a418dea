package quizzes

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the quiz or attempt does not exist.
	ErrNotFound = errors.New("quizzes: not found")
	// ErrAlreadyAttempted indicates the student already took the quiz.
	ErrAlreadyAttempted = errors.New("quizzes: already attempted")
	// ErrAnswerCount indicates the submission length does not match the quiz.
	ErrAnswerCount = errors.New("quizzes: answer count mismatch")
)

// Question is a multiple-choice question. CorrectOption is the index into
// Options and never leaves the server.
type Question struct {
	ID            int64    `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"-"`
}

// Quiz is a timed practice test published by placement staff.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Topic       string     `json:"topic"`
	DurationMin int        `json:"duration_min"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Attempt is a student's scored submission.
type Attempt struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	StudentID   string    `json:"student_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// LeaderboardEntry is one ranked row of a quiz leaderboard.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}
