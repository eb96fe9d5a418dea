package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSendEmail delivers transactional email.
	TaskSendEmail = "mail:send"
	// TaskResumeScan extracts skills from an uploaded resume.
	TaskResumeScan = "resume:scan"
	// TaskLeaderboardWarmup pre-populates quiz leaderboard caches.
	TaskLeaderboardWarmup = "quiz:leaderboard_warmup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, data), nil
}

// ResumeScanPayload identifies the resume to run through the skill
// extraction service.
type ResumeScanPayload struct {
	UserID    string `json:"user_id"`
	ResumeKey string `json:"resume_key"`
}

// NewResumeScanTask constructs an Asynq task.
func NewResumeScanTask(payload ResumeScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskResumeScan, data), nil
}

// LeaderboardWarmupPayload bounds how many recent quizzes get warmed.
type LeaderboardWarmupPayload struct {
	QuizLimit int `json:"quiz_limit"`
}

// NewLeaderboardWarmupTask constructs an Asynq task.
func NewLeaderboardWarmupTask(payload LeaderboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeaderboardWarmup, data), nil
}
