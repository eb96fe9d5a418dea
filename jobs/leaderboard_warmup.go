package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campushire/campushire/internal/jobs"
	"github.com/campushire/campushire/internal/quizzes"
)

const defaultWarmupQuizLimit = 25

// LeaderboardWarmupJob rebuilds quiz leaderboard caches before the morning
// traffic peak.
type LeaderboardWarmupJob struct {
	Quizzes *quizzes.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLeaderboardWarmupJob wires dependencies for the warmup handler.
func NewLeaderboardWarmupJob(quizSvc *quizzes.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LeaderboardWarmupJob {
	return &LeaderboardWarmupJob{Quizzes: quizSvc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLeaderboardWarmup tasks.
func (j *LeaderboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("leaderboard warmup: handler not configured")
	}
	var payload LeaderboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.QuizLimit <= 0 {
		payload.QuizLimit = defaultWarmupQuizLimit
	}

	tracker := j.Metrics.Track(TaskLeaderboardWarmup)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	list, err := j.Quizzes.List(ctx)
	if err != nil {
		resultErr = err
		return resultErr
	}
	warmed := 0
	for _, quiz := range list {
		if warmed >= payload.QuizLimit {
			break
		}
		if _, err := j.Quizzes.Leaderboard(ctx, quiz.ID); err != nil {
			j.Logger.Warn("leaderboard warmup", slog.Int64("quiz_id", quiz.ID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.Logger.Info("leaderboards warmed", slog.Int("count", warmed))
	return nil
}
