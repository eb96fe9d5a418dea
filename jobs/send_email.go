package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campushire/campushire/internal/jobs"
)

// SMTPConfig addresses the outbound mail relay.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// SendEmailJob delivers queued transactional mail over SMTP.
type SendEmailJob struct {
	Config  SMTPConfig
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics

	// send is swappable in tests.
	send func(addr, from string, to []string, msg []byte) error
}

// NewSendEmailJob wires dependencies for the mail handler.
func NewSendEmailJob(cfg SMTPConfig, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Handle processes TaskSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("send email: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskSendEmail)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", j.Config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", payload.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", payload.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(payload.Body)

	addr := fmt.Sprintf("%s:%d", j.Config.Host, j.Config.Port)
	if resultErr = j.send(addr, j.Config.From, []string{payload.To}, []byte(msg.String())); resultErr != nil {
		j.Logger.Error("send email", slog.String("to", payload.To), slog.Any("error", resultErr))
		return resultErr
	}
	j.Logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
