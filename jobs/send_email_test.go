package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailJobDeliversPayload(t *testing.T) {
	job := NewSendEmailJob(SMTPConfig{Host: "127.0.0.1", Port: 1025, From: "no-reply@campushire.local"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	job.send = func(addr, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	task, err := NewSendEmailTask(SendEmailPayload{To: "asha@example.edu", Subject: "Hello", Body: "Hi there"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, "127.0.0.1:1025", gotAddr)
	assert.Equal(t, "no-reply@campushire.local", gotFrom)
	assert.Equal(t, []string{"asha@example.edu"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hello")
	assert.Contains(t, string(gotMsg), "Hi there")
}

func TestSendEmailJobSkipsMalformedPayload(t *testing.T) {
	job := NewSendEmailJob(SMTPConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	job.send = func(addr, from string, to []string, msg []byte) error {
		t.Fatal("send should not be called")
		return nil
	}

	err := job.Handle(context.Background(), asynq.NewTask(TaskSendEmail, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
