// Package jobs contains the background task definitions and the Asynq
// worker plumbing around them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/quillboard/quillboard/internal/platform/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
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
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks by delivering
// through the configured mailer. Delivery errors are returned so Asynq
// retries with backoff; malformed payloads are dropped.
func NewSendEmailHandler(mailer mail.Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("drop malformed mail task", slog.Any("error", err))
			return asynq.SkipRetry
		}
		if err := mailer.Deliver(payload.To, payload.Subject, payload.Body); err != nil {
			logger.Warn("mail delivery failed", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}
