package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillboard/quillboard/internal/platform/mail"
)

// CodeSender delivers verification codes through the mail queue. When the
// queue is unreachable it falls back to synchronous delivery so a Redis
// hiccup does not block signups.
type CodeSender struct {
	client   *Client
	fallback mail.Mailer
	siteName string
	logger   *slog.Logger
}

// NewCodeSender constructs a CodeSender.
func NewCodeSender(client *Client, fallback mail.Mailer, siteName string, logger *slog.Logger) *CodeSender {
	return &CodeSender{client: client, fallback: fallback, siteName: siteName, logger: logger}
}

// SendCode enqueues a verification code email.
func (s *CodeSender) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	subject := fmt.Sprintf("[%s] Your verification code", s.siteName)
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(ttl.Minutes()))

	if s.client != nil {
		_, err := s.client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
		if err == nil {
			return nil
		}
		s.logger.Warn("enqueue mail task", slog.Any("error", err))
	}
	if s.fallback == nil {
		return fmt.Errorf("jobs: no mail path available for %s", to)
	}
	return s.fallback.Deliver(to, subject, body)
}
