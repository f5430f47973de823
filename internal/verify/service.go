package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillboard/quillboard/internal/shared"
)

// Renderer turns a captcha code into image bytes. The rendering itself is an
// opaque capability; see SVGRenderer for the built-in one.
type Renderer interface {
	Render(code string) ([]byte, error)
}

// CodeSender delivers an email verification code to an address. Production
// wiring enqueues an asynq mail task; tests inject a recorder.
type CodeSender interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// Config bounds challenge lifetime and code size per kind.
type Config struct {
	CaptchaTTL    time.Duration
	CaptchaLength int
	EmailTTL      time.Duration
	EmailLength   int
}

// Service is the verification engine. It owns challenge issuance and
// redemption; challenge state lives in the Store and the visitor session.
type Service struct {
	store    *Store
	renderer Renderer
	sender   CodeSender
	cfg      Config
}

// NewService constructs the engine.
func NewService(store *Store, renderer Renderer, sender CodeSender, cfg Config) *Service {
	return &Service{store: store, renderer: renderer, sender: sender, cfg: cfg}
}

// IssueCaptcha creates a fresh captcha challenge for the visitor and returns
// the rendered image. Any prior pending captcha for this visitor is
// superseded: only the newest correlation id remains redeemable.
func (s *Service) IssueCaptcha(ctx context.Context, sess *shared.Session) ([]byte, error) {
	id, err := NewCorrelationID()
	if err != nil {
		return nil, err
	}
	code, err := NewCode(s.cfg.CaptchaLength)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutCaptcha(ctx, id, code, s.cfg.CaptchaTTL); err != nil {
		return nil, err
	}
	img, err := s.renderer.Render(code)
	if err != nil {
		return nil, fmt.Errorf("verify: render captcha: %w", err)
	}
	sess.Set(SessionKeyCaptcha, id)
	return img, nil
}

// IssueEmail creates an email challenge bound to subject and delivers the
// code to the given address. The subject is what is being verified — the
// address itself during signup or an email change, the user id during a
// password reset — and redemption can later insist on it.
func (s *Service) IssueEmail(ctx context.Context, sess *shared.Session, subject, to string) error {
	id, err := NewCorrelationID()
	if err != nil {
		return err
	}
	code, err := NewCode(s.cfg.EmailLength)
	if err != nil {
		return err
	}
	if err := s.store.PutEmail(ctx, id, code, subject, s.cfg.EmailTTL); err != nil {
		return err
	}
	if err := s.sender.SendCode(ctx, to, code, s.cfg.EmailTTL); err != nil {
		return fmt.Errorf("verify: deliver code: %w", err)
	}
	sess.Set(SessionKeyEmail, id)
	return nil
}

// Redeem resolves the visitor's pending challenge of the given kind against
// the submitted answer. Captcha answers compare case-insensitively, email
// codes exactly. For email challenges a non-empty expectedSubject must equal
// the subject stored at issuance; a subject mismatch is terminal and clears
// the pending id, while a wrong code leaves it in place for retry until the
// TTL reaps it. On success both the session correlation id and the store
// entry are removed, so replaying the same answer fails with
// OutcomeNotFound. Failed attempts never mutate store state.
func (s *Service) Redeem(ctx context.Context, sess *shared.Session, kind Kind, answer, expectedSubject string) (Result, error) {
	key := kind.SessionKey()
	id := sess.Get(key)
	if id == "" {
		return Result{Outcome: OutcomeNotFound}, nil
	}

	if kind == KindCaptcha {
		stored, ok, err := s.store.GetCaptcha(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			sess.Delete(key)
			return Result{Outcome: OutcomeExpired}, nil
		}
		if !strings.EqualFold(stored, answer) {
			return Result{Outcome: OutcomeMismatch}, nil
		}
		sess.Delete(key)
		if err := s.store.Delete(ctx, kind, id); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeSuccess}, nil
	}

	code, subject, ok, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		sess.Delete(key)
		return Result{Outcome: OutcomeExpired}, nil
	}
	if expectedSubject != "" && subject != expectedSubject {
		sess.Delete(key)
		return Result{Outcome: OutcomeMismatch}, nil
	}
	if code != answer {
		return Result{Outcome: OutcomeMismatch}, nil
	}
	sess.Delete(key)
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeSuccess, Subject: subject}, nil
}
