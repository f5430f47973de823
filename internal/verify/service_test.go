package verify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/shared"
	_ "github.com/quillboard/quillboard/testing"
)

type staticRenderer struct{}

func (staticRenderer) Render(code string) ([]byte, error) {
	return []byte("<svg>" + code + "</svg>"), nil
}

type recordingSender struct {
	to   string
	code string
}

func (s *recordingSender) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	s.to = to
	s.code = code
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingSender, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sender := &recordingSender{}
	svc := NewService(NewStore(client), staticRenderer{}, sender, Config{
		CaptchaTTL:    5 * time.Minute,
		CaptchaLength: 4,
		EmailTTL:      10 * time.Minute,
		EmailLength:   4,
	})
	return svc, sender, mr
}

// storedCaptcha reads the answer back through the store using the session
// correlation id, the same way Redeem resolves it.
func storedCaptcha(t *testing.T, svc *Service, sess *shared.Session) string {
	t.Helper()
	id := sess.Get(SessionKeyCaptcha)
	require.NotEmpty(t, id)
	code, ok, err := svc.store.GetCaptcha(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return code
}

func TestCaptchaRedeemSuccessThenReplay(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	img, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	require.Contains(t, string(img), "<svg>")

	code := storedCaptcha(t, svc, sess)
	res, err := svc.Redeem(ctx, sess, KindCaptcha, code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.True(t, res.OK())

	// The first redemption consumed both the session id and the entry,
	// so replaying the same answer finds nothing pending.
	res, err = svc.Redeem(ctx, sess, KindCaptcha, code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestCaptchaWrongAnswerIsRetryable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	_, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	code := storedCaptcha(t, svc, sess)

	res, err := svc.Redeem(ctx, sess, KindCaptcha, "nope", "")
	require.NoError(t, err)
	require.Equal(t, OutcomeMismatch, res.Outcome)

	// Wrong answers leave the challenge pending until the TTL reaps it.
	res, err = svc.Redeem(ctx, sess, KindCaptcha, code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestCaptchaComparesCaseInsensitively(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	_, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	code := storedCaptcha(t, svc, sess)

	res, err := svc.Redeem(ctx, sess, KindCaptcha, strings.ToUpper(code), "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestCaptchaExpiry(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	_, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	code := storedCaptcha(t, svc, sess)

	mr.FastForward(6 * time.Minute)

	res, err := svc.Redeem(ctx, sess, KindCaptcha, code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeExpired, res.Outcome)
	require.Empty(t, sess.Get(SessionKeyCaptcha))

	// The pending id is gone, so a second attempt is no longer "expired".
	res, err = svc.Redeem(ctx, sess, KindCaptcha, code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestIssueCaptchaSupersedesPrevious(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	_, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	first := storedCaptcha(t, svc, sess)

	_, err = svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	second := storedCaptcha(t, svc, sess)

	// Only the newest challenge is redeemable through the session.
	if first == second {
		t.Skip("codes collided; nothing to distinguish")
	}
	res, err := svc.Redeem(ctx, sess, KindCaptcha, first, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeMismatch, res.Outcome)

	res, err = svc.Redeem(ctx, sess, KindCaptcha, second, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestEmailRedeemCarriesSubject(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	require.NoError(t, svc.IssueEmail(ctx, sess, "alice@example.com", "alice@example.com"))
	require.Equal(t, "alice@example.com", sender.to)
	require.NotEmpty(t, sender.code)

	res, err := svc.Redeem(ctx, sess, KindEmail, sender.code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, "alice@example.com", res.Subject)
}

func TestEmailSubjectMismatchIsTerminal(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	require.NoError(t, svc.IssueEmail(ctx, sess, "alice@example.com", "alice@example.com"))

	res, err := svc.Redeem(ctx, sess, KindEmail, sender.code, "mallory@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeMismatch, res.Outcome)

	// A subject mismatch cleared the pending id, so even the right
	// subject cannot resurrect the challenge.
	res, err = svc.Redeem(ctx, sess, KindEmail, sender.code, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestEmailWrongCodeKeepsChallenge(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	require.NoError(t, svc.IssueEmail(ctx, sess, "42", "bob@example.com"))

	res, err := svc.Redeem(ctx, sess, KindEmail, "wrong", "42")
	require.NoError(t, err)
	require.Equal(t, OutcomeMismatch, res.Outcome)

	res, err = svc.Redeem(ctx, sess, KindEmail, sender.code, "42")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, "42", res.Subject)
}

func TestKindsDoNotInterfere(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	_, err := svc.IssueCaptcha(ctx, sess)
	require.NoError(t, err)
	captcha := storedCaptcha(t, svc, sess)
	require.NoError(t, svc.IssueEmail(ctx, sess, "x@example.com", "x@example.com"))

	res, err := svc.Redeem(ctx, sess, KindCaptcha, captcha, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)

	res, err = svc.Redeem(ctx, sess, KindEmail, sender.code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestNewCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.NotContains(t, code, "l")
	}
}
