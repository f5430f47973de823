package users

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/shared"
	"github.com/quillboard/quillboard/internal/verify"
	_ "github.com/quillboard/quillboard/testing"
)

type plainRenderer struct{}

func (plainRenderer) Render(code string) ([]byte, error) { return []byte(code), nil }

type codeRecorder struct {
	to   string
	code string
}

func (c *codeRecorder) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	c.to = to
	c.code = code
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo, *verify.Service, *codeRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sender := &codeRecorder{}
	verifier := verify.NewService(verify.NewStore(client), plainRenderer{}, sender, verify.Config{
		CaptchaTTL:    time.Minute,
		CaptchaLength: 4,
		EmailTTL:      time.Minute,
		EmailLength:   6,
	})
	repo := newFakeRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo), verifier, false), repo, verifier, sender
}

func postJSON(t *testing.T, handle http.HandlerFunc, sess *shared.Session, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	handle(rec, req)
	return rec
}

func TestSignupUsesVerifiedAddress(t *testing.T) {
	h, repo, verifier, sender := newTestHandler(t)
	sess := &shared.Session{}
	require.NoError(t, verifier.IssueEmail(context.Background(), sess,
		verify.AddrSubject("new@example.com"), "new@example.com"))

	rec := postJSON(t, h.handleSignup, sess, map[string]any{
		"name":       "alice",
		"password":   "hunter22",
		"email_code": sender.code,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := repo.FindActivated(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", u.Email)
}

func TestSignupRejectsAccountScopedChallenge(t *testing.T) {
	h, repo, verifier, sender := newTestHandler(t)
	sess := &shared.Session{}
	// A reset challenge names an account, not an address. Redeeming it
	// through signup must not mint an account from its subject.
	require.NoError(t, verifier.IssueEmail(context.Background(), sess,
		verify.UserSubject(5), "victim@example.com"))

	rec := postJSON(t, h.handleSignup, sess, map[string]any{
		"name":       "mallory",
		"password":   "hunter22",
		"email_code": sender.code,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	_, err := repo.FindActivated(context.Background(), "mallory")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPasswordRejectsAddressChallenge(t *testing.T) {
	h, _, verifier, sender := newTestHandler(t)
	sess := &shared.Session{}
	require.NoError(t, verifier.IssueEmail(context.Background(), sess,
		verify.AddrSubject("a@example.com"), "a@example.com"))

	rec := postJSON(t, h.handleResetPassword, sess, map[string]any{
		"code":     sender.code,
		"password": "newsecret",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResetPasswordEmailRejectsLoggedIn(t *testing.T) {
	h, _, _, sender := newTestHandler(t)
	sess := &shared.Session{}
	sess.SetUser("7")

	rec := postJSON(t, h.handleResetPasswordEmail, sess, map[string]any{"account": "someone"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, sender.code)
}
