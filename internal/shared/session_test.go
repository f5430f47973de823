package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/quillboard/quillboard/testing"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "quillboard_session", "test-secret", time.Hour, false)
}

func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("captcha_id", "abc123")
	sess.SetUser("42")
	cookie := commit(t, sm, sess)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "abc123", loaded.Get("captcha_id"))
	require.Equal(t, "42", loaded.User())
}

func TestSessionDeleteValue(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("email_id", "xyz")
	cookie := commit(t, sm, sess)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	loaded.Delete("email_id")
	cookie = commit(t, sm, loaded)

	third := httptest.NewRequest(http.MethodGet, "/", nil)
	third.AddCookie(cookie)
	final, err := sm.Load(ctx, third)
	require.NoError(t, err)
	require.Empty(t, final.Get("email_id"))
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("7")
	cookie := commit(t, sm, sess)

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	expired := rec.Result().Cookies()[0]
	require.Less(t, expired.MaxAge, 0)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	require.Empty(t, loaded.User())
}

func TestClearUserKeepsValues(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("7")
	sess.Set("captcha_id", "keepme")
	cookie := commit(t, sm, sess)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	loaded.ClearUser()
	cookie = commit(t, sm, loaded)

	third := httptest.NewRequest(http.MethodGet, "/", nil)
	third.AddCookie(cookie)
	final, err := sm.Load(ctx, third)
	require.NoError(t, err)
	require.Empty(t, final.User())
	require.Equal(t, "keepme", final.Get("captcha_id"))
}
