package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/shared"
)

func TestSubjectNamespaces(t *testing.T) {
	email, ok := CutAddrSubject(AddrSubject("a@b.c"))
	require.True(t, ok)
	require.Equal(t, "a@b.c", email)

	id, ok := CutUserSubject(UserSubject(42))
	require.True(t, ok)
	require.EqualValues(t, 42, id)

	_, ok = CutAddrSubject(UserSubject(42))
	require.False(t, ok)
	_, ok = CutUserSubject(AddrSubject("a@b.c"))
	require.False(t, ok)
	_, ok = CutUserSubject("user:nope")
	require.False(t, ok)
	_, ok = CutUserSubject("5")
	require.False(t, ok)
}

func TestRedeemedSubjectKeepsNamespace(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()
	sess := &shared.Session{}

	require.NoError(t, svc.IssueEmail(ctx, sess, UserSubject(5), "victim@example.com"))
	res, err := svc.Redeem(ctx, sess, KindEmail, sender.code, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)

	// The redeemed subject names an account, so address flows reject it.
	_, ok := CutAddrSubject(res.Subject)
	require.False(t, ok)
	id, ok := CutUserSubject(res.Subject)
	require.True(t, ok)
	require.EqualValues(t, 5, id)
}
