package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/shared"
)

type fakeRepo struct {
	users  map[int64]*User
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]*User), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, name, email, passwordHash string) (int64, error) {
	id := f.nextID
	f.nextID++
	f.users[id] = &User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, Activated: true, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) FindActivated(_ context.Context, nameOrEmail string) (*User, error) {
	for _, u := range f.users {
		if u.Activated && (u.Name == nameOrEmail || u.Email == nameOrEmail) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, u := range f.users {
		if u.Activated && u.Name == name && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range f.users {
		if u.Activated && u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, p Patch) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
	if p.Signature != nil {
		u.Signature = p.Signature
	}
	if p.Activated != nil {
		u.Activated = *p.Activated
	}
	return nil
}

func (f *fakeRepo) RecordLogin(_ context.Context, id int64, at time.Time, ip string) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLogin = &at
	u.LastIP = &ip
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) Search(_ context.Context, q SearchQuery) ([]User, error) {
	return nil, nil
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret99")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret99", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice", "s3cret99", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLogin)
	require.Equal(t, "10.0.0.1", *got.LastIP)

	// Email works as the login handle too.
	_, err = svc.Authenticate(ctx, "alice@example.com", "s3cret99", "10.0.0.1")
	require.NoError(t, err)
}

func TestAuthenticateRejectsBadPassword(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Signup(ctx, "bob", "bob@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "bob", "wrong", "::1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "hunter22", "::1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignupUniqueness(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Signup(ctx, "carol", "carol@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "carol", "other@example.com", "password1")
	require.ErrorIs(t, err, ErrNameTaken)

	_, err = svc.Signup(ctx, "other", "carol@example.com", "password1")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeactivatedNameIsReusable(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Signup(ctx, "dan", "dan@example.com", "password1")
	require.NoError(t, err)

	off := false
	_, err = svc.AdminUpdate(ctx, first.ID, Patch{Activated: &off})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "dan", "dan2@example.com", "password1")
	require.NoError(t, err)

	// The deactivated account no longer authenticates either.
	_, err = svc.Authenticate(ctx, "dan@example.com", "password1", "::1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestUpdateProfileNameConflict(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Signup(ctx, "erin", "erin@example.com", "password1")
	require.NoError(t, err)
	frank, err := svc.Signup(ctx, "frank", "frank@example.com", "password1")
	require.NoError(t, err)

	name := "erin"
	_, err = svc.UpdateProfile(ctx, frank.ID, ProfilePatch{Name: &name})
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestResetPassword(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	user, err := svc.Signup(ctx, "grace", "grace@example.com", "oldpassword")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "newpassword"))

	_, err = svc.Authenticate(ctx, "grace", "oldpassword", "::1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "grace", "newpassword", "::1")
	require.NoError(t, err)
}

func TestSearchValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchQuery{Combinator: "and"})
	require.Error(t, err)

	_, err = svc.Search(ctx, SearchQuery{
		Combinator: "nand",
		Filters:    []SearchFilter{{Field: "name", Value: "a"}},
	})
	require.Error(t, err)

	_, err = svc.Search(ctx, SearchQuery{
		Combinator: "or",
		Filters:    []SearchFilter{{Field: "password_hash", Value: "x"}},
	})
	require.Error(t, err)

	_, err = svc.Search(ctx, SearchQuery{
		Combinator: "or",
		Filters:    []SearchFilter{{Field: "name", Value: "a"}},
	})
	require.NoError(t, err)
}
