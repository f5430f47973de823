package places

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	_ "github.com/quillboard/quillboard/testing"
)

type fakeRepo struct {
	addrs []Address
}

func (f *fakeRepo) Create(_ context.Context, name string, description *string, lat, lng float64) (int64, error) {
	for _, a := range f.addrs {
		if a.Name == name {
			return 0, ErrAddressExists
		}
	}
	id := int64(len(f.addrs) + 1)
	f.addrs = append(f.addrs, Address{ID: id, Name: name, Description: description, Lat: lat, Lng: lng})
	return id, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Address, error) {
	for _, a := range f.addrs {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrAddressNotFound
}

func (f *fakeRepo) List(_ context.Context, nameLike string, limit, offset int) ([]Address, error) {
	var matched []Address
	for _, a := range f.addrs {
		if nameLike == "" || strings.Contains(a.Name, nameLike) {
			matched = append(matched, a)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeRepo) Update(context.Context, int64, *string, *string, *float64, *float64) error {
	return nil
}

func (f *fakeRepo) Delete(context.Context, int64) error { return nil }

func seeded(n int) *fakeRepo {
	repo := &fakeRepo{}
	for i := 0; i < n; i++ {
		_, _ = repo.Create(context.Background(), "spot-"+strings.Repeat("x", i+1), nil, 0, 0)
	}
	return repo
}

func TestListCapsPageSize(t *testing.T) {
	svc := NewService(seeded(25))
	ctx := context.Background()

	_, err := svc.List(ctx, "", 21, 0)
	require.ErrorIs(t, err, httpx.ErrValidation)

	page, err := svc.List(ctx, "", 20, 0)
	require.NoError(t, err)
	require.Len(t, page, 20)

	// Zero falls back to the maximum instead of failing.
	page, err = svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, page, 20)
}

func TestListOffset(t *testing.T) {
	svc := NewService(seeded(25))
	ctx := context.Background()

	page, err := svc.List(ctx, "", 20, 20)
	require.NoError(t, err)
	require.Len(t, page, 5)

	_, err = svc.List(ctx, "", 10, -1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateName(t *testing.T) {
	svc := NewService(&fakeRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "harbor", nil, 1.5, 2.5)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "harbor", nil, 0, 0)
	require.ErrorIs(t, err, ErrAddressExists)
}
