package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/quillboard/quillboard/testing"
)

type grantKey struct {
	userID int64
	itemID int64
}

type fakeRepo struct {
	items  map[int64]Item
	grants map[grantKey]int64
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[int64]Item), grants: make(map[grantKey]int64), nextID: 1}
}

func (f *fakeRepo) CreateItem(_ context.Context, name string, description *string) (int64, error) {
	for _, it := range f.items {
		if it.Name == name {
			return 0, ErrItemExists
		}
	}
	id := f.nextID
	f.nextID++
	f.items[id] = Item{ID: id, Name: name, Description: description}
	return id, nil
}

func (f *fakeRepo) GetItem(_ context.Context, id int64) (*Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &it, nil
}

func (f *fakeRepo) ListItems(_ context.Context) ([]Item, error) {
	var out []Item
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeRepo) UpdateItem(_ context.Context, id int64, name, description *string) error {
	it, ok := f.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if name != nil {
		it.Name = *name
	}
	if description != nil {
		it.Description = description
	}
	f.items[id] = it
	return nil
}

func (f *fakeRepo) DeleteItem(_ context.Context, id int64, purgeGrants bool) error {
	if _, ok := f.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(f.items, id)
	if purgeGrants {
		for k := range f.grants {
			if k.itemID == id {
				delete(f.grants, k)
			}
		}
	}
	return nil
}

func (f *fakeRepo) ApplyDelta(_ context.Context, userID, itemID, delta int64) (int64, error) {
	k := grantKey{userID, itemID}
	f.grants[k] += delta
	return f.grants[k], nil
}

func (f *fakeRepo) GrantCount(_ context.Context, userID, itemID int64) (int64, error) {
	return f.grants[grantKey{userID, itemID}], nil
}

func (f *fakeRepo) ListHoldings(_ context.Context, userID int64) ([]Holding, error) {
	var out []Holding
	for k, count := range f.grants {
		if k.userID != userID {
			continue
		}
		out = append(out, Holding{Item: f.items[k.itemID], Count: count})
	}
	return out, nil
}

func TestGrantAccumulates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	itemID, err := svc.CreateItem(ctx, "badge", nil)
	require.NoError(t, err)

	count, err := svc.Grant(ctx, 7, itemID, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	count, err = svc.Grant(ctx, 7, itemID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 5, count)
}

func TestGrantUnknownItem(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Grant(context.Background(), 7, 99, 1)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestConsumeMayGoNegative(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	itemID, err := svc.CreateItem(ctx, "token", nil)
	require.NoError(t, err)

	// Consuming from a user with no grant row creates it below zero.
	count, err := svc.Consume(ctx, 3, itemID, 10)
	require.NoError(t, err)
	require.EqualValues(t, -10, count)

	got, err := svc.Get(ctx, 3, itemID)
	require.NoError(t, err)
	require.EqualValues(t, -10, got)
}

func TestGetMissingGrantIsZero(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	itemID, err := svc.CreateItem(ctx, "badge", nil)
	require.NoError(t, err)

	count, err := svc.Get(ctx, 1, itemID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDuplicateItemName(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, "badge", nil)
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, "badge", nil)
	require.ErrorIs(t, err, ErrItemExists)
}
