package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	_ "github.com/quillboard/quillboard/testing"
)

type recordKey struct {
	userID      int64
	year, month int
}

type fakeRepo struct {
	records map[recordKey]uint32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[recordKey]uint32)}
}

func (f *fakeRepo) Get(_ context.Context, userID int64, year, month int) (*Record, error) {
	k := recordKey{userID, year, month}
	if _, ok := f.records[k]; !ok {
		f.records[k] = 0
	}
	return &Record{UserID: userID, Year: year, Month: month, Data: f.records[k]}, nil
}

func (f *fakeRepo) SetDay(_ context.Context, userID int64, year, month, day int) (*Record, error) {
	k := recordKey{userID, year, month}
	f.records[k] |= 1 << uint(day-1)
	return &Record{UserID: userID, Year: year, Month: month, Data: f.records[k]}, nil
}

func (f *fakeRepo) ClearDay(_ context.Context, userID int64, year, month, day int) (*Record, error) {
	k := recordKey{userID, year, month}
	f.records[k] &^= 1 << uint(day-1)
	return &Record{UserID: userID, Year: year, Month: month, Data: f.records[k]}, nil
}

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestMarkToday(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	rec, err := svc.MarkToday(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2026, rec.Year)
	require.Equal(t, 3, rec.Month)
	require.True(t, rec.IsSet(20))
}

func TestBackfillPastDay(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	rec, err := svc.Mark(context.Background(), 7, 2026, 2, 28)
	require.NoError(t, err)
	require.True(t, rec.IsSet(28))
}

func TestFutureMarksRejected(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Mark(ctx, 7, 2026, 3, 21)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Mark(ctx, 7, 2026, 4, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Mark(ctx, 7, 2027, 1, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestFutureQueryRejected(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Query(context.Background(), 7, 2026, 4)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestQueryCreatesEmptyRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	rec, err := svc.Query(context.Background(), 7, 2026, 1)
	require.NoError(t, err)
	require.Zero(t, rec.Data)
	require.Contains(t, repo.records, recordKey{7, 2026, 1})
}

func TestUnmarkRestores(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Mark(ctx, 7, 2026, 3, 10)
	require.NoError(t, err)
	rec, err := svc.Unmark(ctx, 7, 2026, 3, 10)
	require.NoError(t, err)
	require.Zero(t, rec.Data)
}

func TestMonthBounds(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Query(context.Background(), 7, 2026, 13)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
