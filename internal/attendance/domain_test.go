package attendance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAndDecode(t *testing.T) {
	rec := &Record{}
	require.NoError(t, rec.Set(15))

	days := rec.Days()
	require.Len(t, days, DaysPerRecord)
	for day := 1; day <= DaysPerRecord; day++ {
		require.Equal(t, day == 15, days[day-1], "day %d", day)
	}
}

func TestSetIsIdempotent(t *testing.T) {
	rec := &Record{}
	require.NoError(t, rec.Set(1))
	before := rec.Data
	require.NoError(t, rec.Set(1))
	require.Equal(t, before, rec.Data)
}

func TestUnsetRestores(t *testing.T) {
	rec := &Record{}
	require.NoError(t, rec.Set(3))
	require.NoError(t, rec.Set(31))
	require.NoError(t, rec.Unset(3))

	require.False(t, rec.IsSet(3))
	require.True(t, rec.IsSet(31))

	require.NoError(t, rec.Unset(31))
	require.Zero(t, rec.Data)
}

func TestUnsetUnmarkedIsNoop(t *testing.T) {
	rec := &Record{Data: 0b101}
	require.NoError(t, rec.Unset(2))
	require.EqualValues(t, 0b101, rec.Data)
}

func TestDayBounds(t *testing.T) {
	rec := &Record{}
	require.ErrorIs(t, rec.Set(0), ErrInvalidDay)
	require.ErrorIs(t, rec.Set(32), ErrInvalidDay)
	require.ErrorIs(t, rec.Unset(-1), ErrInvalidDay)
	require.False(t, rec.IsSet(0))
	require.False(t, rec.IsSet(32))
}
