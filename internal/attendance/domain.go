// Package attendance keeps per-month sign-in records as compact bitsets.
package attendance

import "errors"

// DaysPerRecord is the bit width of one monthly record. Bit (day-1) set
// means the user signed in that day; bit 31 is never used.
const DaysPerRecord = 31

// Record stores one user's attendance for one calendar month.
type Record struct {
	UserID int64
	Year   int
	Month  int
	Data   uint32
}

var (
	// ErrInvalidDay indicates a day outside [1,31].
	ErrInvalidDay = errors.New("attendance: day out of range")
	// ErrFutureMonth indicates a query or backfill beyond the current month.
	ErrFutureMonth = errors.New("attendance: future month")
)

// IsSet reports whether the day (1-31) is marked.
func (r *Record) IsSet(day int) bool {
	if day < 1 || day > DaysPerRecord {
		return false
	}
	return r.Data&(1<<uint(day-1)) != 0
}

// Set marks the day. Marking an already marked day is a no-op.
func (r *Record) Set(day int) error {
	if day < 1 || day > DaysPerRecord {
		return ErrInvalidDay
	}
	r.Data |= 1 << uint(day-1)
	return nil
}

// Unset clears the day. Clearing an unmarked day is a no-op.
func (r *Record) Unset(day int) error {
	if day < 1 || day > DaysPerRecord {
		return ErrInvalidDay
	}
	r.Data &^= 1 << uint(day-1)
	return nil
}

// Days decodes the record into a fixed 31-entry list, index day-1.
func (r *Record) Days() []bool {
	days := make([]bool, DaysPerRecord)
	for day := 1; day <= DaysPerRecord; day++ {
		days[day-1] = r.IsSet(day)
	}
	return days
}
