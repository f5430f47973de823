package attendance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists monthly attendance records in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the record for (userID, year, month), creating an empty one
// on first read so later marks and queries see the same row.
func (r *Repository) Get(ctx context.Context, userID int64, year, month int) (*Record, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (user_id, year, month, data)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, year, month) DO NOTHING`,
		userID, year, month)
	if err != nil {
		return nil, err
	}

	rec := &Record{UserID: userID, Year: year, Month: month}
	err = r.pool.QueryRow(ctx, `
		SELECT data FROM attendance
		WHERE user_id = $1 AND year = $2 AND month = $3`,
		userID, year, month).Scan(&rec.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, nil
		}
		return nil, err
	}
	return rec, nil
}

// SetDay marks the day atomically. The upsert serializes concurrent marks
// on the same row, so parallel writers never lose bits.
func (r *Repository) SetDay(ctx context.Context, userID int64, year, month, day int) (*Record, error) {
	if day < 1 || day > DaysPerRecord {
		return nil, ErrInvalidDay
	}
	mask := int64(1) << uint(day-1)

	rec := &Record{UserID: userID, Year: year, Month: month}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance (user_id, year, month, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, year, month)
		DO UPDATE SET data = attendance.data | EXCLUDED.data
		RETURNING data`,
		userID, year, month, mask).Scan(&rec.Data)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ClearDay unmarks the day. Clearing a day on a missing record still
// creates the empty record.
func (r *Repository) ClearDay(ctx context.Context, userID int64, year, month, day int) (*Record, error) {
	if day < 1 || day > DaysPerRecord {
		return nil, ErrInvalidDay
	}
	mask := int64(1) << uint(day-1)

	rec := &Record{UserID: userID, Year: year, Month: month}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance (user_id, year, month, data)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, year, month)
		DO UPDATE SET data = attendance.data & ~$4::bigint
		RETURNING data`,
		userID, year, month, mask).Scan(&rec.Data)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
