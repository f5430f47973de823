package threads

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillboard/quillboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for threads and their
// access requirements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateThread inserts a thread; title collisions map to ErrThreadExists.
func (r *Repository) CreateThread(ctx context.Context, title, description string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO threads (title, description) VALUES ($1, $2) RETURNING id`,
		title, description).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrThreadExists
		}
		return 0, err
	}
	return id, nil
}

// GetThread fetches one thread by id.
func (r *Repository) GetThread(ctx context.Context, id int64) (*Thread, error) {
	var t Thread
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description FROM threads WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListThreads returns threads ordered by id, optionally narrowed to one id.
func (r *Repository) ListThreads(ctx context.Context, id *int64) ([]Thread, error) {
	query := `SELECT id, title, description FROM threads ORDER BY id`
	args := []any{}
	if id != nil {
		query = `SELECT id, title, description FROM threads WHERE id = $1`
		args = append(args, *id)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var threads []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.Description); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// UpdateThread patches title and/or description.
func (r *Repository) UpdateThread(ctx context.Context, id int64, title, description *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE threads SET title = COALESCE($2, title), description = COALESCE($3, description) WHERE id = $1`,
		id, title, description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrThreadExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// DeleteThread removes a thread and its requirement rows.
func (r *Repository) DeleteThread(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM thread_requirements WHERE thread_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrThreadNotFound
		}
		return nil
	})
}

// Requirements returns the access requirements of one thread.
func (r *Repository) Requirements(ctx context.Context, threadID int64) ([]AccessRequirement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, thread_id, item_id, min_count FROM thread_requirements WHERE thread_id = $1 ORDER BY id`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reqs []AccessRequirement
	for rows.Next() {
		var req AccessRequirement
		if err := rows.Scan(&req.ID, &req.ThreadID, &req.ItemID, &req.MinCount); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// AddRequirement attaches an (item, min count) rule to a thread.
func (r *Repository) AddRequirement(ctx context.Context, threadID, itemID, minCount int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO thread_requirements (thread_id, item_id, min_count) VALUES ($1, $2, $3) RETURNING id`,
		threadID, itemID, minCount).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, ErrThreadNotFound
		}
		return 0, err
	}
	return id, nil
}

// RemoveRequirement deletes a requirement row.
func (r *Repository) RemoveRequirement(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM thread_requirements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequirementNotFound
	}
	return nil
}
