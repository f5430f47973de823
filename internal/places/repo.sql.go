package places

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for addresses.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an address; name collisions map to ErrAddressExists.
func (r *Repository) Create(ctx context.Context, name string, description *string, lat, lng float64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO view_addresses (name, description, lat, lng) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, description, lat, lng).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAddressExists
		}
		return 0, err
	}
	return id, nil
}

// Get fetches one address by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Address, error) {
	var a Address
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, lat, lng FROM view_addresses WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.Lat, &a.Lng)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns a page of addresses, optionally filtered by a name
// substring, ordered by id.
func (r *Repository) List(ctx context.Context, nameLike string, limit, offset int) ([]Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, lat, lng FROM view_addresses
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY id LIMIT $2 OFFSET $3`,
		nameLike, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Lat, &a.Lng); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update patches an address.
func (r *Repository) Update(ctx context.Context, id int64, name, description *string, lat, lng *float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE view_addresses SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			lat = COALESCE($4, lat),
			lng = COALESCE($5, lng)
		WHERE id = $1`,
		id, name, description, lat, lng)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAddressExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// Delete removes an address.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM view_addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
