package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillboard/quillboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for items and grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateItem inserts a new item; name collisions map to ErrItemExists.
func (r *Repository) CreateItem(ctx context.Context, name string, description *string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrItemExists
		}
		return 0, err
	}
	return id, nil
}

// GetItem fetches one item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM items WHERE id = $1`, id).
		Scan(&item.ID, &item.Name, &item.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns all items ordered by id.
func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem patches name and/or description.
func (r *Repository) UpdateItem(ctx context.Context, id int64, name, description *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET name = COALESCE($2, name), description = COALESCE($3, description) WHERE id = $1`,
		id, name, description)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrItemExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem removes an item. Grant rows referencing it cascade away when
// purgeGrants is set; otherwise orphaned grants are left for audit.
func (r *Repository) DeleteItem(ctx context.Context, id int64, purgeGrants bool) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if purgeGrants {
			if _, err := tx.Exec(ctx, `DELETE FROM user_items WHERE item_id = $1`, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// ApplyDelta atomically adjusts the (user, item) grant count, creating the
// row with count=delta when absent. A single upsert statement keeps
// concurrent adjustments from losing updates.
func (r *Repository) ApplyDelta(ctx context.Context, userID, itemID, delta int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_items (user_id, item_id, count) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET count = user_items.count + EXCLUDED.count
		 RETURNING count`,
		userID, itemID, delta).Scan(&count)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return count, nil
}

// GrantCount returns the count a user holds of an item, 0 for a missing row.
func (r *Repository) GrantCount(ctx context.Context, userID, itemID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count FROM user_items WHERE user_id = $1 AND item_id = $2`,
		userID, itemID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// ListHoldings returns every item a user holds together with its count.
func (r *Repository) ListHoldings(ctx context.Context, userID int64) ([]Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.name, i.description, ui.count
		 FROM user_items ui JOIN items i ON i.id = ui.item_id
		 WHERE ui.user_id = $1 ORDER BY i.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holdings []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.Item.ID, &h.Item.Name, &h.Item.Description, &h.Count); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
