package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillboard/quillboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, avatar, signature, created_at, last_login, last_ip, activated`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar,
		&u.Signature, &u.CreatedAt, &u.LastLogin, &u.LastIP, &u.Activated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts an activated account and returns its id.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, activated)
		VALUES ($1, $2, $3, TRUE) RETURNING id`,
		name, email, passwordHash).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get fetches one account by id, activated or not.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindActivated looks an activated account up by exact name or email.
func (r *Repository) FindActivated(ctx context.Context, nameOrEmail string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE activated AND (name = $1 OR email = $1)
		ORDER BY id LIMIT 1`, nameOrEmail))
}

// NameTaken reports whether another activated account already uses the name.
func (r *Repository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE activated AND name = $1 AND id <> $2)`,
		name, excludeID).Scan(&taken)
	return taken, err
}

// EmailTaken reports whether another activated account already uses the address.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE activated AND email = $1 AND id <> $2)`,
		email, excludeID).Scan(&taken)
	return taken, err
}

// Patch holds optional field updates. Nil fields are left untouched.
type Patch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Avatar       *string
	Signature    *string
	Activated    *bool
}

// Update applies a patch.
func (r *Repository) Update(ctx context.Context, id int64, p Patch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			avatar = COALESCE($5, avatar),
			signature = COALESCE($6, signature),
			activated = COALESCE($7, activated)
		WHERE id = $1`,
		id, p.Name, p.Email, p.PasswordHash, p.Avatar, p.Signature, p.Activated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordLogin stamps last_login and last_ip.
func (r *Repository) RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login = $2, last_ip = $3 WHERE id = $1`, id, at, ip)
	return err
}

// Delete removes an account together with its membership, grant and
// attendance rows.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, q := range []string{
			`DELETE FROM group_users WHERE user_id = $1`,
			`DELETE FROM user_items WHERE user_id = $1`,
			`DELETE FROM attendance WHERE user_id = $1`,
		} {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Search runs an admin search. Filters become ILIKE predicates joined by
// the query combinator; an optional group filter joins membership.
func (r *Repository) Search(ctx context.Context, q SearchQuery) ([]User, error) {
	var (
		preds []string
		args  []any
	)
	for _, f := range q.Filters {
		args = append(args, "%"+f.Value+"%")
		preds = append(preds, fmt.Sprintf("u.%s ILIKE $%d", f.Field, len(args)))
	}
	joiner := " AND "
	if q.Combinator == "or" {
		joiner = " OR "
	}
	where := "(" + strings.Join(preds, joiner) + ")"

	join := ""
	if q.GroupID != nil {
		args = append(args, *q.GroupID)
		join = fmt.Sprintf(" JOIN group_users gu ON gu.user_id = u.id AND gu.group_id = $%d", len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixColumns("u")+` FROM users u`+join+` WHERE `+where+` ORDER BY u.id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar,
			&u.Signature, &u.CreatedAt, &u.LastLogin, &u.LastIP, &u.Activated); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func prefixColumns(alias string) string {
	cols := strings.Split(userColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
