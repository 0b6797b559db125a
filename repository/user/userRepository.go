package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/maxim-heibach/library-management/model"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrLastAdmin = errors.New("last admin")
)

// Advisory lock key serializing first-user registration, so exactly one
// concurrent first registration observes an empty users table.
const registerLockKey = 4217

type Repo interface {
	// Create inserts the user; the first user ever becomes admin, all
	// later ones get the default role. Sets ID, Role and RegisteredOn.
	Create(ctx context.Context, u *model.User) error

	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, search string) ([]model.User, error)

	// UpdateRole changes the role, refusing to demote the last admin.
	UpdateRole(ctx context.Context, id int64, role string) error

	// Delete removes the user and the user's loan history, returning the
	// copies held by any open loans. Refuses to delete the last admin.
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registerLockKey); err != nil {
		return err
	}

	var existing int64
	if err = tx.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&existing); err != nil {
		return err
	}
	role := model.RoleUser
	if existing == 0 {
		role = model.RoleAdmin
	}

	const insert = `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, registered_on`
	if err = tx.QueryRowContext(ctx, insert, u.Username, u.PasswordHash, role).Scan(&u.ID, &u.RegisteredOn); err != nil {
		return err
	}
	u.Role = role
	return tx.Commit()
}

func (r *repo) ByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
		SELECT id, username, password_hash, role, registered_on
		FROM users
		WHERE lower(username) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, q, username))
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
		SELECT id, username, password_hash, role, registered_on
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) scanOne(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.RegisteredOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) List(ctx context.Context, search string) ([]model.User, error) {
	const q = `
		SELECT id, username, password_hash, role, registered_on
		FROM users
		WHERE $1 = ''
			OR username ILIKE '%' || $1 || '%'
			OR role ILIKE '%' || $1 || '%'
		ORDER BY username`
	rows, err := r.db.QueryContext(ctx, q, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.RegisteredOn); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repo) UpdateRole(ctx context.Context, id int64, role string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	adminCount, cur, err := r.lockAdminsAndTarget(ctx, tx, id)
	if err != nil {
		return err
	}
	if cur == model.RoleAdmin && role != model.RoleAdmin && adminCount <= 1 {
		return ErrLastAdmin
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	adminCount, cur, err := r.lockAdminsAndTarget(ctx, tx, id)
	if err != nil {
		return err
	}
	if cur == model.RoleAdmin && adminCount <= 1 {
		return ErrLastAdmin
	}

	// Give back the copies held by the user's open loans before the loan
	// rows go away, or the books would lose stock for good.
	const restock = `
		UPDATE books b
		SET available_copies = b.available_copies + o.cnt
		FROM (
			SELECT book_id, count(*) AS cnt
			FROM loans
			WHERE user_id = $1
			AND return_date IS NULL
			GROUP BY book_id
		) o
		WHERE b.id = o.book_id`
	if _, err = tx.ExecContext(ctx, restock, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM loans WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// lockAdminsAndTarget locks every admin row (in id order, so concurrent
// admin-affecting transactions queue deterministically instead of
// deadlocking) and returns the admin count together with the target's
// current role. A transaction blocked here re-evaluates the predicate after
// the lock holder commits, so two concurrent demotions of the final two
// admins cannot both pass the count check.
func (r *repo) lockAdminsAndTarget(ctx context.Context, tx *sql.Tx, id int64) (int64, string, error) {
	const lockAdmins = `
		SELECT id
		FROM users
		WHERE role = $1
		ORDER BY id
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, lockAdmins, model.RoleAdmin)
	if err != nil {
		return 0, "", err
	}
	var adminCount int64
	for rows.Next() {
		var adminID int64
		if err := rows.Scan(&adminID); err != nil {
			rows.Close()
			return 0, "", err
		}
		adminCount++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, "", err
	}

	var cur string
	err = tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", err
	}
	return adminCount, cur, nil
}
