package authorrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/maxim-heibach/library-management/model"
)

var ErrNotFound = errors.New("author not found")

type Repo interface {
	Create(ctx context.Context, name, biography string) (*model.Author, error)

	// Update renames the author and propagates the new name to every book
	// carrying the denormalized author_name, in one transaction.
	Update(ctx context.Context, id int64, name, biography string) error

	// Delete removes the author, the author's books, and those books'
	// loan history.
	Delete(ctx context.Context, id int64) error

	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, search string) ([]model.Author, error)
	SearchNames(ctx context.Context, prefix string, limit int) ([]string, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, name, biography string) (*model.Author, error) {
	const q = `
		INSERT INTO authors (name, biography)
		VALUES ($1, $2)
		RETURNING id`
	a := &model.Author{Name: name, Biography: biography}
	if err := r.db.QueryRowContext(ctx, q, name, biography).Scan(&a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) Update(ctx context.Context, id int64, name, biography string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `
		UPDATE authors
		SET name = $2,
			biography = $3
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, update, id, name, biography)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}

	// Keep the snapshot on books in step with the author record; readers
	// never observe the rename on one side only.
	const propagate = `
		UPDATE books
		SET author_name = $2
		WHERE author_id = $1`
	if _, err = tx.ExecContext(ctx, propagate, id, name); err != nil {
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

	const deleteLoans = `
		DELETE FROM loans
		WHERE book_id IN (SELECT id FROM books WHERE author_id = $1)`
	if _, err = tx.ExecContext(ctx, deleteLoans, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM books WHERE author_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Author, error) {
	const q = `SELECT id, name, biography FROM authors WHERE id = $1`
	var a model.Author
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.Biography)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context, search string) ([]model.Author, error) {
	const q = `
		SELECT id, name, biography
		FROM authors
		WHERE $1 = ''
			OR name ILIKE '%' || $1 || '%'
			OR biography ILIKE '%' || $1 || '%'
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Biography); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SearchNames matches on the start of the name only, for form autocomplete.
func (r *repo) SearchNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	const q = `
		SELECT name
		FROM authors
		WHERE name ILIKE $1 || '%'
		ORDER BY name
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
