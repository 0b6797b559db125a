package bookrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maxim-heibach/library-management/model"
)

var ErrNotFound = errors.New("book not found")

// CapacityError rejects shrinking total_copies below the outstanding loan count.
type CapacityError struct {
	Outstanding int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%d copies are on loan; total cannot go below that", e.Outstanding)
}

type Repo interface {
	// Create upserts the author by name and inserts the book with all
	// copies available, in one transaction.
	Create(ctx context.Context, title, isbn, authorName string, totalCopies int64) (*model.Book, error)

	// Update rewrites the editable fields. The open-loan count is taken
	// fresh inside the transaction while the book row is locked, so the
	// capacity check and the derived available_copies come from one
	// consistent snapshot.
	Update(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error)

	// Delete removes the book and its entire loan history.
	Delete(ctx context.Context, id int64) error

	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, search string) ([]model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, title, isbn, authorName string, totalCopies int64) (b *model.Book, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Upsert-on-write: adding a book with an unknown author creates the
	// author. The no-op DO UPDATE makes RETURNING yield the row either way.
	const upsertAuthor = `
		INSERT INTO authors (name, biography)
		VALUES ($1, '')
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`
	var authorID int64
	if err = tx.QueryRowContext(ctx, upsertAuthor, authorName).Scan(&authorID, &authorName); err != nil {
		return nil, err
	}

	const insertBook = `
		INSERT INTO books (title, isbn, author_id, author_name, total_copies, available_copies)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`
	b = &model.Book{
		Title:           title,
		ISBN:            isbn,
		AuthorID:        authorID,
		AuthorName:      authorName,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
	if err = tx.QueryRowContext(ctx, insertBook, title, isbn, authorID, authorName, totalCopies).Scan(&b.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Update(ctx context.Context, id int64, title, isbn string, totalCopies int64) (b *model.Book, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the book row so concurrent borrows/returns queue behind the edit.
	const lock = `
		SELECT author_id, author_name
		FROM books
		WHERE id = $1
		FOR UPDATE`
	var authorID int64
	var authorName string
	if err = tx.QueryRowContext(ctx, lock, id).Scan(&authorID, &authorName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	const countOpen = `
		SELECT count(*)
		FROM loans
		WHERE book_id = $1
		AND return_date IS NULL`
	var open int64
	if err = tx.QueryRowContext(ctx, countOpen, id).Scan(&open); err != nil {
		return nil, err
	}

	available, err := availableAfter(totalCopies, open)
	if err != nil {
		return nil, err
	}

	const update = `
		UPDATE books
		SET title = $2,
			isbn = $3,
			total_copies = $4,
			available_copies = $5
		WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, title, isbn, totalCopies, available); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &model.Book{
		ID:              id,
		Title:           title,
		ISBN:            isbn,
		AuthorID:        authorID,
		AuthorName:      authorName,
		TotalCopies:     totalCopies,
		AvailableCopies: available,
	}, nil
}

// availableAfter derives available_copies for a new capacity, rejecting any
// total below the number of copies currently lent out.
func availableAfter(totalCopies, openLoans int64) (int64, error) {
	if totalCopies < openLoans {
		return 0, &CapacityError{Outstanding: openLoans}
	}
	return totalCopies - openLoans, nil
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

	// Loan history goes with the book.
	if _, err = tx.ExecContext(ctx, `DELETE FROM loans WHERE book_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, isbn, author_id, author_name, total_copies, available_copies
		FROM books
		WHERE id = $1`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.ISBN, &b.AuthorID, &b.AuthorName, &b.TotalCopies, &b.AvailableCopies,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, search string) ([]model.Book, error) {
	const q = `
		SELECT id, title, isbn, author_id, author_name, total_copies, available_copies
		FROM books
		WHERE $1 = ''
			OR title ILIKE '%' || $1 || '%'
			OR author_name ILIKE '%' || $1 || '%'
			OR isbn ILIKE '%' || $1 || '%'
		ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ISBN, &b.AuthorID, &b.AuthorName, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
