package loanrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maxim-heibach/library-management/model"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrNoCopies     = errors.New("no copies available")
	ErrNotOpen      = errors.New("loan not found or already returned")
)

type HistoryRow struct {
	LoanID     int64      `json:"loan_id"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

type Repo interface {
	// Borrow decrements the book's availability and records the open loan
	// in one transaction. The decrement-if-positive guard is what keeps two
	// concurrent borrows of the last copy from both succeeding.
	Borrow(ctx context.Context, bookID, userID int64, loanDate, dueDate time.Time) (*model.Loan, error)

	// Return closes the user's loan and gives the copy back in one
	// transaction. The close is conditional on the loan still being open,
	// so a retried return fails without a second increment.
	Return(ctx context.Context, loanID, userID int64, returnedAt time.Time) error

	OpenByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	AllByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Borrow(ctx context.Context, bookID, userID int64, loanDate, dueDate time.Time) (l *model.Loan, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Guard: only take a copy if one is free.
	const take = `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1
		AND available_copies > 0`
	res, err := tx.ExecContext(ctx, take, bookID)
	if err != nil {
		return nil, err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrBookNotFound
		}
		return nil, ErrNoCopies
	}

	const insert = `
		INSERT INTO loans (book_id, user_id, loan_date, due_date, return_date)
		VALUES ($1, $2, $3, $4, NULL)
		RETURNING id`
	l = &model.Loan{
		BookID:   bookID,
		UserID:   userID,
		LoanDate: loanDate,
		DueDate:  dueDate,
	}
	if err = tx.QueryRowContext(ctx, insert, bookID, userID, loanDate, dueDate).Scan(&l.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) Return(ctx context.Context, loanID, userID int64, returnedAt time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Close exactly once, and only the borrower's own loan. A loan already
	// closed or belonging to someone else matches no row.
	const closeLoan = `
		UPDATE loans
		SET return_date = $3
		WHERE id = $1
		AND user_id = $2
		AND return_date IS NULL
		RETURNING book_id`
	var bookID int64
	err = tx.QueryRowContext(ctx, closeLoan, loanID, userID, returnedAt).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotOpen
	}
	if err != nil {
		return err
	}

	const free = `
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE id = $1`
	if _, err = tx.ExecContext(ctx, free, bookID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) OpenByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
		SELECT
			l.id          AS loan_id,
			l.book_id     AS book_id,
			b.title       AS book_title,
			l.loan_date   AS loan_date,
			l.due_date    AS due_date,
			l.return_date AS return_date
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		AND l.return_date IS NULL
		ORDER BY l.loan_date DESC, l.id DESC`
	return r.queryRows(ctx, q, userID)
}

func (r *repo) AllByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
		SELECT
			l.id          AS loan_id,
			l.book_id     AS book_id,
			b.title       AS book_title,
			l.loan_date   AS loan_date,
			l.due_date    AS due_date,
			l.return_date AS return_date
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		ORDER BY l.loan_date DESC, l.id DESC`
	return r.queryRows(ctx, q, userID)
}

func (r *repo) queryRows(ctx context.Context, q string, userID int64) ([]HistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.LoanID, &h.BookID, &h.BookTitle, &h.LoanDate, &h.DueDate, &h.ReturnDate); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
