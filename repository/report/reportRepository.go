package reportrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jmoiron/sqlx"
)

const dialect = "postgres"

type BookCount struct {
	BookID     int64  `json:"book_id" db:"book_id"`
	Title      string `json:"title" db:"title"`
	AuthorName string `json:"author_name" db:"author_name"`
	LoanCount  int64  `json:"loan_count" db:"loan_count"`
}

type UserCount struct {
	UserID    int64  `json:"user_id" db:"user_id"`
	Username  string `json:"username" db:"username"`
	LoanCount int64  `json:"loan_count" db:"loan_count"`
}

type OverdueRow struct {
	LoanID    int64     `json:"loan_id" db:"loan_id"`
	Username  string    `json:"username" db:"username"`
	BookTitle string    `json:"book_title" db:"book_title"`
	DueDate   time.Time `json:"due_date" db:"due_date"`
}

// Repo serves the read-only report queries. No locking: each query is a
// single statement and reads one consistent snapshot.
type Repo interface {
	// TopBooks groups the ledger by book, most borrowed first.
	// limit 0 means unbounded (export).
	TopBooks(ctx context.Context, limit uint) ([]BookCount, error)
	TopUsers(ctx context.Context, limit uint) ([]UserCount, error)

	// Overdue returns open loans past due as of now, earliest due date
	// first, so the longest-overdue loan surfaces on top.
	Overdue(ctx context.Context, now time.Time) ([]OverdueRow, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sql.DB) Repo { return &repo{db: sqlx.NewDb(db, "pgx")} }

func (r *repo) TopBooks(ctx context.Context, limit uint) ([]BookCount, error) {
	ds := goqu.Dialect(dialect).
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Select(
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("title"),
			goqu.I("b.author_name").As("author_name"),
			goqu.COUNT(goqu.I("l.id")).As("loan_count"),
		).
		GroupBy(goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author_name")).
		Order(goqu.I("loan_count").Desc(), goqu.I("b.title").Asc())
	if limit > 0 {
		ds = ds.Limit(limit)
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var out []BookCount
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) TopUsers(ctx context.Context, limit uint) ([]UserCount, error) {
	ds := goqu.Dialect(dialect).
		From(goqu.T("loans").As("l")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id")))).
		Select(
			goqu.I("u.id").As("user_id"),
			goqu.I("u.username").As("username"),
			goqu.COUNT(goqu.I("l.id")).As("loan_count"),
		).
		GroupBy(goqu.I("u.id"), goqu.I("u.username")).
		Order(goqu.I("loan_count").Desc(), goqu.I("u.username").Asc())
	if limit > 0 {
		ds = ds.Limit(limit)
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var out []UserCount
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Overdue(ctx context.Context, now time.Time) ([]OverdueRow, error) {
	ds := goqu.Dialect(dialect).
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("u.username").As("username"),
			goqu.I("b.title").As("book_title"),
			goqu.I("l.due_date").As("due_date"),
		).
		Where(
			goqu.I("l.return_date").IsNull(),
			goqu.I("l.due_date").Lt(now),
		).
		Order(goqu.I("l.due_date").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var out []OverdueRow
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
