package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
)

// New opens a PostgreSQL connection pool and applies the schema.
func New(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			registered_on TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		// Usernames are unique ignoring case, matching the login lookup.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower
			ON users (lower(username));`,
		`CREATE TABLE IF NOT EXISTS authors (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			biography TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			isbn TEXT NOT NULL,
			author_id BIGINT NOT NULL REFERENCES authors(id),
			author_name TEXT NOT NULL,
			total_copies BIGINT NOT NULL CHECK (total_copies >= 0),
			available_copies BIGINT NOT NULL
				CHECK (available_copies >= 0 AND available_copies <= total_copies)
		);`,
		`CREATE TABLE IF NOT EXISTS loans (
			id BIGSERIAL PRIMARY KEY,
			book_id BIGINT NOT NULL REFERENCES books(id),
			user_id BIGINT NOT NULL REFERENCES users(id),
			loan_date TIMESTAMPTZ NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			return_date TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_loans_book_open
			ON loans (book_id) WHERE return_date IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_loans_user ON loans (user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books (author_id);`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}
