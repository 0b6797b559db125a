package reportsvc

import (
	"context"
	"time"

	reportrepo "github.com/maxim-heibach/library-management/repository/report"
)

// TopLimit is how many rows the dashboard reports show.
const TopLimit = 5

type (
	BookCount = reportrepo.BookCount
	UserCount = reportrepo.UserCount
)

type OverdueEntry struct {
	LoanID      int64     `json:"loan_id"`
	Username    string    `json:"username"`
	BookTitle   string    `json:"book_title"`
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int64     `json:"days_overdue"`
}

type Repo interface {
	TopBooks(ctx context.Context, limit uint) ([]BookCount, error)
	TopUsers(ctx context.Context, limit uint) ([]UserCount, error)
	Overdue(ctx context.Context, now time.Time) ([]OverdueRow, error)
}

type OverdueRow = reportrepo.OverdueRow

// Service computes derived views of the loan ledger on demand. Reads only;
// a slightly stale snapshot is fine.
type Service interface {
	// TopBooks, most borrowed first. limit 0 means unbounded (export).
	TopBooks(ctx context.Context, limit uint) ([]BookCount, error)
	TopUsers(ctx context.Context, limit uint) ([]UserCount, error)
	Overdue(ctx context.Context) ([]OverdueEntry, error)
}

type service struct {
	r   Repo
	now func() time.Time
}

func New(r Repo) Service {
	return &service{r: r, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) TopBooks(ctx context.Context, limit uint) ([]BookCount, error) {
	return s.r.TopBooks(ctx, limit)
}

func (s *service) TopUsers(ctx context.Context, limit uint) ([]UserCount, error) {
	return s.r.TopUsers(ctx, limit)
}

func (s *service) Overdue(ctx context.Context) ([]OverdueEntry, error) {
	now := s.now()
	rows, err := s.r.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}
	out := make([]OverdueEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, OverdueEntry{
			LoanID:      row.LoanID,
			Username:    row.Username,
			BookTitle:   row.BookTitle,
			DueDate:     row.DueDate,
			DaysOverdue: daysOverdue(now, row.DueDate),
		})
	}
	return out, nil
}

// daysOverdue is whole days past due, rounded down.
func daysOverdue(now, due time.Time) int64 {
	if !due.Before(now) {
		return 0
	}
	return int64(now.Sub(due) / (24 * time.Hour))
}
