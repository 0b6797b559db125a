package reportsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	topBooksFn func(ctx context.Context, limit uint) ([]BookCount, error)
	topUsersFn func(ctx context.Context, limit uint) ([]UserCount, error)
	overdueFn  func(ctx context.Context, now time.Time) ([]OverdueRow, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) TopBooks(ctx context.Context, limit uint) ([]BookCount, error) {
	return m.topBooksFn(ctx, limit)
}
func (m *mockRepo) TopUsers(ctx context.Context, limit uint) ([]UserCount, error) {
	return m.topUsersFn(ctx, limit)
}
func (m *mockRepo) Overdue(ctx context.Context, now time.Time) ([]OverdueRow, error) {
	return m.overdueFn(ctx, now)
}

func TestOverdue_DaysAreWholeDaysPastDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	m := &mockRepo{
		overdueFn: func(ctx context.Context, got time.Time) ([]OverdueRow, error) {
			require.Equal(t, now, got)
			return []OverdueRow{
				// exactly five days past due
				{LoanID: 1, Username: "maxim", BookTitle: "Dune", DueDate: now.AddDate(0, 0, -5)},
				// five days and change still floors to five
				{LoanID: 2, Username: "erika", BookTitle: "Emma", DueDate: now.Add(-5*24*time.Hour - 7*time.Hour)},
				// past due by less than a day
				{LoanID: 3, Username: "jonas", BookTitle: "Ulysses", DueDate: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	svc := &service{r: m, now: func() time.Time { return now }}

	rows, err := svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, int64(5), rows[0].DaysOverdue)
	require.Equal(t, int64(5), rows[1].DaysOverdue)
	require.Equal(t, int64(0), rows[2].DaysOverdue)
}

func TestOverdue_PreservesRepoOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	m := &mockRepo{
		overdueFn: func(ctx context.Context, got time.Time) ([]OverdueRow, error) {
			// Repo orders by due date ascending: longest overdue first.
			return []OverdueRow{
				{LoanID: 1, DueDate: now.AddDate(0, 0, -10)},
				{LoanID: 2, DueDate: now.AddDate(0, 0, -3)},
			}, nil
		},
	}
	svc := &service{r: m, now: func() time.Time { return now }}

	rows, err := svc.Overdue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows[0].LoanID)
	require.Equal(t, int64(10), rows[0].DaysOverdue)
	require.Equal(t, int64(2), rows[1].LoanID)
	require.Equal(t, int64(3), rows[1].DaysOverdue)
}

func TestTopReports_PassThrough(t *testing.T) {
	ctx := context.Background()

	m := &mockRepo{
		topBooksFn: func(ctx context.Context, limit uint) ([]BookCount, error) {
			require.Equal(t, uint(TopLimit), limit)
			return []BookCount{{BookID: 1, Title: "Dune", LoanCount: 9}}, nil
		},
		topUsersFn: func(ctx context.Context, limit uint) ([]UserCount, error) {
			require.Equal(t, uint(0), limit)
			return []UserCount{{UserID: 7, Username: "maxim", LoanCount: 4}}, nil
		},
	}
	svc := New(m)

	books, err := svc.TopBooks(ctx, TopLimit)
	require.NoError(t, err)
	require.Len(t, books, 1)

	users, err := svc.TopUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
