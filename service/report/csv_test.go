package reportsvc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxim-heibach/library-management/model"
)

func TestWriteBooksCSV(t *testing.T) {
	books := []model.Book{
		{Title: "Dune", AuthorName: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 4, AvailableCopies: 2},
		{Title: "Emma", AuthorName: "Jane Austen", ISBN: "9780141439587", TotalCopies: 1, AvailableCopies: 1},
	}

	var sb strings.Builder
	require.NoError(t, WriteBooksCSV(&sb, books))

	want := "Title,Author,ISBN,Status\n" +
		"Dune,Frank Herbert,9780441172719,2 / 4\n" +
		"Emma,Jane Austen,9780141439587,1 / 1\n"
	require.Equal(t, want, sb.String())
}

func TestWriteUsersCSV_TimestampsInUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	users := []model.User{
		{Username: "maxim", Role: model.RoleAdmin, RegisteredOn: time.Date(2024, 3, 1, 10, 30, 0, 0, cet)},
	}

	var sb strings.Builder
	require.NoError(t, WriteUsersCSV(&sb, users))

	want := "Username,Role,Registered (UTC)\n" +
		"maxim,admin,2024-03-01 09:30:00\n"
	require.Equal(t, want, sb.String())
}

func TestWriteOverdueCSV_QuotesFieldsWithCommas(t *testing.T) {
	entries := []OverdueEntry{
		{Username: "erika", BookTitle: "Sense and Sensibility, Annotated", DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DaysOverdue: 5},
	}

	var sb strings.Builder
	require.NoError(t, WriteOverdueCSV(&sb, entries))

	want := "Username,Book,Due,Days overdue\n" +
		"erika,\"Sense and Sensibility, Annotated\",2024-03-15,5\n"
	require.Equal(t, want, sb.String())
}

func TestWriteTopCSVs(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteTopBooksCSV(&sb, []BookCount{{Title: "Dune", AuthorName: "Frank Herbert", LoanCount: 9}}))
	require.Equal(t, "Title,Author,Loans\nDune,Frank Herbert,9\n", sb.String())

	sb.Reset()
	require.NoError(t, WriteTopUsersCSV(&sb, []UserCount{{Username: "maxim", LoanCount: 4}}))
	require.Equal(t, "Username,Loans\nmaxim,4\n", sb.String())
}
