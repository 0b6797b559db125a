package reportsvc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/maxim-heibach/library-management/model"
)

// CSV renderers for the admin exports. Pure: rows in, text out.

func WriteBooksCSV(w io.Writer, books []model.Book) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Title", "Author", "ISBN", "Status"}); err != nil {
		return err
	}
	for _, b := range books {
		status := fmt.Sprintf("%d / %d", b.AvailableCopies, b.TotalCopies)
		if err := cw.Write([]string{b.Title, b.AuthorName, b.ISBN, status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteUsersCSV(w io.Writer, users []model.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Username", "Role", "Registered (UTC)"}); err != nil {
		return err
	}
	for _, u := range users {
		registered := u.RegisteredOn.UTC().Format("2006-01-02 15:04:05")
		if err := cw.Write([]string{u.Username, u.Role, registered}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteAuthorsCSV(w io.Writer, authors []model.Author) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Biography"}); err != nil {
		return err
	}
	for _, a := range authors {
		if err := cw.Write([]string{a.Name, a.Biography}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTopBooksCSV(w io.Writer, rows []BookCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Title", "Author", "Loans"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Title, row.AuthorName, strconv.FormatInt(row.LoanCount, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTopUsersCSV(w io.Writer, rows []UserCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Username", "Loans"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Username, strconv.FormatInt(row.LoanCount, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteOverdueCSV(w io.Writer, entries []OverdueEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Username", "Book", "Due", "Days overdue"}); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Username,
			e.BookTitle,
			e.DueDate.UTC().Format("2006-01-02"),
			strconv.FormatInt(e.DaysOverdue, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
