package catalogsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/maxim-heibach/library-management/model"
	authorrepo "github.com/maxim-heibach/library-management/repository/author"
	bookrepo "github.com/maxim-heibach/library-management/repository/book"
)

type bookRepoMock struct {
	createFn func(ctx context.Context, title, isbn, authorName string, totalCopies int64) (*model.Book, error)
	updateFn func(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error)
	deleteFn func(ctx context.Context, id int64) error
	byIDFn   func(ctx context.Context, id int64) (*model.Book, error)
	listFn   func(ctx context.Context, search string) ([]model.Book, error)
}

var _ bookrepo.Repo = (*bookRepoMock)(nil)

func (m *bookRepoMock) Create(ctx context.Context, title, isbn, authorName string, totalCopies int64) (*model.Book, error) {
	return m.createFn(ctx, title, isbn, authorName, totalCopies)
}
func (m *bookRepoMock) Update(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error) {
	return m.updateFn(ctx, id, title, isbn, totalCopies)
}
func (m *bookRepoMock) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }
func (m *bookRepoMock) ByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *bookRepoMock) List(ctx context.Context, search string) ([]model.Book, error) {
	return m.listFn(ctx, search)
}

type authorRepoMock struct {
	createFn func(ctx context.Context, name, biography string) (*model.Author, error)
	updateFn func(ctx context.Context, id int64, name, biography string) error
	deleteFn func(ctx context.Context, id int64) error
	byIDFn   func(ctx context.Context, id int64) (*model.Author, error)
	listFn   func(ctx context.Context, search string) ([]model.Author, error)
	searchFn func(ctx context.Context, prefix string, limit int) ([]string, error)
}

var _ authorrepo.Repo = (*authorRepoMock)(nil)

func (m *authorRepoMock) Create(ctx context.Context, name, biography string) (*model.Author, error) {
	return m.createFn(ctx, name, biography)
}
func (m *authorRepoMock) Update(ctx context.Context, id int64, name, biography string) error {
	return m.updateFn(ctx, id, name, biography)
}
func (m *authorRepoMock) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }
func (m *authorRepoMock) ByID(ctx context.Context, id int64) (*model.Author, error) {
	return m.byIDFn(ctx, id)
}
func (m *authorRepoMock) List(ctx context.Context, search string) ([]model.Author, error) {
	return m.listFn(ctx, search)
}
func (m *authorRepoMock) SearchNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	return m.searchFn(ctx, prefix, limit)
}

func TestEditBook_CapacityViolationCarriesOutstanding(t *testing.T) {
	ctx := context.Background()
	bm := &bookRepoMock{
		updateFn: func(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error) {
			return nil, &bookrepo.CapacityError{Outstanding: 3}
		},
	}
	svc := New(bm, &authorRepoMock{})

	_, err := svc.EditBook(ctx, 1, "Dune", "9780441172719", 2)
	require.Error(t, err)
	require.Equal(t, ErrCapacity, Code(err))

	outstanding, ok := Outstanding(err)
	require.True(t, ok)
	require.Equal(t, int64(3), outstanding)
}

func TestEditBook_NotFound(t *testing.T) {
	ctx := context.Background()
	bm := &bookRepoMock{
		updateFn: func(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error) {
			return nil, bookrepo.ErrNotFound
		},
	}
	svc := New(bm, &authorRepoMock{})

	_, err := svc.EditBook(ctx, 99, "Dune", "9780441172719", 2)
	require.Error(t, err)
	require.Equal(t, ErrBookNotFound, Code(err))
}

func TestEditBook_Success(t *testing.T) {
	ctx := context.Background()
	bm := &bookRepoMock{
		updateFn: func(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: title, ISBN: isbn, TotalCopies: totalCopies, AvailableCopies: totalCopies - 1}, nil
		},
	}
	svc := New(bm, &authorRepoMock{})

	b, err := svc.EditBook(ctx, 1, "Dune", "9780441172719", 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), b.TotalCopies)
	require.Equal(t, int64(4), b.AvailableCopies)
}

func TestAddAuthor_DuplicateName(t *testing.T) {
	ctx := context.Background()
	am := &authorRepoMock{
		createFn: func(ctx context.Context, name, biography string) (*model.Author, error) {
			return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "authors_name_key"}
		},
	}
	svc := New(&bookRepoMock{}, am)

	_, err := svc.AddAuthor(ctx, "Frank Herbert", "")
	require.Error(t, err)
	require.Equal(t, ErrDuplicateName, Code(err))
}

func TestGetAuthor(t *testing.T) {
	ctx := context.Background()
	am := &authorRepoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Author, error) {
			return &model.Author{ID: id, Name: "Frank Herbert"}, nil
		},
	}
	svc := New(&bookRepoMock{}, am)

	a, err := svc.GetAuthor(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Frank Herbert", a.Name)

	am.byIDFn = func(ctx context.Context, id int64) (*model.Author, error) {
		return nil, authorrepo.ErrNotFound
	}
	_, err = svc.GetAuthor(ctx, 99)
	require.Error(t, err)
	require.Equal(t, ErrAuthorNotFound, Code(err))
}

func TestEditAuthor_Mappings(t *testing.T) {
	ctx := context.Background()

	am := &authorRepoMock{
		updateFn: func(ctx context.Context, id int64, name, biography string) error {
			return authorrepo.ErrNotFound
		},
	}
	svc := New(&bookRepoMock{}, am)
	err := svc.EditAuthor(ctx, 99, "Frank Herbert", "")
	require.Equal(t, ErrAuthorNotFound, Code(err))

	am.updateFn = func(ctx context.Context, id int64, name, biography string) error {
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	err = svc.EditAuthor(ctx, 1, "Jane Austen", "")
	require.Equal(t, ErrDuplicateName, Code(err))

	am.updateFn = func(ctx context.Context, id int64, name, biography string) error {
		return errors.New("db down")
	}
	err = svc.EditAuthor(ctx, 1, "Jane Austen", "")
	require.Equal(t, ErrCode(""), Code(err))
}

func TestSearchAuthorNames_EmptyPrefix(t *testing.T) {
	ctx := context.Background()
	called := false
	am := &authorRepoMock{
		searchFn: func(ctx context.Context, prefix string, limit int) ([]string, error) {
			called = true
			return nil, nil
		},
	}
	svc := New(&bookRepoMock{}, am)

	names, err := svc.SearchAuthorNames(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names)
	require.False(t, called)
}

func TestSearchAuthorNames_LimitApplied(t *testing.T) {
	ctx := context.Background()
	am := &authorRepoMock{
		searchFn: func(ctx context.Context, prefix string, limit int) ([]string, error) {
			require.Equal(t, "fr", prefix)
			require.Equal(t, authorSearchLimit, limit)
			return []string{"Frank Herbert"}, nil
		},
	}
	svc := New(&bookRepoMock{}, am)

	names, err := svc.SearchAuthorNames(ctx, "fr")
	require.NoError(t, err)
	require.Equal(t, []string{"Frank Herbert"}, names)
}
