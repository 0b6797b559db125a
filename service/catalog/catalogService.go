package catalogsvc

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maxim-heibach/library-management/model"
	authorrepo "github.com/maxim-heibach/library-management/repository/author"
	bookrepo "github.com/maxim-heibach/library-management/repository/book"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound   ErrCode = "BOOK_NOT_FOUND"
	ErrAuthorNotFound ErrCode = "AUTHOR_NOT_FOUND"
	ErrDuplicateName  ErrCode = "DUPLICATE_NAME"
	ErrCapacity       ErrCode = "CAPACITY_VIOLATION"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Outstanding reports how many copies are on loan when err is a capacity
// rejection, so the caller can pick a valid total.
func Outstanding(err error) (int64, bool) {
	var capErr *bookrepo.CapacityError
	if errors.As(err, &capErr) {
		return capErr.Outstanding, true
	}
	return 0, false
}

type Service interface {
	AddBook(ctx context.Context, title, isbn, authorName string, totalCopies int64) (*model.Book, error)
	EditBook(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context, search string) ([]model.Book, error)

	AddAuthor(ctx context.Context, name, biography string) (*model.Author, error)
	EditAuthor(ctx context.Context, id int64, name, biography string) error
	DeleteAuthor(ctx context.Context, id int64) error
	GetAuthor(ctx context.Context, id int64) (*model.Author, error)
	ListAuthors(ctx context.Context, search string) ([]model.Author, error)
	SearchAuthorNames(ctx context.Context, prefix string) ([]string, error)
}

const authorSearchLimit = 10

type service struct {
	books   bookrepo.Repo
	authors authorrepo.Repo
}

func New(books bookrepo.Repo, authors authorrepo.Repo) Service {
	return &service{books: books, authors: authors}
}

func (s *service) AddBook(ctx context.Context, title, isbn, authorName string, totalCopies int64) (*model.Book, error) {
	return s.books.Create(ctx, title, isbn, authorName, totalCopies)
}

func (s *service) EditBook(ctx context.Context, id int64, title, isbn string, totalCopies int64) (*model.Book, error) {
	b, err := s.books.Update(ctx, id, title, isbn, totalCopies)
	if err != nil {
		var capErr *bookrepo.CapacityError
		switch {
		case errors.Is(err, bookrepo.ErrNotFound):
			return nil, makeErr(ErrBookNotFound, err)
		case errors.As(err, &capErr):
			return nil, makeErr(ErrCapacity, err)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, bookrepo.ErrNotFound) {
			return makeErr(ErrBookNotFound, err)
		}
		return err
	}
	return nil
}

func (s *service) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.books.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookrepo.ErrNotFound) {
			return nil, makeErr(ErrBookNotFound, err)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) ListBooks(ctx context.Context, search string) ([]model.Book, error) {
	return s.books.List(ctx, search)
}

func (s *service) AddAuthor(ctx context.Context, name, biography string) (*model.Author, error) {
	a, err := s.authors.Create(ctx, name, biography)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrDuplicateName, err)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) EditAuthor(ctx context.Context, id int64, name, biography string) error {
	if err := s.authors.Update(ctx, id, name, biography); err != nil {
		switch {
		case errors.Is(err, authorrepo.ErrNotFound):
			return makeErr(ErrAuthorNotFound, err)
		case isUniqueViolation(err):
			return makeErr(ErrDuplicateName, err)
		}
		return err
	}
	return nil
}

func (s *service) DeleteAuthor(ctx context.Context, id int64) error {
	if err := s.authors.Delete(ctx, id); err != nil {
		if errors.Is(err, authorrepo.ErrNotFound) {
			return makeErr(ErrAuthorNotFound, err)
		}
		return err
	}
	return nil
}

func (s *service) GetAuthor(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.authors.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, authorrepo.ErrNotFound) {
			return nil, makeErr(ErrAuthorNotFound, err)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) ListAuthors(ctx context.Context, search string) ([]model.Author, error) {
	return s.authors.List(ctx, search)
}

func (s *service) SearchAuthorNames(ctx context.Context, prefix string) ([]string, error) {
	if prefix == "" {
		return []string{}, nil
	}
	return s.authors.SearchNames(ctx, prefix, authorSearchLimit)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
