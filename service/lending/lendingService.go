package lendingsvc

import (
	"context"
	"errors"
	"time"

	"github.com/maxim-heibach/library-management/model"
	loanrepo "github.com/maxim-heibach/library-management/repository/loan"
)

// LoanPeriod is the fixed lending window; the due date is always the loan
// date plus this.
const LoanPeriod = 21 * 24 * time.Hour

// errors used by controllers

type ErrCode string

const (
	ErrUnavailable  ErrCode = "UNAVAILABLE"
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrLoanNotFound ErrCode = "LOAN_NOT_FOUND"
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

type HistoryRow = loanrepo.HistoryRow

type Repo interface {
	Borrow(ctx context.Context, bookID, userID int64, loanDate, dueDate time.Time) (*model.Loan, error)
	Return(ctx context.Context, loanID, userID int64, returnedAt time.Time) error
	OpenByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	AllByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type Service interface {
	// Borrow takes a copy for the user. Failing with UNAVAILABLE is a
	// normal outcome, not a fault; nothing is written in that case.
	Borrow(ctx context.Context, bookID, userID int64) (*model.Loan, error)

	// Return closes one of the user's open loans. Retrying an
	// already-closed loan, or naming someone else's, fails with
	// LOAN_NOT_FOUND and changes nothing.
	Return(ctx context.Context, loanID, userID int64) error

	OpenLoans(ctx context.Context, userID int64) ([]HistoryRow, error)
	History(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type service struct {
	r   Repo
	now func() time.Time
}

func New(r Repo) Service {
	return &service{r: r, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) Borrow(ctx context.Context, bookID, userID int64) (*model.Loan, error) {
	loanDate := s.now()
	loan, err := s.r.Borrow(ctx, bookID, userID, loanDate, loanDate.Add(LoanPeriod))
	if err != nil {
		switch {
		case errors.Is(err, loanrepo.ErrNoCopies):
			return nil, makeErr(ErrUnavailable, err)
		case errors.Is(err, loanrepo.ErrBookNotFound):
			return nil, makeErr(ErrBookNotFound, err)
		}
		return nil, err
	}
	return loan, nil
}

func (s *service) Return(ctx context.Context, loanID, userID int64) error {
	if err := s.r.Return(ctx, loanID, userID, s.now()); err != nil {
		if errors.Is(err, loanrepo.ErrNotOpen) {
			return makeErr(ErrLoanNotFound, err)
		}
		return err
	}
	return nil
}

func (s *service) OpenLoans(ctx context.Context, userID int64) ([]HistoryRow, error) {
	return s.r.OpenByUser(ctx, userID)
}

func (s *service) History(ctx context.Context, userID int64) ([]HistoryRow, error) {
	return s.r.AllByUser(ctx, userID)
}
