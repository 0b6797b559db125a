package accountsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maxim-heibach/library-management/model"
	userrepo "github.com/maxim-heibach/library-management/repository/user"
	"github.com/maxim-heibach/library-management/util/hash"
	jwtutil "github.com/maxim-heibach/library-management/util/jwt"
)

// errors used by controllers

type ErrCode string

const (
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrInvalidCreds  ErrCode = "INVALID_CREDENTIALS"
	ErrUserNotFound  ErrCode = "USER_NOT_FOUND"
	ErrLastAdmin     ErrCode = "LAST_ADMIN"
	ErrInvalidRole   ErrCode = "INVALID_ROLE"
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

const tokenTTLHours = 24

type Service interface {
	// Register creates the account and returns it with a signed token.
	// The very first account becomes admin.
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)

	// Profile returns a single account by id.
	Profile(ctx context.Context, userID int64) (*model.User, error)

	List(ctx context.Context, search string) ([]model.User, error)

	// ChangeRole refuses to demote the last remaining admin.
	ChangeRole(ctx context.Context, userID int64, role string) error

	// Delete refuses to remove the last remaining admin.
	Delete(ctx context.Context, userID int64) error
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service {
	return &service{ur: ur, secret: secret}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, "", makeErr(ErrUsernameTaken, err)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByUsername(ctx, req.Username)
	if err != nil {
		// Only an unknown username is a credential failure; anything else
		// is a storage fault the caller must see as such.
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, "", makeErr(ErrInvalidCreds, err)
		}
		return nil, "", err
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds, nil)
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound, err)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context, search string) ([]model.User, error) {
	return s.ur.List(ctx, search)
}

func (s *service) ChangeRole(ctx context.Context, userID int64, role string) error {
	if !model.ValidRole(role) {
		return makeErr(ErrInvalidRole, nil)
	}
	if err := s.ur.UpdateRole(ctx, userID, role); err != nil {
		return mapGuardErr(err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID int64) error {
	if err := s.ur.Delete(ctx, userID); err != nil {
		return mapGuardErr(err)
	}
	return nil
}

func mapGuardErr(err error) error {
	switch {
	case errors.Is(err, userrepo.ErrNotFound):
		return makeErr(ErrUserNotFound, err)
	case errors.Is(err, userrepo.ErrLastAdmin):
		return makeErr(ErrLastAdmin, err)
	}
	return err
}
