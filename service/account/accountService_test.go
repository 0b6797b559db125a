package accountsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/maxim-heibach/library-management/model"
	userrepo "github.com/maxim-heibach/library-management/repository/user"
	"github.com/maxim-heibach/library-management/util/hash"
	jwtutil "github.com/maxim-heibach/library-management/util/jwt"
)

type mockRepo struct {
	createFn     func(ctx context.Context, u *model.User) error
	byUsernameFn func(ctx context.Context, username string) (*model.User, error)
	byIDFn       func(ctx context.Context, id int64) (*model.User, error)
	listFn       func(ctx context.Context, search string) ([]model.User, error)
	updateRoleFn func(ctx context.Context, id int64, role string) error
	deleteFn     func(ctx context.Context, id int64) error
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error { return m.createFn(ctx, u) }
func (m *mockRepo) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.byUsernameFn(ctx, username)
}
func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockRepo) List(ctx context.Context, search string) ([]model.User, error) {
	return m.listFn(ctx, search)
}
func (m *mockRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	return m.updateRoleFn(ctx, id, role)
}
func (m *mockRepo) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func TestRegister_FirstUserBecomesAdmin(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			// Repo assigns admin when the users table is empty.
			u.ID = 1
			u.Role = model.RoleAdmin
			u.RegisteredOn = time.Now().UTC()
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Register(ctx, model.RegisterReq{Username: "maxim", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.NotEmpty(t, u.PasswordHash)
	require.True(t, hash.Check(u.PasswordHash, "supersecret"))

	claims, err := jwtutil.Parse("test-secret", tok)
	require.NoError(t, err)
	require.Equal(t, float64(1), claims["sub"])
	require.Equal(t, model.RoleAdmin, claims["role"])
}

func TestRegister_SecondUserIsPlainUser(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 2
			u.Role = model.RoleUser
			u.RegisteredOn = time.Now().UTC()
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, _, err := svc.Register(ctx, model.RegisterReq{Username: "erika", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, u.Role)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_users_username_lower"}
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{Username: "maxim", Password: "supersecret"})
	require.Error(t, err)
	require.Equal(t, ErrUsernameTaken, Code(err))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: 7, Username: "maxim", PasswordHash: hashed, Role: model.RoleLibrarian}, nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Login(ctx, model.LoginReq{Username: "maxim", Password: pw})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)

	claims, err := jwtutil.Parse("test-secret", tok)
	require.NoError(t, err)
	require.Equal(t, model.RoleLibrarian, claims["role"])
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, userrepo.ErrNotFound
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_RepoErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Username: "maxim", Password: "supersecret"})
	require.Error(t, err)
	// A storage fault is not a credential failure.
	require.NotEqual(t, ErrInvalidCreds, Code(err))
	require.Equal(t, ErrCode(""), Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: 7, Username: "maxim", PasswordHash: hashed, Role: model.RoleUser}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Username: "maxim", Password: "wrong-password"})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			require.Equal(t, int64(7), id)
			return &model.User{ID: 7, Username: "maxim", Role: model.RoleUser}, nil
		},
	}
	svc := New(m, "test-secret")

	u, err := svc.Profile(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "maxim", u.Username)

	m.byIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		return nil, userrepo.ErrNotFound
	}
	_, err = svc.Profile(ctx, 99)
	require.Error(t, err)
	require.Equal(t, ErrUserNotFound, Code(err))
}

func TestChangeRole_InvalidRole(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	err := svc.ChangeRole(ctx, 7, "superuser")
	require.Error(t, err)
	require.Equal(t, ErrInvalidRole, Code(err))
}

func TestChangeRole_LastAdmin(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		updateRoleFn: func(ctx context.Context, id int64, role string) error {
			return userrepo.ErrLastAdmin
		},
	}
	svc := New(m, "test-secret")

	err := svc.ChangeRole(ctx, 1, model.RoleUser)
	require.Error(t, err)
	require.Equal(t, ErrLastAdmin, Code(err))
}

func TestDelete_LastAdmin(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			return userrepo.ErrLastAdmin
		},
	}
	svc := New(m, "test-secret")

	err := svc.Delete(ctx, 1)
	require.Error(t, err)
	require.Equal(t, ErrLastAdmin, Code(err))
}

func TestDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			return userrepo.ErrNotFound
		},
	}
	svc := New(m, "test-secret")

	err := svc.Delete(ctx, 99)
	require.Error(t, err)
	require.Equal(t, ErrUserNotFound, Code(err))
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrLastAdmin, Code(makeErr(ErrLastAdmin, userrepo.ErrLastAdmin)))
	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
}
