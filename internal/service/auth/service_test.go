package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

type fakeUserRepo struct {
	repository.UserRepository
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
	updated *model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{byEmail: map[string]*model.User{}, byID: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.updated = u
	return nil
}

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "access-secret",
		RefreshSecret:      "refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	}
}

func newTestService(users *fakeUserRepo) *Service {
	return NewService(users, security.NewBcryptHasher(4), testConfig(), zerolog.Nop())
}

func activeUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	hash, err := security.NewBcryptHasher(4).Hash(password)
	require.NoError(t, err)
	return &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		GlobalRole:   model.GlobalRoleUser,
		Status:       model.UserStatusActive,
	}
}

func TestRegister(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users)

		user, err := svc.Register(context.Background(), &model.RegisterRequest{
			Email:    "ana@clinic.test",
			Name:     "Ana",
			Password: "long-enough-pass",
		})
		require.NoError(t, err)

		assert.Equal(t, model.UserStatusActive, user.Status)
		assert.Equal(t, model.GlobalRoleUser, user.GlobalRole)
		assert.NotEqual(t, "long-enough-pass", user.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		existing := activeUser(t, "ana@clinic.test", "password123")
		svc := newTestService(newFakeUserRepo(existing))

		_, err := svc.Register(context.Background(), &model.RegisterRequest{
			Email:    "ana@clinic.test",
			Name:     "Ana",
			Password: "password123",
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.StatusCode())
	})
}

func TestLogin(t *testing.T) {
	t.Run("issues token pair on valid credentials", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		user.LoginAttempts = 2
		users := newFakeUserRepo(user)
		svc := newTestService(users)

		tokens, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "password123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Zero(t, user.LoginAttempts)
		require.NotNil(t, user.LastLoginAt)

		claims, err := svc.Validate(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
	})

	t.Run("wrong password counts an attempt", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		svc := newTestService(newFakeUserRepo(user))

		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "wrong",
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 401, appErr.StatusCode())
		assert.Equal(t, 1, user.LoginAttempts)
		assert.Equal(t, model.UserStatusActive, user.Status)
	})

	t.Run("locks account after repeated failures", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		user.LoginAttempts = maxLoginAttempts - 1
		svc := newTestService(newFakeUserRepo(user))

		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Equal(t, model.UserStatusLocked, user.Status)

		_, err = svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "password123",
		})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 401, appErr.StatusCode())
	})

	t.Run("unknown email yields generic unauthorized", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo())

		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ghost@clinic.test",
			Password: "whatever1",
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 401, appErr.StatusCode())
	})
}

func TestRefresh(t *testing.T) {
	t.Run("exchanges refresh token for a new pair", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		users := newFakeUserRepo(user)
		svc := newTestService(users)

		tokens, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "password123",
		})
		require.NoError(t, err)

		fresh, err := svc.Refresh(context.Background(), tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, fresh.AccessToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		svc := newTestService(newFakeUserRepo(user))

		tokens, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "password123",
		})
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), tokens.AccessToken)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects token signed with another secret", func(t *testing.T) {
		user := activeUser(t, "ana@clinic.test", "password123")
		other := NewService(newFakeUserRepo(user), security.NewBcryptHasher(4), config.JWTConfig{
			Secret:             "different-secret",
			RefreshSecret:      "different-refresh",
			ExpiryHours:        1,
			RefreshExpiryHours: 1,
		}, zerolog.Nop())

		tokens, err := other.Login(context.Background(), &model.LoginRequest{
			Email:    "ana@clinic.test",
			Password: "password123",
		})
		require.NoError(t, err)

		svc := newTestService(newFakeUserRepo(user))
		_, err = svc.Validate(tokens.AccessToken)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo())
		_, err := svc.Validate("not-a-token")
		assert.Error(t, err)
	})
}
