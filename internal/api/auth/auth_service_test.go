package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/app/observability/metrics"
	"github.com/profilehub/profilehub/config"
	"github.com/profilehub/profilehub/internal/api"
)

func TestMain(m *testing.M) {
	// Counters are recorded through the global meter provider; the default
	// no-op provider is fine for tests, the instruments just need to exist.
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*api.UserAuth, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*api.UserAuth)
	return user, args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*api.UserAuth)
	return user, args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, username, email, name, passwordHash string) (*api.UserAuth, error) {
	args := m.Called(ctx, username, email, name, passwordHash)
	user, _ := args.Get(0).(*api.UserAuth)
	return user, args.Error(1)
}

func (m *MockAuthRepo) EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthRepo) UsernameInUse(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params api.UpdateSettingsParams) (*api.UserAuth, error) {
	args := m.Called(ctx, userID, params)
	user, _ := args.Get(0).(*api.UserAuth)
	return user, args.Error(1)
}

func (m *MockAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	args := m.Called(ctx, userID, newPasswordHash)
	return args.Error(0)
}

func (m *MockAuthRepo) DeleteUserCascade(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		SecretKey: "unit-test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "profilehub",
		Audience:  "profilehub-api",
	}
	return cfg
}

func newAuthTestService(repo AuthRepo) *AuthServiceImpl {
	return NewAuthService(repo, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account and returns a usable token", func(t *testing.T) {
		repo := new(MockAuthRepo)
		created := &api.UserAuth{ID: uuid.New(), Username: "jane", Email: "jane@example.com", Name: "jane", Role: "user"}

		repo.On("CreateUser", ctx, "jane", "jane@example.com", "jane", mock.MatchedBy(isBcryptHash)).
			Return(created, nil).Once()

		token, user, err := newAuthTestService(repo).Register(ctx, "jane", "jane@example.com", "pa55word", "")

		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		// Empty display name falls back to the username.
		assert.Equal(t, "jane", user.Name)

		claims, err := ValidateAccessToken(token, testConfig().JWT)
		require.NoError(t, err)
		assert.Equal(t, created.ID.String(), claims.UserID)
		repo.AssertExpectations(t)
	})

	t.Run("stores the password hashed, never plaintext", func(t *testing.T) {
		repo := new(MockAuthRepo)
		var storedHash string
		repo.On("CreateUser", ctx, "jane", "jane@example.com", "Jane", mock.Anything).
			Run(func(args mock.Arguments) { storedHash = args.String(4) }).
			Return(&api.UserAuth{ID: uuid.New()}, nil).Once()

		_, _, err := newAuthTestService(repo).Register(ctx, "jane", "jane@example.com", "pa55word", "Jane")

		require.NoError(t, err)
		assert.NotEqual(t, "pa55word", storedHash)
		assert.True(t, VerifyPassword("pa55word", storedHash))
	})

	t.Run("bcrypt-lookalike password is hashed, not stored verbatim", func(t *testing.T) {
		repo := new(MockAuthRepo)
		password := "$2a$mysecretpassword"
		var storedHash string
		repo.On("CreateUser", ctx, "jane", "jane@example.com", "jane", mock.Anything).
			Run(func(args mock.Arguments) { storedHash = args.String(4) }).
			Return(&api.UserAuth{ID: uuid.New()}, nil).Once()

		_, _, err := newAuthTestService(repo).Register(ctx, "jane", "jane@example.com", password, "")

		require.NoError(t, err)
		assert.NotEqual(t, password, storedHash)
		assert.True(t, VerifyPassword(password, storedHash))
	})

	t.Run("duplicate identity surfaces as conflict", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("CreateUser", ctx, "jane", "jane@example.com", "jane", mock.Anything).
			Return(nil, fmt.Errorf("user already exists: %w", api.ErrConflict)).Once()

		_, _, err := newAuthTestService(repo).Register(ctx, "jane", "jane@example.com", "pa55word", "")

		assert.ErrorIs(t, err, api.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := HashPassword("correct-password")
	require.NoError(t, err)
	user := &api.UserAuth{ID: uuid.New(), Email: "jane@example.com", Password: hash, Role: "user"}

	t.Run("valid credentials yield a token", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(user, nil).Once()

		token, got, err := newAuthTestService(repo).Login(ctx, "jane@example.com", "correct-password")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		_, err = ValidateAccessToken(token, testConfig().JWT)
		assert.NoError(t, err)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(user, nil).Once()
		repo.On("GetUserByEmail", ctx, "ghost@example.com").
			Return(nil, fmt.Errorf("user not found: %w", api.ErrNotFound)).Once()

		svc := newAuthTestService(repo)

		_, _, wrongPassErr := svc.Login(ctx, "jane@example.com", "wrong-password")
		_, _, missingUserErr := svc.Login(ctx, "ghost@example.com", "whatever")

		assert.ErrorIs(t, wrongPassErr, api.ErrUnauthenticated)
		assert.ErrorIs(t, missingUserErr, api.ErrUnauthenticated)
		assert.Equal(t, wrongPassErr.Error(), missingUserErr.Error())
	})
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	current := &api.UserAuth{ID: userID, Username: "jane", Email: "jane@example.com", Name: "Jane"}

	t.Run("changing email to a taken one names the colliding field", func(t *testing.T) {
		repo := new(MockAuthRepo)
		newEmail := "taken@example.com"
		repo.On("GetUserByID", ctx, userID).Return(current, nil).Once()
		repo.On("EmailInUse", ctx, newEmail, userID).Return(true, nil).Once()

		_, err := newAuthTestService(repo).UpdateSettings(ctx, userID, api.UpdateSettingsParams{Email: &newEmail})

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.Contains(t, err.Error(), "email")
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("keeping the same email skips the uniqueness check", func(t *testing.T) {
		repo := new(MockAuthRepo)
		sameEmail := current.Email
		newName := "Jane D."
		params := api.UpdateSettingsParams{Email: &sameEmail, Name: &newName}
		repo.On("GetUserByID", ctx, userID).Return(current, nil).Once()
		repo.On("UpdateUser", ctx, userID, params).
			Return(&api.UserAuth{ID: userID, Email: sameEmail, Name: newName}, nil).Once()

		updated, err := newAuthTestService(repo).UpdateSettings(ctx, userID, params)

		require.NoError(t, err)
		assert.Equal(t, newName, updated.Name)
		repo.AssertNotCalled(t, "EmailInUse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("taken username is a conflict", func(t *testing.T) {
		repo := new(MockAuthRepo)
		newUsername := "taken"
		repo.On("GetUserByID", ctx, userID).Return(current, nil).Once()
		repo.On("UsernameInUse", ctx, newUsername, userID).Return(true, nil).Once()

		_, err := newAuthTestService(repo).UpdateSettings(ctx, userID, api.UpdateSettingsParams{Username: &newUsername})

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.Contains(t, err.Error(), "username")
	})
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	hash, err := HashPassword("old-password")
	require.NoError(t, err)
	user := &api.UserAuth{ID: userID, Password: hash}

	t.Run("wrong current password is rejected before any write", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		err := newAuthTestService(repo).UpdatePassword(ctx, userID, "not-the-old-password", "new-password")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stores the new password hashed once", func(t *testing.T) {
		repo := new(MockAuthRepo)
		var storedHash string
		repo.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		repo.On("UpdatePassword", ctx, userID, mock.MatchedBy(isBcryptHash)).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).
			Return(nil).Once()

		err := newAuthTestService(repo).UpdatePassword(ctx, userID, "old-password", "new-password")

		require.NoError(t, err)
		assert.True(t, VerifyPassword("new-password", storedHash))
	})

	t.Run("bcrypt-lookalike new password is hashed, not stored verbatim", func(t *testing.T) {
		repo := new(MockAuthRepo)
		newPassword := "$2b$anotherSecret!"
		var storedHash string
		repo.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		repo.On("UpdatePassword", ctx, userID, mock.Anything).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).
			Return(nil).Once()

		err := newAuthTestService(repo).UpdatePassword(ctx, userID, "old-password", newPassword)

		require.NoError(t, err)
		assert.NotEqual(t, newPassword, storedHash)
		assert.True(t, VerifyPassword(newPassword, storedHash))
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	hash, err := HashPassword("delete-me")
	require.NoError(t, err)
	user := &api.UserAuth{ID: userID, Password: hash}

	t.Run("requires the password even with a valid session", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		err := newAuthTestService(repo).DeleteAccount(ctx, userID, "wrong-password")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		repo.AssertNotCalled(t, "DeleteUserCascade", mock.Anything, mock.Anything)
	})

	t.Run("verified password triggers the cascade", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		repo.On("DeleteUserCascade", ctx, userID).Return(nil).Once()

		err := newAuthTestService(repo).DeleteAccount(ctx, userID, "delete-me")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
