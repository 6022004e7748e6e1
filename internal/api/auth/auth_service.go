package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/profilehub/profilehub/app/observability/metrics"
	"github.com/profilehub/profilehub/config"
	"github.com/profilehub/profilehub/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService orchestrates registration, login, credential changes and
// account deletion.
type AuthService interface {
	// Register creates a new account and issues a session token.
	Register(ctx context.Context, username, email, password, name string) (string, *api.UserAuth, error)

	// Login verifies credentials and issues a session token.
	Login(ctx context.Context, email, password string) (string, *api.UserAuth, error)

	// GetUserByID returns the identity behind a verified token subject.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error)

	// UpdateSettings changes name/email/username after uniqueness re-checks.
	UpdateSettings(ctx context.Context, userID uuid.UUID, params api.UpdateSettingsParams) (*api.UserAuth, error)

	// UpdatePassword replaces the password after verifying the current one.
	UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// DeleteAccount removes the account and all dependent records after
	// password re-verification.
	DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// Register creates a new account. Collisions on email OR username surface as
// ErrConflict. The role is always "user"; admins are provisioned out of band.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password, name string) (string, *api.UserAuth, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", username))
	l.DebugContext(ctx, "Registering new user")
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1)

	if name == "" {
		name = username
	}

	hashed, err := HashPassword(password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		return "", nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, username, email, name, hashed)
	if err != nil {
		l.WarnContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "User creation failed")
		return "", nil, fmt.Errorf("error registering user: %w", err)
	}

	token, err := GenerateAccessToken(user, s.cfg.JWT)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate access token", slog.Any("error", err))
		span.RecordError(err)
		return "", nil, fmt.Errorf("error generating token: %w", err)
	}

	l.InfoContext(ctx, "User registered successfully", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return token, user, nil
}

// Login verifies credentials by email. A missing account and a wrong password
// produce the same ErrUnauthenticated, so the response never reveals whether
// the email exists.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *api.UserAuth, error) {
	l := s.logger.With(slog.String("method", "Login"))
	l.DebugContext(ctx, "Login attempt")
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		metrics.Get().LoginFailuresTotal.Add(ctx, 1)
		l.WarnContext(ctx, "Login failed: user lookup", slog.Any("error", err))
		return "", nil, fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
	}

	if !VerifyPassword(password, user.Password) {
		metrics.Get().LoginFailuresTotal.Add(ctx, 1)
		l.WarnContext(ctx, "Login failed: password mismatch", slog.String("userID", user.ID.String()))
		return "", nil, fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
	}

	token, err := GenerateAccessToken(user, s.cfg.JWT)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate access token", slog.Any("error", err))
		return "", nil, fmt.Errorf("error generating token: %w", err)
	}

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID.String()))
	return token, user, nil
}

// GetUserByID returns the identity summary for a verified subject.
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

// UpdateSettings re-checks global uniqueness for each changed field before
// applying, and names the colliding field in the error.
func (s *AuthServiceImpl) UpdateSettings(ctx context.Context, userID uuid.UUID, params api.UpdateSettingsParams) (*api.UserAuth, error) {
	l := s.logger.With(slog.String("method", "UpdateSettings"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user settings")

	current, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if params.Email != nil && *params.Email != current.Email {
		taken, err := s.repo.EmailInUse(ctx, *params.Email, userID)
		if err != nil {
			return nil, fmt.Errorf("error checking email: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("email is already taken: %w", api.ErrConflict)
		}
	}

	if params.Username != nil && *params.Username != current.Username {
		taken, err := s.repo.UsernameInUse(ctx, *params.Username, userID)
		if err != nil {
			return nil, fmt.Errorf("error checking username: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("username is already taken: %w", api.ErrConflict)
		}
	}

	user, err := s.repo.UpdateUser(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user settings", slog.Any("error", err))
		return nil, fmt.Errorf("error updating settings: %w", err)
	}

	l.InfoContext(ctx, "User settings updated")
	return user, nil
}

// UpdatePassword verifies the current password first; the new one is hashed
// exactly once before it touches the store.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	l := s.logger.With(slog.String("method", "UpdatePassword"), slog.String("userID", userID.String()))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching user: %w", err)
	}

	if !VerifyPassword(currentPassword, user.Password) {
		l.WarnContext(ctx, "Password change rejected: current password mismatch")
		return fmt.Errorf("current password is incorrect: %w", api.ErrUnauthenticated)
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		l.ErrorContext(ctx, "Failed to store new password", slog.Any("error", err))
		return fmt.Errorf("error updating password: %w", err)
	}

	l.InfoContext(ctx, "Password updated successfully")
	return nil
}

// DeleteAccount re-verifies the password before the irreversible cascade; a
// stolen but still-valid token alone is not enough.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "DeleteAccount", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteAccount"), slog.String("userID", userID.String()))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching user: %w", err)
	}

	if !VerifyPassword(password, user.Password) {
		l.WarnContext(ctx, "Account deletion rejected: password mismatch")
		span.SetStatus(codes.Error, "Password mismatch")
		return fmt.Errorf("password is incorrect: %w", api.ErrUnauthenticated)
	}

	if err := s.repo.DeleteUserCascade(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Cascade delete failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cascade delete failed")
		return fmt.Errorf("error deleting account: %w", err)
	}

	metrics.Get().AccountDeletionsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Account deleted")
	span.SetStatus(codes.Ok, "Account deleted")
	return nil
}
