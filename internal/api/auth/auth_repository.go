package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/profilehub/profilehub/internal/api"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for account persistence.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*api.UserAuth, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error)
	CreateUser(ctx context.Context, username, email, name, passwordHash string) (*api.UserAuth, error)
	EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	UsernameInUse(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params api.UpdateSettingsParams) (*api.UserAuth, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	DeleteUserCascade(ctx context.Context, userID uuid.UUID) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const userColumns = "id, username, email, name, password_hash, role, created_at, updated_at"

func scanUser(row pgx.Row) (*api.UserAuth, error) {
	var u api.UserAuth
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, including the password hash for
// credential verification.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*api.UserAuth, error) {
	l := r.logger.With(slog.String("method", "GetUserByEmail"))

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns), email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error) {
	l := r.logger.With(slog.String("method", "GetUserByID"), slog.String("userID", userID.String()))

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns), userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by id", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

// CreateUser persists a new account. The email/username collision is checked
// as a single combined lookup before insert; the unique constraints remain
// the last line of defense against races.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, name, passwordHash string) (*api.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("username", username))

	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)",
		email, username).Scan(&exists)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check existing user", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("database error checking existing user: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "User already exists")
		return nil, fmt.Errorf("email or username already registered: %w", api.ErrConflict)
	}

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO users (username, email, name, password_hash)
         VALUES ($1, $2, $3, $4)
         RETURNING %s`, userColumns),
		username, email, name, passwordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email or username already registered: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	return user, nil
}

// EmailInUse reports whether another user already holds the email.
func (r *PostgresAuthRepo) EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)",
		email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking email: %w", err)
	}
	return exists, nil
}

// UsernameInUse reports whether another user already holds the username.
func (r *PostgresAuthRepo) UsernameInUse(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)",
		username, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking username: %w", err)
	}
	return exists, nil
}

// UpdateUser applies the supplied settings fields. The password column is
// deliberately untouched here so no save path can re-hash it.
func (r *PostgresAuthRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params api.UpdateSettingsParams) (*api.UserAuth, error) {
	l := r.logger.With(slog.String("method", "UpdateUser"), slog.String("userID", userID.String()))

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE users SET
            name = COALESCE($1, name),
            email = COALESCE($2, email),
            username = COALESCE($3, username),
            updated_at = $4
         WHERE id = $5
         RETURNING %s`, userColumns),
		params.Name, params.Email, params.Username, time.Now(), userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", api.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email or username already taken: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		return nil, fmt.Errorf("database error updating user: %w", err)
	}
	return user, nil
}

// UpdatePassword stores an already-hashed password.
func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3",
		newPasswordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("database error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", api.ErrNotFound)
	}
	return nil
}

// DeleteUserCascade removes a user and every dependent record in one
// transaction. Ordering matters for referential integrity: bookmarks and
// messages referencing the user's profiles go first, then the profiles, then
// the user row. Partial failure rolls back everything.
func (r *PostgresAuthRepo) DeleteUserCascade(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "DeleteUserCascade", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeleteUserCascade"), slog.String("userID", userID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin cascade delete transaction", slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	steps := []struct {
		name  string
		query string
	}{
		{"delete bookmarks", `DELETE FROM bookmarks
            WHERE user_id = $1
               OR profile_id IN (SELECT id FROM profiles WHERE user_id = $1)`},
		{"delete messages", `DELETE FROM messages
            WHERE sender_id = $1
               OR recipient_profile_id IN (SELECT id FROM profiles WHERE user_id = $1)`},
		{"delete profiles", `DELETE FROM profiles WHERE user_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.query, userID); err != nil {
			l.ErrorContext(ctx, "Cascade delete step failed", slog.String("step", step.name), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Cascade delete failed")
			return fmt.Errorf("database error during %s: %w", step.name, err)
		}
	}

	tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete user row", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cascade delete failed")
		return fmt.Errorf("database error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", api.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit cascade delete", slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("database error committing cascade delete: %w", err)
	}

	span.SetStatus(codes.Ok, "User cascade deleted")
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
