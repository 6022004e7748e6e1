package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/profilehub/profilehub/internal/api"
)

var _ BookmarksRepo = (*PostgresBookmarksRepo)(nil)

// BookmarksRepo defines the contract for bookmark persistence.
type BookmarksRepo interface {
	// CreateBookmark saves the (user, profile) pair. A duplicate pair yields
	// api.ErrConflict.
	CreateBookmark(ctx context.Context, userID, profileID uuid.UUID) (*api.Bookmark, error)
	// DeleteBookmark removes the pair; absent pairs yield api.ErrNotFound.
	DeleteBookmark(ctx context.Context, userID, profileID uuid.UUID) error
	// ListBookmarkedProfiles returns the profiles the user has bookmarked,
	// most recently bookmarked first.
	ListBookmarkedProfiles(ctx context.Context, userID uuid.UUID) ([]api.Profile, error)
	// ProfileExists reports whether the target profile exists at all.
	ProfileExists(ctx context.Context, profileID uuid.UUID) (bool, error)
}

// DBTX is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DBTX = (*pgxpool.Pool)(nil)

type PostgresBookmarksRepo struct {
	logger *slog.Logger
	db     DBTX
}

func NewPostgresBookmarksRepo(db DBTX, logger *slog.Logger) *PostgresBookmarksRepo {
	return &PostgresBookmarksRepo{
		logger: logger,
		db:     db,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateBookmark implements BookmarksRepo.
func (r *PostgresBookmarksRepo) CreateBookmark(ctx context.Context, userID, profileID uuid.UUID) (*api.Bookmark, error) {
	l := r.logger.With(slog.String("method", "CreateBookmark"),
		slog.String("userID", userID.String()),
		slog.String("profileID", profileID.String()))

	var b api.Bookmark
	err := r.db.QueryRow(ctx,
		`INSERT INTO bookmarks (user_id, profile_id)
         VALUES ($1, $2)
         RETURNING id, user_id, profile_id, created_at`,
		userID, profileID,
	).Scan(&b.ID, &b.UserID, &b.ProfileID, &b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile already bookmarked: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert bookmark", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating bookmark: %w", err)
	}
	return &b, nil
}

// DeleteBookmark implements BookmarksRepo.
func (r *PostgresBookmarksRepo) DeleteBookmark(ctx context.Context, userID, profileID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM bookmarks WHERE user_id = $1 AND profile_id = $2", userID, profileID)
	if err != nil {
		return fmt.Errorf("database error deleting bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookmark not found: %w", api.ErrNotFound)
	}
	return nil
}

// ListBookmarkedProfiles implements BookmarksRepo.
func (r *PostgresBookmarksRepo) ListBookmarkedProfiles(ctx context.Context, userID uuid.UUID) ([]api.Profile, error) {
	l := r.logger.With(slog.String("method", "ListBookmarkedProfiles"), slog.String("userID", userID.String()))

	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.user_id, p.is_user_profile, p.is_public, p.name, p.age, p.gender,
            p.marital_status, p.caste, p.education, p.occupation, p.location, p.contact,
            p.email, p.role, p.phone_number, p.website, p.social_links, p.skills,
            p.bio, p.notes, p.experience, p.created_at, p.updated_at
         FROM bookmarks b
         JOIN profiles p ON p.id = b.profile_id
         WHERE b.user_id = $1
         ORDER BY b.created_at DESC`,
		userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query bookmarked profiles", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching bookmarked profiles: %w", err)
	}
	defer rows.Close()

	var profiles []api.Profile
	for rows.Next() {
		var p api.Profile
		err := rows.Scan(
			&p.ID, &p.UserID, &p.IsUserProfile, &p.IsPublic, &p.Name, &p.Age, &p.Gender,
			&p.MaritalStatus, &p.Caste, &p.Education, &p.Occupation, &p.Location, &p.Contact,
			&p.Email, &p.Role, &p.PhoneNumber, &p.Website, &p.SocialLinks, &p.Skills,
			&p.Bio, &p.Notes, &p.Experience, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("database error scanning bookmarked profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading bookmarked profiles: %w", err)
	}
	return profiles, nil
}

// ProfileExists implements BookmarksRepo.
func (r *PostgresBookmarksRepo) ProfileExists(ctx context.Context, profileID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)", profileID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking profile: %w", err)
	}
	return exists, nil
}
