package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/profilehub/profilehub/app/observability/metrics"
	"github.com/profilehub/profilehub/internal/api"
)

var _ ProfilesRepo = (*PostgresProfilesRepo)(nil)

// ProfilesRepo defines the contract for profile persistence.
type ProfilesRepo interface {
	// GetOwnProfile fetches the single is_user_profile row for a user.
	GetOwnProfile(ctx context.Context, userID uuid.UUID) (*api.Profile, error)
	// CreateOwnProfile provisions the own profile seeded from the account.
	CreateOwnProfile(ctx context.Context, user *api.UserAuth) (*api.Profile, error)
	// UpdateOwnProfile partially updates the own profile.
	UpdateOwnProfile(ctx context.Context, userID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error)
	// GetProfileByID fetches any profile; visibility is the caller's concern.
	GetProfileByID(ctx context.Context, profileID uuid.UUID) (*api.Profile, error)
	// ListVisibleProfiles returns public profiles plus the requester's own rows.
	ListVisibleProfiles(ctx context.Context, requester *uuid.UUID) ([]api.Profile, error)
	// CreateProfile creates a managed (third-party) entry owned by userID.
	CreateProfile(ctx context.Context, userID uuid.UUID, params api.CreateProfileParams) (*api.Profile, error)
	// UpdateProfile partially updates an arbitrary profile by id.
	UpdateProfile(ctx context.Context, profileID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error)
	// DeleteProfile removes a profile and its dependent messages/bookmarks.
	DeleteProfile(ctx context.Context, profileID uuid.UUID) error
	// SearchProfiles filters the visible rows by the given criteria.
	SearchProfiles(ctx context.Context, requester *uuid.UUID, filter api.SearchProfilesFilter) ([]api.Profile, error)
}

type PostgresProfilesRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresProfilesRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresProfilesRepo {
	return &PostgresProfilesRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const profileColumns = `id, user_id, is_user_profile, is_public, name, age, gender,
        marital_status, caste, education, occupation, location, contact, email, role,
        phone_number, website, social_links, skills, bio, notes, experience,
        created_at, updated_at`

func scanProfile(row pgx.Row) (*api.Profile, error) {
	var p api.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.IsUserProfile, &p.IsPublic, &p.Name, &p.Age, &p.Gender,
		&p.MaritalStatus, &p.Caste, &p.Education, &p.Occupation, &p.Location, &p.Contact,
		&p.Email, &p.Role, &p.PhoneNumber, &p.Website, &p.SocialLinks, &p.Skills,
		&p.Bio, &p.Notes, &p.Experience, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProfiles(rows pgx.Rows) ([]api.Profile, error) {
	defer rows.Close()
	var profiles []api.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading profiles: %w", err)
	}
	return profiles, nil
}

// GetOwnProfile implements ProfilesRepo.
func (r *PostgresProfilesRepo) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*api.Profile, error) {
	l := r.logger.With(slog.String("method", "GetOwnProfile"), slog.String("userID", userID.String()))

	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM profiles WHERE user_id = $1 AND is_user_profile", profileColumns),
		userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("own profile not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query own profile", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching own profile: %w", err)
	}
	return profile, nil
}

// CreateOwnProfile provisions the own profile with safe defaults, seeded from
// the account's name/email/role. The partial unique index keeps this
// single-shot even under concurrent first access.
func (r *PostgresProfilesRepo) CreateOwnProfile(ctx context.Context, user *api.UserAuth) (*api.Profile, error) {
	ctx, span := otel.Tracer("ProfilesRepo").Start(ctx, "CreateOwnProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "profiles"),
		attribute.String("db.user.id", user.ID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateOwnProfile"), slog.String("userID", user.ID.String()))
	l.DebugContext(ctx, "Provisioning own profile")

	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO profiles (user_id, is_user_profile, is_public, name, email, role)
         VALUES ($1, TRUE, FALSE, $2, $3, $4)
         RETURNING %s`, profileColumns),
		user.ID, user.Name, user.Email, user.Role))
	if err != nil {
		l.ErrorContext(ctx, "Failed to provision own profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating own profile: %w", err)
	}

	span.SetStatus(codes.Ok, "Own profile provisioned")
	return profile, nil
}

const updateProfileQuery = `UPDATE profiles SET
        name = COALESCE($1, name),
        age = COALESCE($2, age),
        gender = COALESCE($3::profile_gender, gender),
        marital_status = COALESCE($4::profile_marital_status, marital_status),
        caste = COALESCE($5::profile_caste, caste),
        education = COALESCE($6, education),
        occupation = COALESCE($7, occupation),
        location = COALESCE($8, location),
        contact = COALESCE($9, contact),
        email = COALESCE($10, email),
        phone_number = COALESCE($11, phone_number),
        website = COALESCE($12, website),
        social_links = COALESCE($13, social_links),
        skills = COALESCE($14, skills),
        bio = COALESCE($15, bio),
        notes = COALESCE($16, notes),
        experience = COALESCE($17, experience),
        is_public = COALESCE($18, is_public),
        updated_at = $19`

func updateArgs(params api.UpdateProfileParams) []interface{} {
	return []interface{}{
		params.Name, params.Age, params.Gender, params.MaritalStatus, params.Caste,
		params.Education, params.Occupation, params.Location, params.Contact,
		params.Email, params.PhoneNumber, params.Website, params.SocialLinks,
		params.Skills, params.Bio, params.Notes, params.Experience, params.IsPublic,
		time.Now(),
	}
}

// UpdateOwnProfile implements ProfilesRepo.
func (r *PostgresProfilesRepo) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	l := r.logger.With(slog.String("method", "UpdateOwnProfile"), slog.String("userID", userID.String()))

	args := append(updateArgs(params), userID)
	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("%s WHERE user_id = $20 AND is_user_profile RETURNING %s", updateProfileQuery, profileColumns),
		args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("own profile not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update own profile", slog.Any("error", err))
		return nil, fmt.Errorf("database error updating own profile: %w", err)
	}
	return profile, nil
}

// GetProfileByID implements ProfilesRepo.
func (r *PostgresProfilesRepo) GetProfileByID(ctx context.Context, profileID uuid.UUID) (*api.Profile, error) {
	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM profiles WHERE id = $1", profileColumns), profileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching profile: %w", err)
	}
	return profile, nil
}

// ListVisibleProfiles implements ProfilesRepo. Anonymous callers (nil
// requester) see only public rows.
func (r *PostgresProfilesRepo) ListVisibleProfiles(ctx context.Context, requester *uuid.UUID) ([]api.Profile, error) {
	ctx, span := otel.Tracer("ProfilesRepo").Start(ctx, "ListVisibleProfiles", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "profiles"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListVisibleProfiles"))

	queryStart := time.Now()
	defer func() {
		metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(queryStart).Seconds(),
			metric.WithAttributes(attribute.String("query", "list_visible_profiles")))
	}()

	var (
		rows pgx.Rows
		err  error
	)
	if requester == nil {
		rows, err = r.pgpool.Query(ctx,
			fmt.Sprintf("SELECT %s FROM profiles WHERE is_public ORDER BY created_at DESC", profileColumns))
	} else {
		rows, err = r.pgpool.Query(ctx,
			fmt.Sprintf("SELECT %s FROM profiles WHERE is_public OR user_id = $1 ORDER BY created_at DESC", profileColumns),
			*requester)
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to query profiles", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching profiles: %w", err)
	}

	profiles, err := scanProfiles(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "Profiles fetched")
	return profiles, nil
}

// CreateProfile implements ProfilesRepo.
func (r *PostgresProfilesRepo) CreateProfile(ctx context.Context, userID uuid.UUID, params api.CreateProfileParams) (*api.Profile, error) {
	l := r.logger.With(slog.String("method", "CreateProfile"), slog.String("userID", userID.String()))

	gender := params.Gender
	if gender == "" {
		gender = api.GenderDefault
	}
	maritalStatus := params.MaritalStatus
	if maritalStatus == "" {
		maritalStatus = api.MaritalStatusDefault
	}
	caste := params.Caste
	if caste == "" {
		caste = api.CasteDefault
	}

	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO profiles (user_id, is_user_profile, is_public, name, age, gender,
            marital_status, caste, education, occupation, location, contact, email,
            phone_number, website, social_links, skills, bio, notes, experience)
         VALUES ($1, FALSE, $2, $3, $4, $5::profile_gender, $6::profile_marital_status,
            $7::profile_caste, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
         RETURNING %s`, profileColumns),
		userID, params.IsPublic, params.Name, params.Age, gender, maritalStatus, caste,
		params.Education, params.Occupation, params.Location, params.Contact, params.Email,
		params.PhoneNumber, params.Website, params.SocialLinks, params.Skills,
		params.Bio, params.Notes, params.Experience))
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert profile", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile implements ProfilesRepo.
func (r *PostgresProfilesRepo) UpdateProfile(ctx context.Context, profileID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("profileID", profileID.String()))

	args := append(updateArgs(params), profileID)
	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		fmt.Sprintf("%s WHERE id = $20 RETURNING %s", updateProfileQuery, profileColumns),
		args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}
	return profile, nil
}

// DeleteProfile removes the profile together with its inbound messages and
// bookmarks, in one transaction.
func (r *PostgresProfilesRepo) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	l := r.logger.With(slog.String("method", "DeleteProfile"), slog.String("profileID", profileID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "DELETE FROM bookmarks WHERE profile_id = $1", profileID); err != nil {
		l.ErrorContext(ctx, "Failed to delete profile bookmarks", slog.Any("error", err))
		return fmt.Errorf("database error deleting profile bookmarks: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM messages WHERE recipient_profile_id = $1", profileID); err != nil {
		l.ErrorContext(ctx, "Failed to delete profile messages", slog.Any("error", err))
		return fmt.Errorf("database error deleting profile messages: %w", err)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM profiles WHERE id = $1", profileID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete profile", slog.Any("error", err))
		return fmt.Errorf("database error deleting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %w", api.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing profile delete: %w", err)
	}
	return nil
}

// SearchProfiles implements ProfilesRepo. Only rows the requester may see are
// searched.
func (r *PostgresProfilesRepo) SearchProfiles(ctx context.Context, requester *uuid.UUID, filter api.SearchProfilesFilter) ([]api.Profile, error) {
	l := r.logger.With(slog.String("method", "SearchProfiles"))

	conditions := []string{"is_public"}
	args := []interface{}{}
	if requester != nil {
		args = append(args, *requester)
		conditions[0] = fmt.Sprintf("(is_public OR user_id = $%d)", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Age != "" {
		args = append(args, filter.Age)
		conditions = append(conditions, fmt.Sprintf("age = $%d", len(args)))
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		conditions = append(conditions, fmt.Sprintf("gender = $%d::profile_gender", len(args)))
	}
	if filter.MaritalStatus != "" {
		args = append(args, filter.MaritalStatus)
		conditions = append(conditions, fmt.Sprintf("marital_status = $%d::profile_marital_status", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM profiles WHERE %s ORDER BY created_at DESC",
		profileColumns, strings.Join(conditions, " AND "))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search profiles", slog.Any("error", err))
		return nil, fmt.Errorf("database error searching profiles: %w", err)
	}
	return scanProfiles(rows)
}
