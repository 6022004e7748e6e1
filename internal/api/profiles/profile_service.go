package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/profilehub/profilehub/internal/api"
	"github.com/profilehub/profilehub/internal/api/policy"
)

// publicListingKey caches the anonymous directory listing, which is the same
// for every unauthenticated caller. Authenticated listings are not cached.
const publicListingKey = "profiles:public"

var _ ProfilesService = (*ProfilesServiceImpl)(nil)

// UserGetter resolves an account by id, used to seed own-profile provisioning.
type UserGetter interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error)
}

// ProfilesService defines the business contract for the profile directory.
type ProfilesService interface {
	GetOwnProfile(ctx context.Context, userID uuid.UUID) (*api.Profile, error)
	UpdateOwnProfile(ctx context.Context, userID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error)
	GetProfile(ctx context.Context, requester *uuid.UUID, profileID uuid.UUID) (*api.Profile, error)
	ListProfiles(ctx context.Context, requester *uuid.UUID) ([]api.Profile, error)
	CreateProfile(ctx context.Context, userID uuid.UUID, params api.CreateProfileParams) (*api.Profile, error)
	UpdateProfile(ctx context.Context, requesterID, profileID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error)
	DeleteProfile(ctx context.Context, requesterID, profileID uuid.UUID) error
	SearchProfiles(ctx context.Context, requester *uuid.UUID, filter api.SearchProfilesFilter) ([]api.Profile, error)
}

type ProfilesServiceImpl struct {
	logger *slog.Logger
	repo   ProfilesRepo
	users  UserGetter
	cache  *cache.Cache
}

func NewProfilesService(repo ProfilesRepo, users UserGetter, logger *slog.Logger) *ProfilesServiceImpl {
	return &ProfilesServiceImpl{
		logger: logger,
		repo:   repo,
		users:  users,
		cache:  cache.New(2*time.Minute, 5*time.Minute),
	}
}

// GetOwnProfile returns the caller's own profile, provisioning it on first
// access. Provisioned rows start private with defaults seeded from the
// account.
func (s *ProfilesServiceImpl) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*api.Profile, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "GetOwnProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetOwnProfile"), slog.String("userID", userID.String()))

	profile, err := s.repo.GetOwnProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, api.ErrNotFound) {
		span.RecordError(err)
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load account for provisioning", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	profile, err = s.repo.CreateOwnProfile(ctx, user)
	if err != nil {
		// A concurrent first request may have provisioned it already.
		if existing, getErr := s.repo.GetOwnProfile(ctx, userID); getErr == nil {
			return existing, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provisioning failed")
		return nil, err
	}

	l.InfoContext(ctx, "Own profile provisioned")
	span.SetStatus(codes.Ok, "Own profile provisioned")
	return profile, nil
}

// UpdateOwnProfile implements ProfilesService. IsUserProfile and ownership are
// never touched by the merge.
func (s *ProfilesServiceImpl) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	l := s.logger.With(slog.String("method", "UpdateOwnProfile"), slog.String("userID", userID.String()))

	profile, err := s.repo.UpdateOwnProfile(ctx, userID, params)
	if err != nil {
		l.WarnContext(ctx, "Own profile update failed", slog.Any("error", err))
		return nil, err
	}
	s.cache.Delete(publicListingKey)
	return profile, nil
}

// GetProfile implements ProfilesService. Denied reads are reported as
// ErrForbidden; the caller learns the profile exists but not its content.
func (s *ProfilesServiceImpl) GetProfile(ctx context.Context, requester *uuid.UUID, profileID uuid.UUID) (*api.Profile, error) {
	profile, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(requester, policy.Target{OwnerID: profile.UserID, IsPublic: profile.IsPublic}) {
		return nil, fmt.Errorf("profile is private: %w", api.ErrForbidden)
	}
	return profile, nil
}

// ListProfiles implements ProfilesService. The anonymous listing is cached
// briefly; per-user listings always hit the database.
func (s *ProfilesServiceImpl) ListProfiles(ctx context.Context, requester *uuid.UUID) ([]api.Profile, error) {
	if requester == nil {
		if cached, found := s.cache.Get(publicListingKey); found {
			if profiles, ok := cached.([]api.Profile); ok {
				return profiles, nil
			}
		}
	}

	profiles, err := s.repo.ListVisibleProfiles(ctx, requester)
	if err != nil {
		return nil, err
	}

	if requester == nil {
		s.cache.Set(publicListingKey, profiles, cache.DefaultExpiration)
	}
	return profiles, nil
}

// CreateProfile implements ProfilesService.
func (s *ProfilesServiceImpl) CreateProfile(ctx context.Context, userID uuid.UUID, params api.CreateProfileParams) (*api.Profile, error) {
	l := s.logger.With(slog.String("method", "CreateProfile"), slog.String("userID", userID.String()))

	if params.Name == "" {
		return nil, fmt.Errorf("profile name is required: %w", api.ErrValidation)
	}

	profile, err := s.repo.CreateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create profile", slog.Any("error", err))
		return nil, err
	}

	s.cache.Delete(publicListingKey)
	l.InfoContext(ctx, "Profile created", slog.String("profileID", profile.ID.String()))
	return profile, nil
}

// UpdateProfile implements ProfilesService. Only the owner may write.
func (s *ProfilesServiceImpl) UpdateProfile(ctx context.Context, requesterID, profileID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.String("profileID", profileID.String()))

	existing, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(&requesterID, policy.Target{OwnerID: existing.UserID, IsPublic: existing.IsPublic}) {
		return nil, fmt.Errorf("profile belongs to another user: %w", api.ErrForbidden)
	}

	profile, err := s.repo.UpdateProfile(ctx, profileID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		return nil, err
	}

	s.cache.Delete(publicListingKey)
	return profile, nil
}

// DeleteProfile implements ProfilesService. Only the owner may delete.
func (s *ProfilesServiceImpl) DeleteProfile(ctx context.Context, requesterID, profileID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "DeleteProfile"), slog.String("profileID", profileID.String()))

	existing, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return err
	}
	if !policy.CanDelete(&requesterID, policy.Target{OwnerID: existing.UserID, IsPublic: existing.IsPublic}) {
		return fmt.Errorf("profile belongs to another user: %w", api.ErrForbidden)
	}

	if err := s.repo.DeleteProfile(ctx, profileID); err != nil {
		l.ErrorContext(ctx, "Failed to delete profile", slog.Any("error", err))
		return err
	}

	s.cache.Delete(publicListingKey)
	l.InfoContext(ctx, "Profile deleted")
	return nil
}

// SearchProfiles implements ProfilesService.
func (s *ProfilesServiceImpl) SearchProfiles(ctx context.Context, requester *uuid.UUID, filter api.SearchProfilesFilter) ([]api.Profile, error) {
	return s.repo.SearchProfiles(ctx, requester, filter)
}
