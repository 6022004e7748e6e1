package bookmarks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/api"
)

var _ BookmarksService = (*BookmarksServiceImpl)(nil)

// BookmarksService defines the business contract for saved profiles.
type BookmarksService interface {
	// BookmarkProfile saves the profile for the user. Duplicates yield
	// api.ErrConflict, missing profiles api.ErrNotFound. Bookmarking does not
	// require read access: a bookmark records interest, it grants nothing.
	BookmarkProfile(ctx context.Context, userID, profileID uuid.UUID) (*api.Bookmark, error)
	// RemoveBookmark deletes the saved pair.
	RemoveBookmark(ctx context.Context, userID, profileID uuid.UUID) error
	// ListBookmarkedProfiles returns the user's saved profiles, most recent
	// first.
	ListBookmarkedProfiles(ctx context.Context, userID uuid.UUID) ([]api.Profile, error)
}

type BookmarksServiceImpl struct {
	logger *slog.Logger
	repo   BookmarksRepo
}

func NewBookmarksService(repo BookmarksRepo, logger *slog.Logger) *BookmarksServiceImpl {
	return &BookmarksServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// BookmarkProfile implements BookmarksService.
func (s *BookmarksServiceImpl) BookmarkProfile(ctx context.Context, userID, profileID uuid.UUID) (*api.Bookmark, error) {
	l := s.logger.With(slog.String("method", "BookmarkProfile"),
		slog.String("userID", userID.String()),
		slog.String("profileID", profileID.String()))

	exists, err := s.repo.ProfileExists(ctx, profileID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check profile", slog.Any("error", err))
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("profile not found: %w", api.ErrNotFound)
	}

	bookmark, err := s.repo.CreateBookmark(ctx, userID, profileID)
	if err != nil {
		l.WarnContext(ctx, "Bookmark create failed", slog.Any("error", err))
		return nil, err
	}
	return bookmark, nil
}

// RemoveBookmark implements BookmarksService.
func (s *BookmarksServiceImpl) RemoveBookmark(ctx context.Context, userID, profileID uuid.UUID) error {
	return s.repo.DeleteBookmark(ctx, userID, profileID)
}

// ListBookmarkedProfiles implements BookmarksService.
func (s *BookmarksServiceImpl) ListBookmarkedProfiles(ctx context.Context, userID uuid.UUID) ([]api.Profile, error) {
	return s.repo.ListBookmarkedProfiles(ctx, userID)
}
