package bookmarks

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/api"
	"github.com/profilehub/profilehub/internal/api/auth"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	BookmarkProfile(w http.ResponseWriter, r *http.Request)
	RemoveBookmark(w http.ResponseWriter, r *http.Request)
	ListBookmarkedProfiles(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	bookmarksService BookmarksService
	logger           *slog.Logger
}

func NewHandlerImpl(bookmarksService BookmarksService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		bookmarksService: bookmarksService,
		logger:           logger,
	}
}

func (h *HandlerImpl) requesterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID in token")
		return uuid.Nil, false
	}
	return id, true
}

func (h *HandlerImpl) profileIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid profile ID")
		return uuid.Nil, false
	}
	return id, true
}

// BookmarkProfile godoc
// @Summary      Bookmark a profile
// @Tags         Bookmarks
// @Produce      json
// @Success      201 {object} api.Bookmark
// @Security     BearerAuth
// @Router       /bookmarks/{profileID} [post]
func (h *HandlerImpl) BookmarkProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.profileIDParam(w, r)
	if !ok {
		return
	}

	bookmark, err := h.bookmarksService.BookmarkProfile(r.Context(), userID, profileID)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Profile not found")
		case errors.Is(err, api.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "Profile already bookmarked")
		default:
			h.logger.ErrorContext(r.Context(), "Bookmark create failed", slog.Any("error", err))
			api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, bookmark)
}

func (h *HandlerImpl) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.profileIDParam(w, r)
	if !ok {
		return
	}

	if err := h.bookmarksService.RemoveBookmark(r.Context(), userID, profileID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Bookmark not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Bookmark delete failed", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Bookmark removed"})
}

// ListBookmarkedProfiles returns the caller's saved profiles, most recent
// first.
func (h *HandlerImpl) ListBookmarkedProfiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	profiles, err := h.bookmarksService.ListBookmarkedProfiles(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Bookmark listing failed", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	if profiles == nil {
		profiles = []api.Profile{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profiles)
}
