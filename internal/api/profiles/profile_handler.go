package profiles

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
	GetOwnProfile(w http.ResponseWriter, r *http.Request)
	UpdateOwnProfile(w http.ResponseWriter, r *http.Request)
	GetProfile(w http.ResponseWriter, r *http.Request)
	ListProfiles(w http.ResponseWriter, r *http.Request)
	CreateProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	DeleteProfile(w http.ResponseWriter, r *http.Request)
	SearchProfiles(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	profilesService ProfilesService
	logger          *slog.Logger
}

func NewHandlerImpl(profilesService ProfilesService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		profilesService: profilesService,
		logger:          logger,
	}
}

// requesterID extracts the authenticated user id or writes the failure.
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

// profileIDParam parses the {profileID} route parameter.
func (h *HandlerImpl) profileIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid profile ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps domain errors onto HTTP statuses.
func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Profile not found")
	case errors.Is(err, api.ErrForbidden):
		api.ErrorResponse(w, r, http.StatusForbidden, "You do not have access to this profile")
	case errors.Is(err, api.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Profile operation failed", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Internal server error", err)
	}
}

// GetOwnProfile godoc
// @Summary      Get own profile
// @Description  Returns the caller's own profile, creating it on first access.
// @Tags         Profiles
// @Produce      json
// @Success      200 {object} api.Profile
// @Security     BearerAuth
// @Router       /profiles/user [get]
func (h *HandlerImpl) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	profile, err := h.profilesService.GetOwnProfile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateOwnProfile godoc
// @Summary      Update own profile
// @Tags         Profiles
// @Accept       json
// @Produce      json
// @Success      200 {object} api.Profile
// @Security     BearerAuth
// @Router       /profiles/user [put]
func (h *HandlerImpl) UpdateOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var params api.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profilesService.UpdateOwnProfile(r.Context(), userID, params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// GetProfile returns a single profile, subject to the visibility policy.
// Anonymous callers see only public entries.
func (h *HandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileIDParam(w, r)
	if !ok {
		return
	}

	requester := auth.RequesterFromContext(r.Context())
	profile, err := h.profilesService.GetProfile(r.Context(), requester, profileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// ListProfiles returns the directory listing visible to the caller.
func (h *HandlerImpl) ListProfiles(w http.ResponseWriter, r *http.Request) {
	requester := auth.RequesterFromContext(r.Context())

	profiles, err := h.profilesService.ListProfiles(r.Context(), requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []api.Profile{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profiles)
}

// CreateProfile godoc
// @Summary      Create a managed profile entry
// @Tags         Profiles
// @Accept       json
// @Produce      json
// @Success      201 {object} api.Profile
// @Security     BearerAuth
// @Router       /profiles [post]
func (h *HandlerImpl) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var params api.CreateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profilesService.CreateProfile(r.Context(), userID, params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, profile)
}

func (h *HandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.profileIDParam(w, r)
	if !ok {
		return
	}

	var params api.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profilesService.UpdateProfile(r.Context(), userID, profileID, params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

func (h *HandlerImpl) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.profileIDParam(w, r)
	if !ok {
		return
	}

	if err := h.profilesService.DeleteProfile(r.Context(), userID, profileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Profile deleted"})
}

// SearchProfiles filters the visible directory by query parameters.
func (h *HandlerImpl) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	requester := auth.RequesterFromContext(r.Context())

	q := r.URL.Query()
	filter := api.SearchProfilesFilter{
		Name:          q.Get("name"),
		Age:           q.Get("age"),
		Gender:        q.Get("gender"),
		MaritalStatus: q.Get("marital_status"),
	}

	profiles, err := h.profilesService.SearchProfiles(r.Context(), requester, filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []api.Profile{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profiles)
}
