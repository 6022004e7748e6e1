package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	GetMe(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
	UpdatePassword(w http.ResponseWriter, r *http.Request)
	DeleteAccount(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// requesterID extracts and parses the authenticated user id set by the
// Authenticate middleware.
func (h *HandlerImpl) requesterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

// Register godoc
// @Summary      Register
// @Description  Creates a new account and returns a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      201 {object} AuthResponse
// @Failure      400 {object} api.Response "Validation error or conflict"
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	token, user, err := h.authService.Register(ctx, req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
		if errors.Is(err, api.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "User already exists")
			return
		}
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error registering user", err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    NewUserSummary(user),
	})
}

// Login godoc
// @Summary      Login
// @Description  Verifies credentials and returns a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200 {object} AuthResponse
// @Failure      400 {object} api.Response "Missing fields"
// @Failure      401 {object} api.Response "Invalid credentials"
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Same response for unknown email and wrong password.
		if errors.Is(err, api.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error logging in", err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    NewUserSummary(user),
	})
}

// GetMe returns the identity summary for the token's subject, or 404 when the
// subject no longer exists.
func (h *HandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetMe"))

	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error fetching user profile", err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"user": NewUserSummary(user)})
}

// UpdateSettings godoc
// @Summary      Update Settings
// @Description  Updates name, email and/or username for the authenticated user.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /auth/settings [put]
func (h *HandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateSettings"))

	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var params api.UpdateSettingsParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.UpdateSettings(ctx, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrConflict):
			// The wrapped message names the colliding field.
			api.ErrorResponse(w, r, http.StatusBadRequest, conflictMessage(err))
		case errors.Is(err, api.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		default:
			l.ErrorContext(ctx, "Failed to update settings", slog.Any("error", err))
			api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error updating settings", err)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"message": "Settings updated successfully",
		"user":    NewUserSummary(user),
	})
}

// UpdatePassword verifies the current password before accepting a new one.
func (h *HandlerImpl) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdatePassword"))

	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	err := h.authService.UpdatePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, api.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		default:
			l.ErrorContext(ctx, "Failed to update password", slog.Any("error", err))
			api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error updating password", err)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Password updated successfully"})
}

// DeleteAccount removes the account and all dependents after password
// re-verification.
func (h *HandlerImpl) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DeleteAccount"))

	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var req DeleteAccountRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Password is required for account deletion")
		return
	}

	err := h.authService.DeleteAccount(ctx, userID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Password is incorrect")
		case errors.Is(err, api.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		default:
			l.ErrorContext(ctx, "Failed to delete account", slog.Any("error", err))
			api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error deleting account", err)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Account deleted successfully"})
}

// conflictMessage maps a wrapped conflict error onto its client-facing text.
func conflictMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return "Email is already taken"
	case strings.Contains(msg, "username"):
		return "Username is already taken"
	default:
		return "Value already in use"
	}
}
