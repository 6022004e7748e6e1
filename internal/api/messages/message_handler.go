package messages

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/api"
	"github.com/profilehub/profilehub/internal/api/auth"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SendMessage(w http.ResponseWriter, r *http.Request)
	ListMessages(w http.ResponseWriter, r *http.Request)
	RequestAccess(w http.ResponseWriter, r *http.Request)
}

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	RecipientProfileID uuid.UUID `json:"recipient_profile_id"`
	Content            string    `json:"content"`
}

// RequestAccessRequest is the body for POST /request-access.
type RequestAccessRequest struct {
	ProfileID uuid.UUID `json:"profileId"`
}

type HandlerImpl struct {
	messagesService MessagesService
	logger          *slog.Logger
}

func NewHandlerImpl(messagesService MessagesService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		messagesService: messagesService,
		logger:          logger,
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

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Recipient profile not found")
	case errors.Is(err, api.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Message operation failed", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Internal server error", err)
	}
}

// SendMessage godoc
// @Summary      Send a message to a profile
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Success      201 {object} api.Message
// @Security     BearerAuth
// @Router       /messages [post]
func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RecipientProfileID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Recipient profile ID is required")
		return
	}

	message, err := h.messagesService.SendMessage(r.Context(), senderID, req.RecipientProfileID, req.Content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, message)
}

// ListMessages returns the caller's message history, newest first.
func (h *HandlerImpl) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	messages, err := h.messagesService.ListMessages(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if messages == nil {
		messages = []api.Message{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, messages)
}

// RequestAccess sends the conventional access-request message to the owner of
// the given profile. Works on profiles the caller cannot read.
func (h *HandlerImpl) RequestAccess(w http.ResponseWriter, r *http.Request) {
	senderID, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var req RequestAccessRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProfileID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Profile ID is required")
		return
	}

	message, err := h.messagesService.RequestAccess(r.Context(), senderID, req.ProfileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, message)
}
