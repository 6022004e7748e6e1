package messages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/profilehub/profilehub/internal/api"
)

// accessRequestContent is the conventional message used to ask a private
// profile's owner for access. Sending it deliberately does NOT require read
// access to the recipient.
const accessRequestContent = "Access request: I would like to view your profile."

var _ MessagesService = (*MessagesServiceImpl)(nil)

// MessagesService defines the business contract for messaging between users
// and profiles.
type MessagesService interface {
	// SendMessage delivers content to the recipient profile. The recipient
	// only needs to exist; its visibility is irrelevant.
	SendMessage(ctx context.Context, senderID, recipientProfileID uuid.UUID, content string) (*api.Message, error)
	// ListMessages returns the caller's sent messages plus messages addressed
	// to any of their profiles, newest first.
	ListMessages(ctx context.Context, userID uuid.UUID) ([]api.Message, error)
	// RequestAccess sends the conventional access-request message to the
	// profile's owner.
	RequestAccess(ctx context.Context, senderID, recipientProfileID uuid.UUID) (*api.Message, error)
}

type MessagesServiceImpl struct {
	logger *slog.Logger
	repo   MessagesRepo
}

func NewMessagesService(repo MessagesRepo, logger *slog.Logger) *MessagesServiceImpl {
	return &MessagesServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// SendMessage implements MessagesService.
func (s *MessagesServiceImpl) SendMessage(ctx context.Context, senderID, recipientProfileID uuid.UUID, content string) (*api.Message, error) {
	ctx, span := otel.Tracer("MessagesService").Start(ctx, "SendMessage", trace.WithAttributes(
		attribute.String("sender.id", senderID.String()),
		attribute.String("recipient.profile.id", recipientProfileID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SendMessage"),
		slog.String("senderID", senderID.String()),
		slog.String("recipientProfileID", recipientProfileID.String()))

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content is required: %w", api.ErrValidation)
	}

	exists, err := s.repo.RecipientExists(ctx, recipientProfileID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check recipient", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("recipient profile not found: %w", api.ErrNotFound)
	}

	message, err := s.repo.CreateMessage(ctx, senderID, recipientProfileID, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Message insert failed")
		return nil, err
	}

	l.InfoContext(ctx, "Message sent", slog.String("messageID", message.ID.String()))
	span.SetStatus(codes.Ok, "Message sent")
	return message, nil
}

// ListMessages implements MessagesService.
func (s *MessagesServiceImpl) ListMessages(ctx context.Context, userID uuid.UUID) ([]api.Message, error) {
	return s.repo.ListMessagesForUser(ctx, userID)
}

// RequestAccess implements MessagesService.
func (s *MessagesServiceImpl) RequestAccess(ctx context.Context, senderID, recipientProfileID uuid.UUID) (*api.Message, error) {
	return s.SendMessage(ctx, senderID, recipientProfileID, accessRequestContent)
}
