package messages

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

var _ MessagesRepo = (*PostgresMessagesRepo)(nil)

// MessagesRepo defines the contract for message persistence. Messages are
// immutable once written.
type MessagesRepo interface {
	// CreateMessage stores a message from sender to the recipient profile.
	CreateMessage(ctx context.Context, senderID, recipientProfileID uuid.UUID, content string) (*api.Message, error)
	// ListMessagesForUser returns messages the user sent plus messages
	// addressed to any profile the user owns, newest first.
	ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]api.Message, error)
	// RecipientExists reports whether the recipient profile exists at all,
	// regardless of visibility.
	RecipientExists(ctx context.Context, profileID uuid.UUID) (bool, error)
}

// DBTX is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DBTX = (*pgxpool.Pool)(nil)

type PostgresMessagesRepo struct {
	logger *slog.Logger
	db     DBTX
}

func NewPostgresMessagesRepo(db DBTX, logger *slog.Logger) *PostgresMessagesRepo {
	return &PostgresMessagesRepo{
		logger: logger,
		db:     db,
	}
}

const messageColumns = `id, sender_id, recipient_profile_id, content, created_at`

// CreateMessage implements MessagesRepo.
func (r *PostgresMessagesRepo) CreateMessage(ctx context.Context, senderID, recipientProfileID uuid.UUID, content string) (*api.Message, error) {
	l := r.logger.With(slog.String("method", "CreateMessage"),
		slog.String("senderID", senderID.String()),
		slog.String("recipientProfileID", recipientProfileID.String()))

	var m api.Message
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO messages (sender_id, recipient_profile_id, content)
         VALUES ($1, $2, $3)
         RETURNING %s`, messageColumns),
		senderID, recipientProfileID, content,
	).Scan(&m.ID, &m.SenderID, &m.RecipientProfileID, &m.Content, &m.CreatedAt)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert message", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating message: %w", err)
	}
	return &m, nil
}

// ListMessagesForUser implements MessagesRepo.
func (r *PostgresMessagesRepo) ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]api.Message, error) {
	l := r.logger.With(slog.String("method", "ListMessagesForUser"), slog.String("userID", userID.String()))

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM messages
         WHERE sender_id = $1
            OR recipient_profile_id IN (SELECT id FROM profiles WHERE user_id = $1)
         ORDER BY created_at DESC`, messageColumns),
		userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query messages", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching messages: %w", err)
	}
	defer rows.Close()

	var messages []api.Message
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientProfileID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading messages: %w", err)
	}
	return messages, nil
}

// RecipientExists implements MessagesRepo.
func (r *PostgresMessagesRepo) RecipientExists(ctx context.Context, profileID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)", profileID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("database error checking recipient: %w", err)
	}
	return exists, nil
}
