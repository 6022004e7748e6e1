package messages

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/internal/api"
)

type MockMessagesRepo struct {
	mock.Mock
}

func (m *MockMessagesRepo) CreateMessage(ctx context.Context, senderID, recipientProfileID uuid.UUID, content string) (*api.Message, error) {
	args := m.Called(ctx, senderID, recipientProfileID, content)
	message, _ := args.Get(0).(*api.Message)
	return message, args.Error(1)
}

func (m *MockMessagesRepo) ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]api.Message, error) {
	args := m.Called(ctx, userID)
	messages, _ := args.Get(0).([]api.Message)
	return messages, args.Error(1)
}

func (m *MockMessagesRepo) RecipientExists(ctx context.Context, profileID uuid.UUID) (bool, error) {
	args := m.Called(ctx, profileID)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo MessagesRepo) *MessagesServiceImpl {
	return NewMessagesService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	senderID := uuid.New()
	profileID := uuid.New()

	t.Run("delivers to an existing profile regardless of visibility", func(t *testing.T) {
		repo := new(MockMessagesRepo)
		repo.On("RecipientExists", ctx, profileID).Return(true, nil).Once()
		repo.On("CreateMessage", ctx, senderID, profileID, "hello").
			Return(&api.Message{ID: uuid.New(), SenderID: senderID, RecipientProfileID: profileID, Content: "hello"}, nil).Once()

		message, err := newTestService(repo).SendMessage(ctx, senderID, profileID, "hello")

		require.NoError(t, err)
		assert.Equal(t, "hello", message.Content)
		repo.AssertExpectations(t)
	})

	t.Run("missing recipient is not found", func(t *testing.T) {
		repo := new(MockMessagesRepo)
		repo.On("RecipientExists", ctx, profileID).Return(false, nil).Once()

		_, err := newTestService(repo).SendMessage(ctx, senderID, profileID, "hello")

		assert.ErrorIs(t, err, api.ErrNotFound)
		repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank content is rejected", func(t *testing.T) {
		repo := new(MockMessagesRepo)

		_, err := newTestService(repo).SendMessage(ctx, senderID, profileID, "   ")

		assert.ErrorIs(t, err, api.ErrValidation)
		repo.AssertNotCalled(t, "RecipientExists", mock.Anything, mock.Anything)
	})
}

func TestRequestAccess(t *testing.T) {
	ctx := context.Background()
	senderID := uuid.New()
	profileID := uuid.New()

	t.Run("sends the conventional access-request message", func(t *testing.T) {
		repo := new(MockMessagesRepo)
		repo.On("RecipientExists", ctx, profileID).Return(true, nil).Once()
		repo.On("CreateMessage", ctx, senderID, profileID, accessRequestContent).
			Return(&api.Message{ID: uuid.New(), Content: accessRequestContent}, nil).Once()

		message, err := newTestService(repo).RequestAccess(ctx, senderID, profileID)

		require.NoError(t, err)
		assert.Equal(t, accessRequestContent, message.Content)
		repo.AssertExpectations(t)
	})

	t.Run("missing profile is not found", func(t *testing.T) {
		repo := new(MockMessagesRepo)
		repo.On("RecipientExists", ctx, profileID).Return(false, nil).Once()

		_, err := newTestService(repo).RequestAccess(ctx, senderID, profileID)

		assert.ErrorIs(t, err, api.ErrNotFound)
	})
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	repo := new(MockMessagesRepo)
	repo.On("ListMessagesForUser", ctx, userID).Return([]api.Message{{ID: uuid.New()}}, nil).Once()

	messages, err := newTestService(repo).ListMessages(ctx, userID)

	require.NoError(t, err)
	assert.Len(t, messages, 1)
	repo.AssertExpectations(t)
}
