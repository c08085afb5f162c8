package service

import (
	"context"
	"strings"

	"habitat/internal/models"
	"habitat/internal/repository"
)

// ChatService provides direct-message business logic.
type ChatService struct {
	chatRepo   repository.ChatRepository
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	UserID      uint
	OtherUserID uint
	Content     string
	Attachments models.Attachments
}

// NewChatService returns a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
) *ChatService {
	return &ChatService{
		chatRepo:   chatRepo,
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// authorizePair checks the two users may talk to each other. Chats are scoped
// to active friendships.
func (s *ChatService) authorizePair(ctx context.Context, userID, otherID uint) error {
	if userID == otherID {
		return models.NewValidationError("Cannot open a chat with yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return err
	}
	ok, err := s.friendRepo.AreFriends(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You can only chat with your friends")
	}
	return nil
}

// GetOrCreateChat returns the single chat between userID and otherID,
// creating it on first contact. The caller's unread counter is attached.
func (s *ChatService) GetOrCreateChat(ctx context.Context, userID, otherID uint) (*models.Chat, error) {
	if err := s.authorizePair(ctx, userID, otherID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.GetOrCreate(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}

	unread, err := s.chatRepo.UnreadCount(ctx, chat.ID, userID)
	if err != nil {
		return nil, err
	}
	chat.UnreadCount = unread
	return chat, nil
}

// GetChats lists the caller's chats, most recently active first.
func (s *ChatService) GetChats(ctx context.Context, userID uint) ([]*models.Chat, error) {
	return s.chatRepo.GetUserChats(ctx, userID)
}

// SendMessage appends a message to the pair's chat, creating the chat when it
// does not exist yet. Returns the stored message and its chat.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*models.Message, *models.Chat, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && len(input.Attachments) == 0 {
		return nil, nil, models.NewValidationError("Message must have content or attachments")
	}
	for _, a := range input.Attachments {
		if err := a.Validate(); err != nil {
			return nil, nil, err
		}
	}

	if err := s.authorizePair(ctx, input.UserID, input.OtherUserID); err != nil {
		return nil, nil, err
	}

	chat, err := s.chatRepo.GetOrCreate(ctx, input.UserID, input.OtherUserID)
	if err != nil {
		return nil, nil, err
	}

	msg := &models.Message{
		ChatID:      chat.ID,
		SenderID:    input.UserID,
		Content:     content,
		Attachments: input.Attachments,
	}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	return msg, chat, nil
}

// GetMessages pages through the chat with otherID in chronological order.
func (s *ChatService) GetMessages(ctx context.Context, userID, otherID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.authorizePair(ctx, userID, otherID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.GetOrCreate(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessages(ctx, chat.ID, limit, offset)
}

// MarkRead resets the caller's unread counter for the chat with otherID.
func (s *ChatService) MarkRead(ctx context.Context, userID, otherID uint) error {
	if err := s.authorizePair(ctx, userID, otherID); err != nil {
		return err
	}
	chat, err := s.chatRepo.GetOrCreate(ctx, userID, otherID)
	if err != nil {
		return err
	}
	return s.chatRepo.MarkRead(ctx, chat.ID, userID)
}

// UnreadTotal is the caller's badge count across all chats.
func (s *ChatService) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	return s.chatRepo.UnreadTotal(ctx, userID)
}
