package server

import (
	"habitat/internal/models"
	"habitat/internal/notifications"
	"habitat/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetChats handles GET /api/chats
func (s *Server) GetChats(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	chats, err := s.chatService.GetChats(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(chats)
}

// GetChat handles GET /api/chats/:userId.
// Chats are addressed by the other participant; the aggregate is created
// lazily on first access.
func (s *Server) GetChat(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.GetOrCreateChat(ctx, userID, otherID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(chat)
}

// GetChatMessages handles GET /api/chats/:userId/messages
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	pagination := parsePagination(c, 50)
	messages, err := s.chatService.GetMessages(ctx, userID, otherID, pagination.Limit, pagination.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(messages)
}

// sendMessageRequest is the body for POST /api/chats/:userId/messages.
type sendMessageRequest struct {
	Content     string             `json:"content"`
	Attachments models.Attachments `json:"attachments,omitempty"`
}

// SendChatMessage handles POST /api/chats/:userId/messages
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var body sendMessageRequest
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, chat, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
		UserID:      userID,
		OtherUserID: otherID,
		Content:     body.Content,
		Attachments: body.Attachments,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Push to the recipient's gateway connections; their unread badge moved.
	s.publishUserEvent(chat.OtherUser(userID), notifications.EventNewMessage,
		newMessagePayload(chat.ID, msg))

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkChatRead handles POST /api/chats/:userId/read
func (s *Server) MarkChatRead(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.chatService.MarkRead(ctx, userID, otherID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"unread_count": 0})
}

// GetUnreadTotal handles GET /api/chats/unread/count
func (s *Server) GetUnreadTotal(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	total, err := s.chatService.UnreadTotal(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"unread_count": total})
}
