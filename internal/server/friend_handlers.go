package server

import (
	"habitat/internal/models"
	"habitat/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	req, err := s.friendService.SendRequest(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Notify the addressee so their UI updates immediately.
	s.publishUserEvent(req.ToID, notifications.EventNewFriendRequest, newFriendRequestPayload(req))

	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetPendingRequests(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetSentRequests(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, friendship, err := s.friendService.AcceptRequest(ctx, userID, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// The sender learns the outcome over the gateway.
	s.publishUserEvent(req.FromID, notifications.EventFriendRequestUpdate, friendRequestUpdatePayload(req))

	return c.JSON(fiber.Map{
		"request":    req,
		"friendship": friendship,
	})
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, err := s.friendService.RejectRequest(ctx, userID, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishUserEvent(req.FromID, notifications.EventFriendRequestUpdate, friendRequestUpdatePayload(req))

	return c.JSON(req)
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	friends, err := s.friendService.GetFriends(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(friends)
}

// SearchUsers handles GET /api/friends/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	pagination := parsePagination(c, 20)
	users, err := s.friendService.SearchUsers(ctx, userID, c.Query("q"), pagination.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(users)
}

// GetFriendsPresence handles GET /api/friends/presence and reports which of
// the caller's friends currently hold at least one gateway connection.
func (s *Server) GetFriendsPresence(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	friendIDs, err := s.friendService.GetFriendIDs(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	online := make([]uint, 0, len(friendIDs))
	if s.hub != nil {
		onlineSet := make(map[uint]struct{})
		for _, id := range s.hub.OnlineUserIDs(ctx) {
			onlineSet[id] = struct{}{}
		}
		for _, id := range friendIDs {
			if _, ok := onlineSet[id]; ok {
				online = append(online, id)
			}
		}
	}

	return c.JSON(fiber.Map{"online_user_ids": online})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.Unfriend(ctx, userID, otherID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// BlockUser handles POST /api/friends/:userId/block
func (s *Server) BlockUser(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.Block(ctx, userID, otherID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"status": models.FriendshipStatusBlocked})
}

// UnblockUser handles DELETE /api/friends/:userId/block
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.Unblock(ctx, userID, otherID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"status": models.FriendshipStatusActive})
}
