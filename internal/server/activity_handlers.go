package server

import (
	"habitat/internal/models"
	"habitat/internal/notifications"
	"habitat/internal/service"

	"github.com/gofiber/fiber/v2"
)

// recordActivityRequest is the body for POST /api/activities.
type recordActivityRequest struct {
	Type       models.ActivityType       `json:"type"`
	Details    models.ActivityDetails    `json:"details"`
	Points     int                       `json:"points"`
	Visibility models.ActivityVisibility `json:"visibility"`
}

// RecordActivity handles POST /api/activities
func (s *Server) RecordActivity(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var body recordActivityRequest
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	activity, recipients, err := s.activityService.RecordActivity(ctx, service.RecordActivityInput{
		ActorID:    userID,
		Type:       body.Type,
		Details:    body.Details,
		Points:     body.Points,
		Visibility: body.Visibility,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Fan out to every friend allowed to see the entry.
	for _, recipientID := range recipients {
		s.publishUserEvent(recipientID, notifications.EventNewActivity, newActivityPayload(activity))
	}

	return c.Status(fiber.StatusCreated).JSON(activity)
}

// GetActivityFeed handles GET /api/activities/feed
func (s *Server) GetActivityFeed(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	pagination := parsePagination(c, 50)
	feed, err := s.activityService.GetFeed(ctx, userID, pagination.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(feed)
}

// GetUserActivities handles GET /api/activities/user/:userId
func (s *Server) GetUserActivities(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	actorID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	pagination := parsePagination(c, 50)
	feed, err := s.activityService.GetUserFeed(ctx, userID, actorID, pagination.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(feed)
}

// updateVisibilityRequest is the body for PATCH /api/activities/:id/visibility.
type updateVisibilityRequest struct {
	Visibility models.ActivityVisibility `json:"visibility"`
}

// UpdateActivityVisibility handles PATCH /api/activities/:id/visibility
func (s *Server) UpdateActivityVisibility(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	activityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var body updateVisibilityRequest
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	activity, err := s.activityService.SetVisibility(ctx, userID, activityID, body.Visibility)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(activity)
}

// DeleteActivity handles DELETE /api/activities/:id
func (s *Server) DeleteActivity(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	activityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.activityService.DeleteActivity(ctx, userID, activityID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
