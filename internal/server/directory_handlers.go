package server

import (
	"crypto/subtle"
	"errors"
	"strings"

	"habitat/internal/middleware"
	"habitat/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthRequired guards service-to-service routes with a static key.
// The routes stay closed while INTERNAL_API_KEY is unset.
func (s *Server) ServiceAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Internal-Key")
		configured := s.config.InternalAPIKey
		if configured == "" || key == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(configured)) != 1 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid service credentials"))
		}
		return c.Next()
	}
}

type syncUserRequest struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

// SyncUser upserts a directory row pushed by the external auth service on
// account creation or profile change. The user ID is the auth service's and
// never changes; profile fields win on conflict.
func (s *Server) SyncUser(c *fiber.Ctx) error {
	var req syncUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.ID == 0 {
		return models.RespondWithAppError(c, models.NewValidationError("User ID is required"))
	}
	if req.Username == "" {
		return models.RespondWithAppError(c, models.NewValidationError("Username is required"))
	}

	ctx := c.UserContext()

	// A username already held by a different identity is a sync bug upstream;
	// reject it instead of letting the unique index blow up the upsert.
	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err == nil && existing.ID != req.ID {
		return models.RespondWithAppError(c,
			models.NewConflictError("Username is already taken"))
	}
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != models.CodeNotFound {
			return models.RespondWithAppError(c, err)
		}
	}

	user := &models.User{
		ID:          req.ID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return models.RespondWithAppError(c, err)
	}

	middleware.Logger.Info("directory row synced", "user_id", user.ID, "username", user.Username)
	return c.Status(fiber.StatusOK).JSON(user)
}
