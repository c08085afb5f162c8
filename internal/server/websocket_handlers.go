package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"habitat/internal/cache"
	"habitat/internal/middleware"
	"habitat/internal/models"
	"habitat/internal/notifications"
	"habitat/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IssueWSTicket handles POST /api/ws/ticket. It mints a short-lived
// single-use ticket the browser presents as a query parameter on the
// upgrade request, since WebSocket handshakes cannot carry an
// Authorization header from browser clients.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("ticket store unavailable")))
	}

	ticket := uuid.NewString()
	key := cache.TicketKey(ticket)
	value := strconv.FormatUint(uint64(userID), 10)
	if err := s.redis.Set(c.Context(), key, value, cache.TicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.TicketTTL.Seconds()),
	})
}

// BroadcastNotice handles POST /api/internal/broadcast. Operators push a
// system notice to every connected client, e.g. ahead of maintenance.
func (s *Server) BroadcastNotice(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return models.RespondWithAppError(c, models.NewValidationError("Message is required"))
	}

	event := notifications.Event{
		Type:    notifications.EventSystemNotice,
		Payload: fiber.Map{"message": req.Message},
	}
	data, err := json.Marshal(event)
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}

	observability.RealtimeEventsTotal.WithLabelValues(event.Type).Inc()
	if s.notifier != nil && s.redis != nil {
		if err := s.notifier.PublishBroadcast(c.Context(), string(data)); err != nil {
			return models.RespondWithAppError(c, models.NewInternalError(err))
		}
	} else if s.hub != nil {
		s.hub.BroadcastAll(string(data))
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

// WebsocketHandler returns a websocket handler that registers connections
// with the gateway hub. Authentication is handled by route middleware and
// userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		uid, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("gateway registration refused",
				"user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		// Read pump runs in the handler goroutine; returning tears the
		// connection down.
		client.ReadPump()
	})
}
