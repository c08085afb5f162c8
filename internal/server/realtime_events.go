package server

import (
	"context"
	"encoding/json"

	"habitat/internal/middleware"
	"habitat/internal/models"
	"habitat/internal/notifications"
	"habitat/internal/observability"
)

// publishUserEvent delivers a gateway event to every active connection of a
// single user. When Redis is available the event goes through pub/sub and
// loops back to the local hub via its subscriber wiring; without Redis it is
// broadcast to local connections directly. Delivery is best-effort either
// way and never fails the calling request.
func (s *Server) publishUserEvent(userID uint, eventType string, payload interface{}) {
	if s.notifier != nil && s.redis != nil {
		event := notifications.Event{Type: eventType, Payload: payload}
		if err := s.notifier.PublishEvent(context.Background(), userID, event); err != nil {
			middleware.Logger.Warn("failed to publish user event",
				"event_type", eventType, "user_id", userID, "error", err)
		}
		return
	}

	if s.hub == nil {
		return
	}
	eventJSON, err := json.Marshal(notifications.Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.Error("failed to marshal user event",
			"event_type", eventType, "error", err)
		return
	}
	observability.RealtimeEventsTotal.WithLabelValues(eventType).Inc()
	s.hub.Broadcast(userID, string(eventJSON))
}

func newFriendRequestPayload(req *models.FriendRequest) map[string]interface{} {
	return map[string]interface{}{
		"requestId": req.ID,
		"from":      userSummary(req.From),
	}
}

func friendRequestUpdatePayload(req *models.FriendRequest) map[string]interface{} {
	return map[string]interface{}{
		"requestId": req.ID,
		"status":    req.Status,
	}
}

func newMessagePayload(chatID uint, msg *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"chatId":  chatID,
		"message": msg,
	}
}

func newActivityPayload(activity *models.Activity) map[string]interface{} {
	return map[string]interface{}{
		"activity": activity,
	}
}

func userSummary(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"avatar":       user.Avatar,
	}
}
