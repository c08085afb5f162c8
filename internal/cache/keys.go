package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TicketKeyPrefix   = "ws:ticket:%s"
	PresenceKeyPrefix = "presence:user:%d"
	UserKeyPrefix     = "user:%d"
)

const (
	// TicketTTL bounds the window between minting a websocket ticket and
	// redeeming it on the upgrade request.
	TicketTTL = 30 * time.Second

	PresenceTTL = 90 * time.Second
	UserTTL     = 5 * time.Minute
)

func TicketKey(ticket string) string {
	return fmt.Sprintf(TicketKeyPrefix, ticket)
}

func PresenceKey(userID uint) string {
	return fmt.Sprintf(PresenceKeyPrefix, userID)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
