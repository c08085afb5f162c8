// Package notifications provides the real-time gateway: per-identity event
// channels delivered over websockets and fanned out across processes through
// Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"

	"habitat/internal/middleware"
	"habitat/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event kinds pushed to clients. Payload shapes are fixed per kind; clients
// treat unknown kinds as a signal to re-fetch.
const (
	EventNewFriendRequest    = "newFriendRequest"
	EventFriendRequestUpdate = "friendRequestUpdate"
	EventNewMessage          = "newMessage"
	EventNewActivity         = "newActivity"

	// EventSystemNotice is an operational notice pushed to every connection
	// through the broadcast channel rather than a user channel.
	EventSystemNotice = "systemNotice"
)

// Event is the wire envelope for every gateway push.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Notifier publishes gateway events into Redis channels. A nil Redis client
// degrades every publish to a no-op so the REST surface keeps working.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent marshals the event and publishes it to userID's channel.
func (n *Notifier) PublishEvent(ctx context.Context, userID uint, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	observability.RealtimeEventsTotal.WithLabelValues(event.Type).Inc()
	return n.PublishUser(ctx, userID, string(data))
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a payload to every connected user.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartPatternSubscriber subscribes to every user channel plus the broadcast
// channel and calls onMessage for each incoming message. It returns after the
// subscription is set up; delivery runs until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern, broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in gateway subscriber",
								"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = "notifications:user:*"
	broadcastChannel   = "notifications:broadcast"
)

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}
