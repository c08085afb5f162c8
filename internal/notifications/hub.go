package notifications

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"habitat/internal/middleware"
	"habitat/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is the in-process end of the gateway: it maps userID to that user's
// live connections and fans Redis-delivered events into them.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	presence   *ConnectionManager
}

// NewHub creates a hub. The Redis client is optional; without it presence is
// tracked locally only.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		shutdown: make(chan struct{}),
		presence: NewConnectionManager(rdb, ConnectionManagerConfig{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "gateway hub" }

// Register attaches a connection to userID's channel. Fails when connection
// limits are exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}
	return client, nil
}

// UnregisterClient detaches a connection; the last connection for a user
// starts the presence offline grace window.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
	}
}

// Broadcast delivers a payload to every connection userID currently holds.
// With no connections the event is counted as dropped; there is no buffering
// of missed events.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	if !ok || len(clients) == 0 {
		observability.RealtimeEventsDropped.WithLabelValues("offline").Inc()
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
}

// BroadcastAll delivers a payload to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether the user has at least one live connection, here or
// on another process.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// OnlineUserIDs lists users currently considered online.
func (h *Hub) OnlineUserIDs(ctx context.Context) []uint {
	if h.presence != nil {
		return h.presence.GetOnlineUserIDs(ctx)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.conns))
	for userID := range h.conns {
		ids = append(ids, userID)
	}
	return ids
}

// SetPresenceCallbacks wires online/offline transition hooks.
func (h *Hub) SetPresenceCallbacks(onOnline, onOffline func(userID uint)) {
	if h.presence != nil {
		h.presence.SetCallbacks(onOnline, onOffline)
	}
}

// StartWiring subscribes the hub to the notifier's channels so events
// published by any process reach the connections this process holds.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		raw, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok {
			middleware.Logger.Warn("unexpected gateway channel", "channel", channel)
			return
		}
		id64, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			middleware.Logger.Warn("unparseable gateway channel", "channel", channel)
			return
		}
		h.Broadcast(uint(id64), payload)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for userID, clients := range h.conns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Warn("failed to write close message", "user_id", userID, "error", err)
			}
			if err := client.Conn.Close(); err != nil {
				middleware.Logger.Warn("failed to close websocket", "user_id", userID, "error", err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}
