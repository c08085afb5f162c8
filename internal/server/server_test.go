package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"habitat/internal/config"
	"habitat/internal/database"
	"habitat/internal/models"
	"habitat/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var usernameSeq uint64

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	rdb    *redis.Client
}

// newTestEnv wires a full server against in-memory SQLite and miniredis.
// Requests authenticate with real Bearer tokens so the whole middleware
// chain is exercised.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", Port: "0"}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)

	return &testEnv{server: s, app: app, db: db, rdb: rdb}
}

func (e *testEnv) createUser(t *testing.T) *models.User {
	t.Helper()
	n := atomic.AddUint64(&usernameSeq, 1)
	u := &models.User{
		Username:    fmt.Sprintf("user_%d", n),
		DisplayName: fmt.Sprintf("User %d", n),
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) request(t *testing.T, method, path string, asUser uint, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		token := signToken(t, "test-secret", strconv.FormatUint(uint64(asUser), 10))
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	return out
}

func (e *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()

	resp := e.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", b.ID), a.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decodeBody[models.FriendRequest](t, resp)

	resp = e.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d/accept", req.ID), b.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{"/api/friends", "/api/chats", "/api/activities/feed"}
	for _, path := range paths {
		resp := env.request(t, http.MethodGet, path, 0, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestFriendRequestLifecycleHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	carol := env.createUser(t)

	// The addressee's gateway channel should carry a newFriendRequest event.
	sub := env.rdb.Subscribe(context.Background(), notifications.UserChannel(bob.ID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bob.ID), alice.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decodeBody[models.FriendRequest](t, resp)
	assert.Equal(t, alice.ID, req.FromID)
	assert.Equal(t, models.FriendRequestStatusPending, req.Status)

	select {
	case msg := <-sub.Channel():
		var event notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, notifications.EventNewFriendRequest, event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("expected newFriendRequest event on the addressee channel")
	}

	// Second send while pending conflicts.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bob.ID), alice.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Reverse direction conflicts too.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", alice.ID), bob.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Self-request is a validation error.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", alice.ID), alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// The addressee sees the pending request.
	resp = env.request(t, http.MethodGet, "/api/friends/requests", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeBody[[]models.FriendRequest](t, resp)
	require.Len(t, pending, 1)

	// Someone else's accept reads as missing.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d/accept", req.ID), carol.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// The addressee accepts; the response carries the new edge.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d/accept", req.ID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decodeBody[map[string]json.RawMessage](t, resp)
	require.Contains(t, accepted, "friendship")

	// A second resolution loses the conditional write.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d/reject", req.ID), bob.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Both sides list each other.
	resp = env.request(t, http.MethodGet, "/api/friends", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	aliceFriends := decodeBody[[]models.Friend](t, resp)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, bob.ID, aliceFriends[0].User.ID)

	resp = env.request(t, http.MethodGet, "/api/friends", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobFriends := decodeBody[[]models.Friend](t, resp)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, alice.ID, bobFriends[0].User.ID)
}

func TestChatFlowHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	mallory := env.createUser(t)

	// Chats require an active friendship.
	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", alice.ID), mallory.ID,
		fiber.Map{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	env.befriend(t, alice, bob)

	// Empty message body is a validation error.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", bob.ID), alice.ID,
		fiber.Map{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", bob.ID), alice.ID,
		fiber.Map{"content": "first"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decodeBody[models.Message](t, resp)
	assert.Equal(t, alice.ID, msg.SenderID)

	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", bob.ID), alice.ID,
		fiber.Map{"content": "second"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// The recipient's badge counts both, the sender's none.
	resp = env.request(t, http.MethodGet, "/api/chats/unread/count", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unread := decodeBody[map[string]int](t, resp)
	assert.Equal(t, 2, unread["unread_count"])

	resp = env.request(t, http.MethodGet, "/api/chats/unread/count", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unread = decodeBody[map[string]int](t, resp)
	assert.Equal(t, 0, unread["unread_count"])

	// The chat list carries each caller's own per-chat counter.
	resp = env.request(t, http.MethodGet, "/api/chats", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobChats := decodeBody[[]models.Chat](t, resp)
	require.Len(t, bobChats, 1)
	assert.Equal(t, 2, bobChats[0].UnreadCount)

	resp = env.request(t, http.MethodGet, "/api/chats", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	aliceChats := decodeBody[[]models.Chat](t, resp)
	require.Len(t, aliceChats, 1)
	assert.Equal(t, 0, aliceChats[0].UnreadCount)

	// Messages come back in chronological order.
	resp = env.request(t, http.MethodGet, fmt.Sprintf("/api/chats/%d/messages", alice.ID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	messages := decodeBody[[]models.Message](t, resp)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	// Reading resets the badge.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/read", alice.ID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/chats/unread/count", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unread = decodeBody[map[string]int](t, resp)
	assert.Equal(t, 0, unread["unread_count"])

	// The chat list shows one aggregate for each side.
	resp = env.request(t, http.MethodGet, "/api/chats", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chats := decodeBody[[]models.Chat](t, resp)
	require.Len(t, chats, 1)
}

func TestActivityFlowHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	stranger := env.createUser(t)
	env.befriend(t, alice, bob)

	// Missing required details for the type.
	resp := env.request(t, http.MethodPost, "/api/activities", alice.ID, fiber.Map{
		"type":    models.ActivityStreakAchieved,
		"details": fiber.Map{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPost, "/api/activities", alice.ID, fiber.Map{
		"type":    models.ActivityStreakAchieved,
		"details": fiber.Map{"habit_name": "running", "streak_count": 30},
		"points":  50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	activity := decodeBody[models.Activity](t, resp)
	assert.Equal(t, models.VisibilityFriends, activity.Visibility)

	// A friend sees it in their feed.
	resp = env.request(t, http.MethodGet, "/api/activities/feed", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeBody[[]models.Activity](t, resp)
	require.Len(t, feed, 1)
	assert.Equal(t, alice.ID, feed[0].ActorID)

	// A stranger does not.
	resp = env.request(t, http.MethodGet, fmt.Sprintf("/api/activities/user/%d", alice.ID), stranger.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	strangerView := decodeBody[[]models.Activity](t, resp)
	assert.Empty(t, strangerView)

	// An unknown actor resolves through the user directory and 404s.
	resp = env.request(t, http.MethodGet, "/api/activities/user/999999", bob.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// Only the actor can retarget visibility.
	resp = env.request(t, http.MethodPatch, fmt.Sprintf("/api/activities/%d/visibility", activity.ID), bob.ID,
		fiber.Map{"visibility": models.VisibilityPrivate})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPatch, fmt.Sprintf("/api/activities/%d/visibility", activity.ID), alice.ID,
		fiber.Map{"visibility": models.VisibilityPrivate})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[models.Activity](t, resp)
	assert.Equal(t, models.VisibilityPrivate, updated.Visibility)

	// Now hidden from the friend's feed.
	resp = env.request(t, http.MethodGet, "/api/activities/feed", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed = decodeBody[[]models.Activity](t, resp)
	assert.Empty(t, feed)

	// Delete follows the same actor-only rule.
	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/activities/%d", activity.ID), bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/activities/%d", activity.ID), alice.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBlockStopsChatHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	env.befriend(t, alice, bob)

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/%d/block", bob.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// A blocked edge no longer authorizes the chat.
	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", alice.ID), bob.ID,
		fiber.Map{"content": "hello?"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Unblock restores it.
	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/friends/%d/block", bob.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", alice.ID), bob.ID,
		fiber.Map{"content": "hello again"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUnfriendRemovesEdgeHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	env.befriend(t, alice, bob)

	resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/friends/%d", bob.ID), alice.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/friends", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	friends := decodeBody[[]models.Friend](t, resp)
	assert.Empty(t, friends)

	// Removing again reads as missing.
	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/friends/%d", bob.ID), alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestFriendSearchAnnotatesStatusHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	buddy := env.createUser(t)
	invited := env.createUser(t)
	inviter := env.createUser(t)
	nobody := env.createUser(t)

	env.befriend(t, alice, buddy)

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", invited.ID), alice.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sentReq := decodeBody[models.FriendRequest](t, resp)

	resp = env.request(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", alice.ID), inviter.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	type searchResult struct {
		ID               uint   `json:"id"`
		Username         string `json:"username"`
		FriendshipStatus string `json:"friendship_status"`
		RequestID        uint   `json:"request_id"`
	}

	resp = env.request(t, http.MethodGet, "/api/friends/search?q=user_", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decodeBody[[]searchResult](t, resp)

	byID := make(map[uint]searchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	// The viewer never appears in their own results.
	assert.NotContains(t, byID, alice.ID)
	assert.Equal(t, "friends", byID[buddy.ID].FriendshipStatus)
	assert.Equal(t, "pending_sent", byID[invited.ID].FriendshipStatus)
	assert.Equal(t, sentReq.ID, byID[invited.ID].RequestID)
	assert.Equal(t, "pending_received", byID[inviter.ID].FriendshipStatus)
	assert.Equal(t, "none", byID[nobody.ID].FriendshipStatus)
}
