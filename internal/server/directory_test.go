package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"habitat/internal/models"
	"habitat/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) syncUser(t *testing.T, key string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/internal/users", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Internal-Key", key)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) internalPost(t *testing.T, key, path string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Internal-Key", key)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSyncUserRequiresServiceKey(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{"id": 7, "username": "synced"}

	// Endpoint is closed while no key is configured.
	resp := env.syncUser(t, "any-key", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.server.config.InternalAPIKey = "svc-key"

	resp = env.syncUser(t, "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.syncUser(t, "wrong-key", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.syncUser(t, "svc-key", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSyncUserUpsertsDirectoryRow(t *testing.T) {
	env := newTestEnv(t)
	env.server.config.InternalAPIKey = "svc-key"

	resp := env.syncUser(t, "svc-key", map[string]interface{}{
		"id": 501, "username": "newcomer", "display_name": "New Comer",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeBody[models.User](t, resp)
	assert.Equal(t, uint(501), created.ID)
	assert.Equal(t, "newcomer", created.Username)

	// Profile change on the same identity updates in place.
	resp = env.syncUser(t, "svc-key", map[string]interface{}{
		"id": 501, "username": "newcomer", "display_name": "Renamed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var row models.User
	require.NoError(t, env.db.First(&row, 501).Error)
	assert.Equal(t, "Renamed", row.DisplayName)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSyncUserValidation(t *testing.T) {
	env := newTestEnv(t)
	env.server.config.InternalAPIKey = "svc-key"

	resp := env.syncUser(t, "svc-key", map[string]interface{}{"username": "no-id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.syncUser(t, "svc-key", map[string]interface{}{"id": 9, "username": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncUserRejectsUsernameCollision(t *testing.T) {
	env := newTestEnv(t)
	env.server.config.InternalAPIKey = "svc-key"
	existing := env.createUser(t)

	resp := env.syncUser(t, "svc-key", map[string]interface{}{
		"id": existing.ID + 1000, "username": existing.Username,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "Username is already taken", body["error"])
}

func TestBroadcastNotice(t *testing.T) {
	env := newTestEnv(t)

	// Closed without the service key.
	resp := env.internalPost(t, "", "/api/internal/broadcast", map[string]string{"message": "maintenance at noon"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.server.config.InternalAPIKey = "svc-key"

	resp = env.internalPost(t, "svc-key", "/api/internal/broadcast", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	sub := env.rdb.Subscribe(context.Background(), "notifications:broadcast")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	resp = env.internalPost(t, "svc-key", "/api/internal/broadcast", map[string]string{"message": "maintenance at noon"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case msg := <-sub.Channel():
		var event notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, notifications.EventSystemNotice, event.Type)
		payload, ok := event.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "maintenance at noon", payload["message"])
	case <-time.After(2 * time.Second):
		t.Fatal("expected systemNotice on the broadcast channel")
	}
}
