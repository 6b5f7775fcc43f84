package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/dto"
	"taskhub/internal/notify"
	"taskhub/internal/repo"

	_ "taskhub/docs"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "v-test"
	cfg.HTTP.AllowOrigins = "*"
	cfg.Store.Driver = config.DriverMemory
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = config.EnvDuration(time.Hour)
	cfg.Auth.Issuer = "taskhub-test"
	cfg.Redis.DefaultTTL = config.EnvDuration(time.Minute)
	return cfg
}

func newTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dto.RegisterValidators())
	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := &App{
		cfg:    testConfig(),
		log:    log,
		stores: &Stores{Tasks: repo.NewMemoryTaskRepo(), Users: repo.NewMemoryUserRepo()},
		redis:  redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		hub:    notify.NewHub(notify.HubConfig{SendBuffer: 16, PingInterval: 5 * time.Second}, log),
	}
	a.router = a.newRouter()
	srv := httptest.NewServer(a.Router())
	t.Cleanup(func() {
		_ = a.Close(context.Background())
		srv.Close()
	})
	return a, srv
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return send(t, http.MethodPost, url, token, body)
}

func send(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, base, name, email string) dto.LoginResponse {
	t.Helper()
	resp := postJSON(t, base+"/api/v1/users/register", "", gin.H{"name": name, "email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postJSON(t, base+"/api/v1/users/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dialWS(t *testing.T, base, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+"/api/v1/ws?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func nextFrame(t *testing.T, conn *websocket.Conn) notify.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f notify.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestMetaRoutes(t *testing.T) {
	_, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, true, health["ok"])
	assert.Equal(t, float64(0), health["ws_connections"])

	resp2, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, _ := io.ReadAll(resp2.Body)
	assert.Contains(t, string(body), "v-test")

	resp3, err := http.Get(srv.URL + "/swagger-doc.json")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	body, _ = io.ReadAll(resp3.Body)
	assert.Contains(t, string(body), "/tasks/assign/{id}")
}

func TestNotificationsEndToEnd(t *testing.T) {
	a, srv := newTestApp(t)
	alice := login(t, srv.URL, "Alice", "alice@example.com")
	bob := login(t, srv.URL, "Bob", "bob@example.com")

	aliceWS := dialWS(t, srv.URL, alice.Token)
	bobWS := dialWS(t, srv.URL, bob.Token)
	require.Eventually(t, func() bool { return a.registry.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	resp := postJSON(t, srv.URL+"/api/v1/tasks", alice.Token, gin.H{"title": "Draft spec"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task dto.TaskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))

	assert.Equal(t, "TASK_CREATED", nextFrame(t, aliceWS).Event)
	assert.Equal(t, "TASK_CREATED", nextFrame(t, bobWS).Event)

	resp = send(t, http.MethodPatch, srv.URL+"/api/v1/tasks/assign/"+task.ID, alice.Token, gin.H{"targetUserId": bob.User.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f := nextFrame(t, bobWS)
	require.Equal(t, "TASK_ASSIGNED", f.Event)
	payload := f.Payload.(map[string]any)
	assert.Equal(t, task.ID, payload["taskId"])
	assert.Equal(t, "Alice", payload["assignedBy"])
	assert.Equal(t, "TASK_UPDATED", nextFrame(t, bobWS).Event)
	// Only the broadcast reaches the creator.
	assert.Equal(t, "TASK_UPDATED", nextFrame(t, aliceWS).Event)

	resp = send(t, http.MethodPatch, srv.URL+"/api/v1/tasks/"+task.ID, bob.Token, gin.H{"status": "Completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TASK_UPDATED", nextFrame(t, aliceWS).Event)
	f = nextFrame(t, aliceWS)
	require.Equal(t, "TASK_FINISHED", f.Event)
	assert.Equal(t, task.ID, f.Payload.(map[string]any)["taskId"])
	assert.Equal(t, "TASK_UPDATED", nextFrame(t, bobWS).Event)

	resp = send(t, http.MethodDelete, srv.URL+"/api/v1/tasks/"+task.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, conn := range []*websocket.Conn{aliceWS, bobWS} {
		f := nextFrame(t, conn)
		assert.Equal(t, "TASK_DELETED", f.Event)
		assert.Equal(t, map[string]any{"taskId": task.ID}, f.Payload)
	}
}

func TestWSRequiresToken(t *testing.T) {
	_, srv := newTestApp(t)
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClosesPushConnection(t *testing.T) {
	a, srv := newTestApp(t)
	alice := login(t, srv.URL, "Alice", "alice@example.com")
	conn := dialWS(t, srv.URL, alice.Token)
	require.Eventually(t, func() bool { return a.registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp := postJSON(t, srv.URL+"/api/v1/users/logout", alice.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool { return a.registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws?token="+alice.Token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
