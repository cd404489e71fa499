package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/phrazzld/kanban-api/internal/config"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "debug",
			ShutdownTimeout: 2 * time.Second,
		},
		Database: config.DatabaseConfig{Driver: "memory", MaxOpenConns: 1},
		Auth:     config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5},
		Scheduler: config.SchedulerConfig{
			Enabled:       true,
			DeadlineSweep: "@every 1h",
		},
		Events: config.EventsConfig{Workers: 1, QueueSize: 16},
	}
}

func newTestApp(t *testing.T) *application {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplication(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	return app
}

func bearer(t *testing.T, app *application, userID uuid.UUID) string {
	t.Helper()
	token, err := app.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func TestNewApplication(t *testing.T) {
	t.Run("memory driver", func(t *testing.T) {
		app := newTestApp(t)
		assert.Nil(t, app.db)
		assert.NotNil(t, app.uow)
		assert.NotNil(t, app.services.Tasks)
		assert.NotNil(t, app.services.SubTasks)
		assert.NotNil(t, app.services.Columns)
		assert.NotNil(t, app.services.Rows)
		assert.NotNil(t, app.services.Users)
		assert.NotNil(t, app.scheduler)
	})

	t.Run("scheduler disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scheduler.Enabled = false
		app, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		assert.Nil(t, app.scheduler)
	})

	t.Run("invalid sweep schedule", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scheduler.DeadlineSweep = "not a schedule"
		_, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		assert.ErrorContains(t, err, "deadline scheduler")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "mongo"
		_, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.JWTSecret = "short"
		_, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		assert.ErrorContains(t, err, "JWT service")
	})
}

func TestRouter(t *testing.T) {
	app := newTestApp(t)
	router := app.setupRouter()

	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("api requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated request reaches the handlers", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"Doing"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/columns", body)
		req.Header.Set("Authorization", "Bearer "+bearer(t, app, uuid.New()))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var column map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &column))
		assert.Equal(t, "Doing", column["name"])
	})

	t.Run("empty board lists as an empty array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+bearer(t, app, uuid.New()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("cors preflight", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORS.AllowedOrigins = []string{"https://board.example.com"}
		corsApp, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		router := corsApp.setupRouter()

		req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
		req.Header.Set("Origin", "https://board.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "https://board.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestApplication_BroadcastsCommittedChanges(t *testing.T) {
	app := newTestApp(t)
	app.start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		app.cleanup(ctx)
	})

	server := httptest.NewServer(app.setupRouter())
	defer server.Close()

	token := bearer(t, app, uuid.New())
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws?access_token=" + token
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/tasks", strings.NewReader(`{"title":"Write release notes"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.BoardEvent
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, events.TaskCreated, event.Type)
	assert.NotEqual(t, uuid.Nil, event.EntityID)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	app := newTestApp(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, listener, app.setupRouter()) }()

	url := "http://" + listener.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
