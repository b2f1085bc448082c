package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"watchparty/internal/config"
	"watchparty/internal/db"
	"watchparty/internal/realtime"
	"watchparty/internal/service"
	"watchparty/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Port:         "0",
		JWTSecret:    "test-secret",
		Env:          "dev",
		TokenTTLDays: 7,
	}
	gdb, err := db.Connect("host=localhost user=postgres password=postgres dbname=watchparty port=5432 sslmode=disable TimeZone=UTC")
	if err != nil {
		t.Skipf("skip: db not available: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Skipf("skip: migrate failed: %v", err)
	}
	hub := ws.NewHub()
	logger := zerolog.Nop()
	coord := realtime.NewCoordinator(realtime.Config{
		Broadcaster: hub,
		Store:       service.NewCoreStore(gdb),
		Logger:      &logger,
	})
	return SetupRouter(cfg, gdb, hub, coord)
}

func TestHealthz(t *testing.T) {
	engine := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthedRoutesRejectMissingToken(t *testing.T) {
	engine := testRouter(t)

	for _, path := range []string{"/api/auth/me", "/api/auth/friends", "/api/places/my-places"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, w.Code)
		}
	}
}

func TestWebSocketEndpointRejectsAnonymous(t *testing.T) {
	engine := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /ws = %d, want 401", w.Code)
	}
}
