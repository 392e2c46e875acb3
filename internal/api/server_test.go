package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/auth"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/stream"
)

func testServer(t *testing.T, authCfg auth.Config, cfg Config) http.Handler {
	t.Helper()
	logger := testLogger()
	store := testStore()
	streamHandler := stream.NewHandler(store, perf.S92, stream.Config{}, logger)
	web := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<!doctype html><title>FastPlanner</title>")},
	}
	srv := NewServer(":0", logger, authCfg, cfg, store, nil, streamHandler, web)
	return srv.HTTPServer().Handler
}

func get(handler http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	handler := testServer(t, auth.Config{}, Config{})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/", http.StatusOK},
		{"/api/v1/perf/dropdown?weight=23650&oat=30", http.StatusOK},
		{"/api/v1/perf/weight?dropdown=41&oat=30", http.StatusOK},
		{"/api/v1/perf/envelope", http.StatusOK},
		{"/api/v1/wx/stations", http.StatusOK},
		{"/api/v1/wx/ENZV", http.StatusOK},
		{"/api/v1/wx/XXXX", http.StatusNotFound},
		{"/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(handler, tt.path, "203.0.113.1:1000")
			if w.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestServerRateLimitsWeatherRoutes(t *testing.T) {
	handler := testServer(t, auth.Config{}, Config{
		RateLimitWindow: time.Minute,
		RateLimitMax:    3,
	})

	for i := 0; i < 3; i++ {
		if w := get(handler, "/api/v1/wx/stations", "203.0.113.9:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, w.Code)
		}
	}
	if w := get(handler, "/api/v1/wx/stations", "203.0.113.9:1000"); w.Code != http.StatusTooManyRequests {
		t.Errorf("over-budget request = %d, want 429", w.Code)
	}

	// Perf routes are not rate limited.
	if w := get(handler, "/api/v1/perf/envelope", "203.0.113.9:1000"); w.Code != http.StatusOK {
		t.Errorf("perf route should not be rate limited, got %d", w.Code)
	}
	// Other IPs keep their own budget.
	if w := get(handler, "/api/v1/wx/stations", "203.0.113.10:1000"); w.Code != http.StatusOK {
		t.Errorf("fresh IP = %d, want 200", w.Code)
	}
}

func TestServerAuthProtectsAdmin(t *testing.T) {
	handler := testServer(t, auth.Config{Enabled: true, Token: "s3cret"}, Config{})

	req := httptest.NewRequest("POST", "/api/v1/admin/wx/refresh", nil)
	req.RemoteAddr = "203.0.113.1:1000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("admin without token = %d, want 401", w.Code)
	}

	// Public routes stay open.
	if w := get(handler, "/api/v1/perf/envelope", "203.0.113.1:1000"); w.Code != http.StatusOK {
		t.Errorf("public route with auth enabled = %d, want 200", w.Code)
	}
}
