package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/wx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testDataset() *wx.Dataset {
	return &wx.Dataset{
		Source:    "test",
		FetchedAt: time.Now().UTC(),
		Reports: []wx.Report{
			{StationID: "ENZV", TempC: 12, WindDirDeg: 280, WindSpeedKt: 18, AltimeterHpa: 1003.25, ElevationM: 9},
			{StationID: "KGLS", TempC: 31, WindDirDeg: 140, WindSpeedKt: 8, AltimeterHpa: 1013.25, ElevationM: 2},
		},
	}
}

// sseMessages extracts the JSON payloads of all "data:" lines in an SSE body.
func sseMessages(t *testing.T, body string) []map[string]any {
	t.Helper()
	var msgs []map[string]any
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("invalid SSE payload %q: %v", payload, err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestHandleConditions_MetadataFirst(t *testing.T) {
	store := wx.NewStore()
	store.Set(testDataset())

	h := NewHandler(store, perf.S92, Config{
		PollInterval:      5 * time.Millisecond,
		KeepaliveInterval: time.Hour,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest("GET", "/api/v1/stream/conditions", nil).WithContext(ctx)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()

	h.HandleConditions(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	msgs := sseMessages(t, w.Body.String())
	if len(msgs) < 2 {
		t.Fatalf("expected metadata + conditions, got %d messages", len(msgs))
	}
	if msgs[0]["type"] != "metadata" {
		t.Errorf("first message type = %v, want metadata", msgs[0]["type"])
	}
	if msgs[1]["type"] != "conditions" {
		t.Errorf("second message type = %v, want conditions", msgs[1]["type"])
	}

	stations, ok := msgs[1]["stations"].([]any)
	if !ok || len(stations) != 2 {
		t.Fatalf("expected 2 station entries, got %v", msgs[1]["stations"])
	}
	first := stations[0].(map[string]any)
	if first["station_id"] != "ENZV" {
		t.Errorf("station_id = %v, want ENZV", first["station_id"])
	}
	if mtow, ok := first["max_takeoff_lb"].(float64); !ok || mtow < 22000 || mtow > 27000 {
		t.Errorf("max_takeoff_lb = %v, expected a plausible gross weight", first["max_takeoff_lb"])
	}
}

func TestHandleConditions_PushesOnDatasetChange(t *testing.T) {
	store := wx.NewStore()
	store.Set(testDataset())

	h := NewHandler(store, perf.S92, Config{
		PollInterval:      5 * time.Millisecond,
		KeepaliveInterval: time.Hour,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	// Replace the dataset mid-stream.
	go func() {
		time.Sleep(30 * time.Millisecond)
		ds := testDataset()
		ds.FetchedAt = time.Now().UTC().Add(time.Second)
		ds.Reports[0].TempC = 25
		store.Set(ds)
	}()

	req := httptest.NewRequest("GET", "/api/v1/stream/conditions", nil).WithContext(ctx)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()

	h.HandleConditions(w, req)

	var conditions int
	for _, m := range sseMessages(t, w.Body.String()) {
		if m["type"] == "conditions" {
			conditions++
		}
	}
	if conditions < 2 {
		t.Errorf("expected at least 2 conditions messages after dataset change, got %d", conditions)
	}
}

func TestHandleConditions_NoDataset(t *testing.T) {
	h := NewHandler(wx.NewStore(), perf.S92, Config{
		PollInterval:      5 * time.Millisecond,
		KeepaliveInterval: time.Hour,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest("GET", "/api/v1/stream/conditions", nil).WithContext(ctx)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()

	h.HandleConditions(w, req)

	msgs := sseMessages(t, w.Body.String())
	if len(msgs) != 1 || msgs[0]["type"] != "metadata" {
		t.Fatalf("expected exactly one metadata message without a dataset, got %v", msgs)
	}
	if age, ok := msgs[0]["age_seconds"].(float64); !ok || age != -1 {
		t.Errorf("age_seconds = %v, want -1 for empty store", msgs[0]["age_seconds"])
	}
}

func TestConnLimiter_PerIP(t *testing.T) {
	l := newConnLimiter(2, 100)

	if !l.acquire("a") || !l.acquire("a") {
		t.Fatal("first two connections for an IP should be admitted")
	}
	if l.acquire("a") {
		t.Error("third connection for the same IP should be rejected")
	}
	if !l.acquire("b") {
		t.Error("a different IP should still be admitted")
	}

	l.release("a")
	if !l.acquire("a") {
		t.Error("released slot should be reusable")
	}
	if got := l.count("a"); got != 2 {
		t.Errorf("count(a) = %d, want 2", got)
	}
}

func TestConnLimiter_GlobalCap(t *testing.T) {
	l := newConnLimiter(10, 3)

	for i, ip := range []string{"a", "b", "c"} {
		if !l.acquire(ip) {
			t.Fatalf("connection %d should be admitted", i)
		}
	}
	if l.acquire("d") {
		t.Error("connection beyond the global cap should be rejected")
	}

	l.release("b")
	if !l.acquire("d") {
		t.Error("slot freed under the global cap should be reusable")
	}
}
