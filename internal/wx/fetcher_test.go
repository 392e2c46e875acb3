package wx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcherSuccess(t *testing.T) {
	var gotIDs, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		gotFormat = r.URL.Query().Get("format")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sampleMETARJSON))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger, "ENZV", "KGLS")
	data, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty body")
	}
	if gotIDs != "ENZV,KGLS" {
		t.Errorf("ids param = %q, want ENZV,KGLS", gotIDs)
	}
	if gotFormat != "json" {
		t.Errorf("format param = %q, want json", gotFormat)
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger, "ENZV")
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestFetcherNoStations(t *testing.T) {
	fetcher := NewFetcher("http://unused.invalid", testLogger)
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when no stations are configured")
	}
}

// TestFetcherBodyLimit verifies that oversized responses return an error
// instead of consuming unbounded memory.
func TestFetcherBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := []byte(strings.Repeat("A", 1024*1024))
		for i := 0; i < 6; i++ {
			if _, err := w.Write(chunk); err != nil {
				return // Client closed connection.
			}
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger, "ENZV")
	_, err := fetcher.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got: %v", err)
	}
}
