package metrics

import (
	"fmt"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/perf/dropdown", "/api/v1/perf/dropdown"},
		{"/api/v1/perf/weight", "/api/v1/perf/weight"},
		{"/api/v1/perf/envelope", "/api/v1/perf/envelope"},
		{"/api/v1/wx/stations", "/api/v1/wx/stations"},
		{"/api/v1/admin/wx/refresh", "/api/v1/admin/wx/refresh"},
		{"/api/v1/stream/conditions", "/api/v1/stream/conditions"},

		// Parameterized station routes collapse to one label.
		{"/api/v1/wx/KJFK", "/api/v1/wx/{station}"},
		{"/api/v1/wx/ENZV", "/api/v1/wx/{station}"},
		{"/api/v1/wx/KGLS", "/api/v1/wx/{station}"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that many distinct station IDs produce
// exactly one distinct path label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute(fmt.Sprintf("/api/v1/wx/STN%02d", i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for station paths, got %d: %v", len(seen), seen)
	}
}
