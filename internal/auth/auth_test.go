package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		path       string
		authHeader string
		wantStatus int
	}{
		{"disabled passes everything", Config{}, "/api/v1/admin/wx/refresh", "", http.StatusOK},
		{"exempt path without token", Config{Enabled: true, Token: "s3cret"}, "/api/v1/perf/dropdown", "", http.StatusOK},
		{"probe without token", Config{Enabled: true, Token: "s3cret"}, "/healthz", "", http.StatusOK},
		{"station lookup without token", Config{Enabled: true, Token: "s3cret"}, "/api/v1/wx/KJFK", "", http.StatusOK},
		{"admin without token", Config{Enabled: true, Token: "s3cret"}, "/api/v1/admin/wx/refresh", "", http.StatusUnauthorized},
		{"admin with wrong token", Config{Enabled: true, Token: "s3cret"}, "/api/v1/admin/wx/refresh", "Bearer nope", http.StatusUnauthorized},
		{"admin with valid token", Config{Enabled: true, Token: "s3cret"}, "/api/v1/admin/wx/refresh", "Bearer s3cret", http.StatusOK},
		{"malformed header", Config{Enabled: true, Token: "s3cret"}, "/api/v1/admin/wx/refresh", "s3cret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Middleware(tt.cfg)(okHandler())
			req := httptest.NewRequest("POST", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
