package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr only", "10.0.0.1:54321", "", "", "10.0.0.1"},
		{"forwarded for", "10.0.0.1:54321", "203.0.113.5", "", "203.0.113.5"},
		{"forwarded chain", "10.0.0.1:54321", "203.0.113.5, 10.0.0.2", "", "203.0.113.5"},
		{"real ip", "10.0.0.1:54321", "", "203.0.113.9", "203.0.113.9"},
		{"forwarded wins over real ip", "10.0.0.1:54321", "203.0.113.5", "203.0.113.9", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("Expected a generated request id in context")
		}
		if rr.Header().Get("X-Request-Id") != seen {
			t.Error("Expected response header to match context id")
		}
	})

	t.Run("keeps client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "ci-run-42")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if seen != "ci-run-42" {
			t.Errorf("Expected client-supplied id to be kept, got %q", seen)
		}
	})
}
