package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMaintenanceRules(t *testing.T) {
	rules := newMaintenanceRules([]string{
		" /api/v1/steamguard/time ",
		"POST /api/v1/steamguard/links",
		"/api/v1/steamguard/accounts/:account_id/confirmations*",
		"",
	})

	tests := []struct {
		name   string
		method string
		route  string
		want   bool
	}{
		{name: "exact route any method", method: http.MethodGet, route: "/api/v1/steamguard/time", want: true},
		{name: "method qualified", method: http.MethodPost, route: "/api/v1/steamguard/links", want: true},
		{name: "other method passes", method: http.MethodGet, route: "/api/v1/steamguard/links", want: false},
		{name: "prefix", method: http.MethodPost, route: "/api/v1/steamguard/accounts/:account_id/confirmations/decide", want: true},
		{name: "unrelated", method: http.MethodGet, route: "/api/v1/steamguard/accounts", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := rules.blocked(tt.method, tt.route)

			// Assert
			if got != tt.want {
				t.Fatalf("blocked(%s %s) = %v, want %v", tt.method, tt.route, got, tt.want)
			}
		})
	}
}

func TestIncomingCID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "canonical", headers: map[string]string{HeaderCorrelationID: " abc "}, want: "abc"},
		{name: "request id fallback", headers: map[string]string{HeaderRequestID: "req-1"}, want: "req-1"},
		{name: "line break dropped", headers: map[string]string{HeaderCorrelationID: "a\r\nb", HeaderRequestID: "req-2"}, want: "req-2"},
		{name: "cut", headers: map[string]string{HeaderCorrelationID: strings.Repeat("x", 200)}, want: strings.Repeat("x", maxCorrelationIDLen)},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := http.Header{}
			for k, v := range tt.headers {
				h[http.CanonicalHeaderKey(k)] = []string{v}
			}

			// Act
			got := incomingCID(h)

			// Assert
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "true client ip", headers: map[string]string{"True-Client-IP": "203.0.113.9"}, remote: "10.0.0.1:1234", want: "203.0.113.9"},
		{name: "forwarded first hop", headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}, remote: "10.0.0.1:1234", want: "198.51.100.7"},
		{name: "invalid header falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			// Act
			got := clientIP(req)

			// Assert
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRouter_RecoversPanic(t *testing.T) {
	// Arrange
	r := newTestRouter()
	r.GET("/panic", func(*Request) (any, error) { panic("unexpected") })

	// Act
	rec := serve(r, http.MethodGet, "/panic", nil)

	// Assert
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
