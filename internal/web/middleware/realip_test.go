package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"no trusted proxies", nil, "10.0.0.1:1234", "1.2.3.4", "", "10.0.0.1:1234"},
		{"trusted X-Real-IP", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "1.2.3.4", "", "1.2.3.4"},
		{"trusted X-Forwarded-For", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "", "5.6.7.8, 10.0.0.2", "5.6.7.8"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.168.1.1:1234", "1.2.3.4", "", "192.168.1.1:1234"},
		{"bare IP entry", []string{"127.0.0.1"}, "127.0.0.1:80", "9.9.9.9", "", "9.9.9.9"},
		{"invalid header value", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "not-an-ip", "", "10.0.0.1:1234"},
		{"invalid CIDR skipped", []string{"bogus"}, "10.0.0.1:1234", "1.2.3.4", "", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"1.2.3.4:5678": "1.2.3.4",
		"[::1]:80":     "::1",
		"1.2.3.4":      "1.2.3.4",
		"garbage":      "garbage",
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if got := ClientIP(req); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}
