package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIPExtract(t *testing.T) {
	c, err := NewClientIP(nil)
	if err != nil {
		t.Fatalf("NewClientIP: %v", err)
	}

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer ignores headers", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:80", "198.51.100.1", "", "198.51.100.1"},
		{"skips trusted hops", "10.0.0.2:80", "198.51.100.1, 192.168.1.4", "", "198.51.100.1"},
		{"spoofed leftmost ignored", "10.0.0.2:80", "1.1.1.1, 198.51.100.9", "", "198.51.100.9"},
		{"real ip fallback", "127.0.0.1:80", "", "198.51.100.3", "198.51.100.3"},
		{"garbage header", "127.0.0.1:80", "not-an-ip", "", "127.0.0.1"},
		{"no port", "203.0.113.7", "", "", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := c.Extract(r); got != tt.want {
				t.Fatalf("Extract = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClientIPRejectsBadProxy(t *testing.T) {
	if _, err := NewClientIP([]string{"10.0.0.0/40"}); err == nil {
		t.Fatal("expected error for bad CIDR")
	}
	if _, err := NewClientIP([]string{"proxy.local"}); err == nil {
		t.Fatal("expected error for hostname")
	}
	c, err := NewClientIP([]string{"203.0.113.9"})
	if err != nil {
		t.Fatalf("bare address: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := c.Extract(r); got != "198.51.100.1" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, ChartCDN) {
		t.Fatalf("CSP missing chart origin: %s", csp)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS set on plain HTTP")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rec, req)
	if !strings.HasPrefix(rec.Header().Get("Strict-Transport-Security"), "max-age=31536000") {
		t.Fatalf("HSTS = %q", rec.Header().Get("Strict-Transport-Security"))
	}
}
