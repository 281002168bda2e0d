package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vipudev/vipudev/internal/log"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header    string
		wantToken string
		wantOK    bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Basic dXNlcg==", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		token, ok := bearerToken(req)
		if token != tt.wantToken || ok != tt.wantOK {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)",
				tt.header, token, ok, tt.wantToken, tt.wantOK)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xRealIP    string
		xff        string
		trustProxy bool
		want       string
	}{
		{"direct", "10.0.0.1:5000", "", "", false, "10.0.0.1"},
		{"proxy headers ignored when untrusted", "10.0.0.1:5000", "1.2.3.4", "", false, "10.0.0.1"},
		{"x-real-ip trusted", "10.0.0.1:5000", "1.2.3.4", "", true, "1.2.3.4"},
		{"xff first entry", "10.0.0.1:5000", "", "1.2.3.4, 5.6.7.8", true, "1.2.3.4"},
		{"garbage header falls back", "10.0.0.1:5000", "not-an-ip", "", true, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	th := newThrottle(1.0, 2)

	if !th.take("1.1.1.1") || !th.take("1.1.1.1") {
		t.Fatal("burst requests should be allowed")
	}
	if th.take("1.1.1.1") {
		t.Error("request beyond burst should be denied")
	}
	if !th.take("2.2.2.2") {
		t.Error("different IP should have its own bucket")
	}
}

func TestThrottle_SweepStale(t *testing.T) {
	th := newThrottle(1.0, 1)
	th.take("1.1.1.1")
	th.take("2.2.2.2")

	// Age everything past the idle expiry and make the next take sweep.
	th.mu.Lock()
	for _, c := range th.clients {
		c.active = time.Now().Add(-throttleIdleExpiry - time.Minute)
	}
	th.lastSweep = time.Now().Add(-throttleSweepEvery - time.Minute)
	th.mu.Unlock()

	th.take("3.3.3.3")

	th.mu.Lock()
	defer th.mu.Unlock()
	if len(th.clients) != 1 {
		t.Errorf("clients after sweep = %d, want 1", len(th.clients))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(log.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %d, want 500", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var inCtx string
	handler := requestIDMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inCtx, _ = requestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if inCtx != header {
		t.Errorf("context id %q != header id %q", inCtx, header)
	}
}
