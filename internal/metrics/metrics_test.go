package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading scrape body: %v", err)
	}
	return string(body)
}

func TestObserveRequest(t *testing.T) {
	m := New(nil)
	m.ObserveRequest("GET /api/projects", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest("GET /api/projects", http.StatusOK, 7*time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `vipudev_http_requests_total{pattern="GET /api/projects",status="200"} 2`) {
		t.Errorf("scrape missing request counter:\n%s", body)
	}
	if !strings.Contains(body, "vipudev_http_request_duration_seconds_count") {
		t.Errorf("scrape missing duration histogram")
	}
}

func TestObserveSandboxRun(t *testing.T) {
	m := New(nil)
	m.ObserveSandboxRun("container", "timeout")

	body := scrape(t, m)
	if !strings.Contains(body, `vipudev_sandbox_runs_total{mode="container",outcome="timeout"} 1`) {
		t.Errorf("scrape missing sandbox counter:\n%s", body)
	}
}

func TestActiveTokensGauge(t *testing.T) {
	count := 3
	m := New(func() int { return count })

	body := scrape(t, m)
	if !strings.Contains(body, "vipudev_active_tokens 3") {
		t.Errorf("scrape missing token gauge:\n%s", body)
	}

	count = 5
	body = scrape(t, m)
	if !strings.Contains(body, "vipudev_active_tokens 5") {
		t.Errorf("gauge did not track function: \n%s", body)
	}
}
