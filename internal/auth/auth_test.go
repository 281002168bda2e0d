package auth

import (
	"testing"
	"time"
)

func TestTokenLifecycle(t *testing.T) {
	s := NewMemoryTokenStore(0)

	token, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() = %v", err)
	}
	if len(token) != tokenBytes*2 {
		t.Errorf("len(token) = %d, want %d hex chars", len(token), tokenBytes*2)
	}

	if !s.Validate(token) {
		t.Error("Validate(issued token) = false, want true")
	}

	s.Revoke(token)
	if s.Validate(token) {
		t.Error("Validate(revoked token) = true, want false")
	}
}

func TestValidate_UnknownToken(t *testing.T) {
	s := NewMemoryTokenStore(0)

	if s.Validate("deadbeef") {
		t.Error("Validate(unknown) = true, want false")
	}
	if s.Validate("") {
		t.Error("Validate(empty) = true, want false")
	}
}

func TestValidate_Expiry(t *testing.T) {
	s := NewMemoryTokenStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	token, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() = %v", err)
	}

	if !s.Validate(token) {
		t.Fatal("Validate(fresh token) = false, want true")
	}

	current = current.Add(2 * time.Minute)
	if s.Validate(token) {
		t.Error("Validate(expired token) = true, want false")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", s.Len())
	}
}

func TestValidate_SweepRemovesStaleTokens(t *testing.T) {
	s := NewMemoryTokenStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }
	s.lastSweep = current

	for range 5 {
		if _, err := s.Issue(); err != nil {
			t.Fatalf("Issue() = %v", err)
		}
	}

	// Push past both the TTL and the sweep interval, then validate a fresh
	// token to trigger the sweep.
	current = current.Add(sweepInterval + time.Minute)
	fresh, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() = %v", err)
	}
	if !s.Validate(fresh) {
		t.Fatal("Validate(fresh) = false, want true")
	}

	if s.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", s.Len())
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	s := NewMemoryTokenStore(0)

	seen := make(map[string]bool)
	for range 100 {
		token, err := s.Issue()
		if err != nil {
			t.Fatalf("Issue() = %v", err)
		}
		if seen[token] {
			t.Fatalf("Issue() returned duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestCredentials_Verify(t *testing.T) {
	c := NewCredentials("admin", "hunter2")

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"both match", "admin", "hunter2", true},
		{"wrong password", "admin", "hunter3", false},
		{"wrong username", "root", "hunter2", false},
		{"both wrong", "root", "toor", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Verify(tt.username, tt.password); got != tt.want {
				t.Errorf("Verify(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}
