package auth

import "crypto/subtle"

// Credentials verifies the configured operator username and password.
// Comparison is constant-time to avoid leaking prefix matches.
type Credentials struct {
	username string
	password string
}

// NewCredentials creates a verifier for the configured admin account.
func NewCredentials(username, password string) *Credentials {
	return &Credentials{username: username, password: password}
}

// Verify reports whether the supplied username and password both match.
func (c *Credentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	return userOK && passOK
}
