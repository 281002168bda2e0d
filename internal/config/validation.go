package config

import "fmt"

// validSSLModes are the SSL modes accepted by the pgx driver.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration and fails fast on the first problem.
// The OpenAI API key is deliberately not required here: the assistant and
// image routes return a 500 at request time when the key is absent, while
// the rest of the dashboard keeps working.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidServerPort, c.ServerPort)
	}

	if c.AdminUsername == "" || c.AdminPassword == "" {
		return ErrMissingAdminCredentials
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if c.RunTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: run_timeout_seconds = %d", ErrInvalidSandboxTimeout, c.RunTimeoutSeconds)
	}
	if c.ProjectTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: project_timeout_seconds = %d", ErrInvalidSandboxTimeout, c.ProjectTimeoutSeconds)
	}
	if c.SandboxMemoryLimit == "" {
		return ErrInvalidSandboxMemory
	}

	return nil
}
