// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.vipudev/config.yaml)
//  3. Default values
//
// Categories:
//   - Server: listen address, CORS origins, proxy trust, rate limiting
//   - Auth: admin credentials for the single operator
//   - Assistant: OpenAI credential and model selection
//   - Storage: PostgreSQL connection (see storage.go)
//   - Sandbox: container runtime binary and resource ceilings
//
// Sensitive values (admin password, API key, postgres password) are masked in
// MarshalJSON and never logged.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAdminCredentials indicates admin username or password is empty.
	ErrMissingAdminCredentials = errors.New("missing admin credentials")

	// ErrInvalidServerPort indicates the server port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is not recognized.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidSandboxTimeout indicates a sandbox timeout is zero or negative.
	ErrInvalidSandboxTimeout = errors.New("invalid sandbox timeout")

	// ErrInvalidSandboxMemory indicates the sandbox memory limit is empty.
	ErrInvalidSandboxMemory = errors.New("invalid sandbox memory limit")
)

// Defaults for history reads surfaced through the API.
const (
	// DefaultChatHistoryLimit is the default row limit for chat history reads.
	DefaultChatHistoryLimit = 50

	// DefaultExecutionLogLimit is the default row limit for execution log reads.
	DefaultExecutionLogLimit = 20

	// DefaultMemoryMessages is the number of stored chat messages injected as
	// conversational memory before each assistant call.
	DefaultMemoryMessages = 20
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets, update MarshalJSON.
type Config struct {
	// Server configuration
	ServerHost  string   `mapstructure:"server_host" json:"server_host"`
	ServerPort  int      `mapstructure:"server_port" json:"server_port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`   // Per-IP token bucket burst (0 = default)

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug|info|warn|error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Admin credentials (single operator)
	AdminUsername string `mapstructure:"admin_username" json:"admin_username"`
	AdminPassword string `mapstructure:"admin_password" json:"admin_password"` // SENSITIVE: masked in MarshalJSON
	TokenTTL      int    `mapstructure:"token_ttl_minutes" json:"token_ttl_minutes"`

	// Assistant configuration
	OpenAIAPIKey     string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIChatModel  string `mapstructure:"openai_chat_model" json:"openai_chat_model"`
	OpenAIImageModel string `mapstructure:"openai_image_model" json:"openai_image_model"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Sandbox configuration
	DockerBinary          string `mapstructure:"docker_binary" json:"docker_binary"`
	RunTimeoutSeconds     int    `mapstructure:"run_timeout_seconds" json:"run_timeout_seconds"`
	ProjectTimeoutSeconds int    `mapstructure:"project_timeout_seconds" json:"project_timeout_seconds"`
	SandboxMemoryLimit    string `mapstructure:"sandbox_memory_limit" json:"sandbox_memory_limit"`
	SandboxCPULimit       string `mapstructure:"sandbox_cpu_limit" json:"sandbox_cpu_limit"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".vipudev")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults and env apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server_host", "0.0.0.0")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 0)

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)

	// Admin defaults (matching the development docker-compose)
	viper.SetDefault("admin_username", "admin")
	viper.SetDefault("admin_password", "admin123")
	viper.SetDefault("token_ttl_minutes", 0) // 0 = no expiry

	// Assistant defaults
	viper.SetDefault("openai_chat_model", "gpt-4o-mini")
	viper.SetDefault("openai_image_model", "dall-e-3")

	// PostgreSQL defaults
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "vipudev")
	viper.SetDefault("postgres_password", "vipudev_dev_password")
	viper.SetDefault("postgres_db_name", "vipudev")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Sandbox defaults
	viper.SetDefault("docker_binary", "docker")
	viper.SetDefault("run_timeout_seconds", 7)
	viper.SetDefault("project_timeout_seconds", 20)
	viper.SetDefault("sandbox_memory_limit", "512m")
	viper.SetDefault("sandbox_cpu_limit", "1")
}

// bindEnvVariables binds secrets and operational overrides explicitly.
// Only secrets get dedicated environment variables; everything else goes
// through the config file.
func bindEnvVariables() {
	bindings := map[string]string{
		"admin_username": "ADMIN_USERNAME",
		"admin_password": "ADMIN_PASSWORD",
		"openai_api_key": "OPENAI_API_KEY",
		"server_port":    "PORT",
		"rate_burst":     "VIPUDEV_RATE_BURST",
		"docker_binary":  "VIPUDEV_DOCKER_BINARY",
	}

	for key, envVar := range bindings {
		if err := viper.BindEnv(key, envVar); err != nil {
			slog.Warn("binding environment variable", "key", key, "env", envVar, "error", err)
		}
	}
}

// TokenExpiry returns the configured session token lifetime,
// or zero when tokens never expire.
func (c *Config) TokenExpiry() time.Duration {
	if c.TokenTTL <= 0 {
		return 0
	}
	return time.Duration(c.TokenTTL) * time.Minute
}

// RunTimeout returns the host-run wall clock limit.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// ProjectTimeout returns the container-run wall clock limit.
func (c *Config) ProjectTimeout() time.Duration {
	return time.Duration(c.ProjectTimeoutSeconds) * time.Second
}

// ServerAddr returns the host:port the HTTP server binds.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SlogLevel maps the configured level name onto a slog.Level.
// Unknown names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MarshalJSON masks sensitive fields so configs can be logged or dumped safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)

	if masked.AdminPassword != "" {
		masked.AdminPassword = "***"
	}
	if masked.OpenAIAPIKey != "" {
		masked.OpenAIAPIKey = "***"
	}
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}

	out, err := json.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("marshaling masked config: %w", err)
	}
	return out, nil
}
