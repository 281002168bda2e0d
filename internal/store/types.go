// Package store provides PostgreSQL persistence for dashboard records:
// projects, chat messages, execution logs, and the singleton user config.
//
// Store is safe for concurrent use by multiple goroutines.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Default row limits for history reads.
const (
	DefaultChatLimit      = 50
	DefaultExecutionLimit = 20
	MaxListLimit          = 500
)

// ProjectFile is one file inside a project. The files array is stored as a
// JSONB column and replaced wholesale on update; path entries are not
// required to be unique.
type ProjectFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// Project is a coding project owned by the operator.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Files       []ProjectFile `json:"files"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateProjectParams holds the fields for inserting a project.
type CreateProjectParams struct {
	Name        string
	Description string
	Files       []ProjectFile
}

// UpdateProjectParams holds a partial project update. Nil fields are left
// unchanged; a non-nil Files pointer replaces the whole array.
type UpdateProjectParams struct {
	Name        *string
	Description *string
	Files       *[]ProjectFile
}

// ChatMessage is one entry in the append-only conversation log.
type ChatMessage struct {
	ID          int64     `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	CodeContext string    `json:"codeContext,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateChatMessageParams holds the fields for appending a chat message.
type CreateChatMessageParams struct {
	Role        string
	Content     string
	CodeContext string
}

// CodeExecution is one entry in the append-only execution log.
type CodeExecution struct {
	ID        int64     `json:"id"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Stdout    string    `json:"stdout,omitempty"`
	Stderr    string    `json:"stderr,omitempty"`
	ExitCode  int       `json:"exitCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateCodeExecutionParams holds the fields for appending an execution record.
type CreateCodeExecutionParams struct {
	Language string
	Code     string
	Stdout   string
	Stderr   string
	ExitCode int
}

// UserConfig is the singleton operator configuration record.
type UserConfig struct {
	BackendURL string    `json:"backendUrl,omitempty"`
	APIKey     string    `json:"apiKey,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpsertConfigParams holds the fields for creating or replacing the config.
type UpsertConfigParams struct {
	BackendURL string
	APIKey     string
}

// normalizeLimit clamps a caller-supplied row limit.
func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
