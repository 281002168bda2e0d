package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/vipudev/vipudev/internal/store"
)

func TestChatHistory_DefaultLimit(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	var gotLimit int
	f.chat.listFn = func(_ context.Context, limit int) ([]*store.ChatMessage, error) {
		gotLimit = limit
		return nil, nil
	}

	if rec := do(t, srv, http.MethodGet, "/api/chat/history", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	if gotLimit != store.DefaultChatLimit {
		t.Errorf("limit = %d, want %d", gotLimit, store.DefaultChatLimit)
	}

	do(t, srv, http.MethodGet, "/api/chat/history?limit=5", token, nil)
	if gotLimit != 5 {
		t.Errorf("limit = %d, want 5", gotLimit)
	}

	do(t, srv, http.MethodGet, "/api/chat/history?limit=garbage", token, nil)
	if gotLimit != store.DefaultChatLimit {
		t.Errorf("limit with garbage param = %d, want default", gotLimit)
	}
}

func TestCreateChatMessage(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	f.chat.createFn = func(_ context.Context, p store.CreateChatMessageParams) (*store.ChatMessage, error) {
		return &store.ChatMessage{
			ID:        1,
			Role:      p.Role,
			Content:   p.Content,
			CreatedAt: time.Now(),
		}, nil
	}

	rec := do(t, srv, http.MethodPost, "/api/chat", token,
		map[string]string{"role": "user", "content": "hello"})
	if rec.Code != http.StatusCreated {
		t.Errorf("create status = %d, want 201", rec.Code)
	}
}

func TestCreateChatMessage_InvalidRole(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	called := false
	f.chat.createFn = func(context.Context, store.CreateChatMessageParams) (*store.ChatMessage, error) {
		called = true
		return nil, nil
	}

	for _, role := range []string{"", "bot", "USER"} {
		rec := do(t, srv, http.MethodPost, "/api/chat", token,
			map[string]string{"role": role, "content": "hello"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("create with role %q = %d, want 400", role, rec.Code)
		}
	}
	if called {
		t.Error("invalid role reached the store")
	}
}

func TestClearChatHistory(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	cleared := false
	f.chat.clearFn = func(context.Context) error {
		cleared = true
		return nil
	}

	rec := do(t, srv, http.MethodDelete, "/api/chat/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("clear status = %d, want 200", rec.Code)
	}
	if !cleared {
		t.Error("clear never reached the store")
	}
}

func TestExecutions(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	var gotLimit int
	f.executions.listFn = func(_ context.Context, limit int) ([]*store.CodeExecution, error) {
		gotLimit = limit
		return nil, nil
	}
	if rec := do(t, srv, http.MethodGet, "/api/executions", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if gotLimit != store.DefaultExecutionLimit {
		t.Errorf("limit = %d, want %d", gotLimit, store.DefaultExecutionLimit)
	}

	f.executions.createFn = func(_ context.Context, p store.CreateCodeExecutionParams) (*store.CodeExecution, error) {
		return &store.CodeExecution{ID: 1, Language: p.Language, Code: p.Code}, nil
	}
	rec := do(t, srv, http.MethodPost, "/api/executions", token,
		map[string]any{"language": "python", "code": "print(1)", "exitCode": 0})
	if rec.Code != http.StatusCreated {
		t.Errorf("create status = %d, want 201", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/executions", token, map[string]any{"language": "python"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create without code = %d, want 400", rec.Code)
	}
}

func TestConfig(t *testing.T) {
	srv, f := newTestServer(t)
	token := login(t, srv)

	f.config.getFn = func(context.Context) (*store.UserConfig, error) {
		return nil, store.ErrNotFound
	}
	rec := do(t, srv, http.MethodGet, "/api/config", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get absent config = %d, want 200", rec.Code)
	}

	var gotParams store.UpsertConfigParams
	f.config.upsertFn = func(_ context.Context, p store.UpsertConfigParams) (*store.UserConfig, error) {
		gotParams = p
		return &store.UserConfig{BackendURL: p.BackendURL, APIKey: p.APIKey, UpdatedAt: time.Now()}, nil
	}
	rec = do(t, srv, http.MethodPost, "/api/config", token,
		map[string]string{"backendUrl": "https://api.example.com", "apiKey": "sk-test"})
	if rec.Code != http.StatusOK {
		t.Errorf("upsert status = %d, want 200", rec.Code)
	}
	if gotParams.BackendURL != "https://api.example.com" || gotParams.APIKey != "sk-test" {
		t.Errorf("upsert params = %+v", gotParams)
	}
}
