package store

import (
	"context"
	"fmt"
)

const chatColumns = "id, role, content, code_context, created_at"

// CreateChatMessage appends a message to the conversation log.
func (s *Store) CreateChatMessage(ctx context.Context, params CreateChatMessageParams) (*ChatMessage, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO chat_messages (role, content, code_context)
		 VALUES ($1, $2, $3)
		 RETURNING `+chatColumns,
		params.Role, params.Content, nullIfEmpty(params.CodeContext))

	var (
		m           ChatMessage
		codeContext *string
	)
	if err := row.Scan(&m.ID, &m.Role, &m.Content, &codeContext, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating chat message: %w", err)
	}
	if codeContext != nil {
		m.CodeContext = *codeContext
	}

	return &m, nil
}

// ChatMessages returns up to limit messages in creation order, oldest first.
// A non-positive limit falls back to DefaultChatLimit.
func (s *Store) ChatMessages(ctx context.Context, limit int) ([]*ChatMessage, error) {
	limit = normalizeLimit(limit, DefaultChatLimit)

	rows, err := s.db.Query(ctx,
		`SELECT `+chatColumns+` FROM chat_messages ORDER BY created_at ASC, id ASC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*ChatMessage, 0, limit)
	for rows.Next() {
		var (
			m           ChatMessage
			codeContext *string
		)
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &codeContext, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		if codeContext != nil {
			m.CodeContext = *codeContext
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}

	return messages, nil
}

// ClearChatHistory deletes all chat messages. Irreversible.
func (s *Store) ClearChatHistory(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}

	s.logger.Debug("cleared chat history")
	return nil
}
