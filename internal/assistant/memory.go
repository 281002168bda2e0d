package assistant

import (
	"context"
	"strings"

	"github.com/vipudev/vipudev/internal/store"
)

// recallMemory renders the most recent stored chat messages as plain
// "role: content" lines. The read is best-effort: any storage error falls
// back to stateless operation rather than failing the request.
func (c *Client) recallMemory(ctx context.Context) string {
	if c.memory == nil {
		return "(none yet)"
	}

	history, err := c.memory.ChatMessages(ctx, memoryLimit)
	if err != nil {
		c.logger.Debug("memory read failed, running stateless", "error", err)
		return "(none yet)"
	}
	if len(history) == 0 {
		return "(none yet)"
	}

	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		role := m.Role
		if role == "" {
			role = store.RoleUser
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}

	return b.String()
}
