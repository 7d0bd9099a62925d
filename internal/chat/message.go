// Package chat holds the conversation loop shared by the web and terminal
// front ends: the transcript, source citations and the submit state machine.
package chat

import (
	"sync"

	"recyclebot/internal/domain"
)

// Message is one transcript entry. Assistant content may contain citation
// markup; user content is the raw submitted text.
type Message struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// History is the append-only transcript of one session.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// appendTurn adds a user message and its reply under one lock so readers never
// see a question without an answer.
func (h *History) appendTurn(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		Message{Role: domain.RoleUser, Content: user},
		Message{Role: domain.RoleAssistant, Content: assistant},
	)
}

// Snapshot returns a copy of the transcript in display order.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
