// Package memory keeps the conversation history an agent replays to the surfer
// on every turn.
package memory

import (
	"sync"

	"github.com/entrhq/surfer/pkg/types"
)

// Memory stores conversation messages in order.
type Memory interface {
	// Add appends a message.
	Add(msg *types.Message)

	// GetAll returns a copy of the history, oldest first.
	GetAll() []*types.Message

	// Len returns the number of stored messages.
	Len() int

	// Clear removes every message.
	Clear()
}

// ConversationMemory is an in-process Memory safe for concurrent use.
type ConversationMemory struct {
	mu       sync.RWMutex
	messages []*types.Message
}

// NewConversationMemory creates an empty conversation memory.
func NewConversationMemory() *ConversationMemory {
	return &ConversationMemory{}
}

// Add appends a message. Nil messages are ignored.
func (m *ConversationMemory) Add(msg *types.Message) {
	if msg == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// GetAll returns a copy of the history, oldest first.
func (m *ConversationMemory) GetAll() []*types.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of stored messages.
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Clear removes every message.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
