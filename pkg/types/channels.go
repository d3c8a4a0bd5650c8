package types

import "sync"

// AgentChannels groups the channels an executor uses to talk to an agent.
type AgentChannels struct {
	// Input receives user inputs (text, cancel, reset).
	Input chan *Input

	// Event carries events emitted by the agent.
	Event chan *AgentEvent

	// Shutdown is closed to request the agent to stop.
	Shutdown chan struct{}

	// Done is closed by the agent once its loop has exited.
	Done chan struct{}

	closeOnce sync.Once
}

// NewAgentChannels creates a channel set with the given buffer size for input and events.
func NewAgentChannels(bufferSize int) *AgentChannels {
	return &AgentChannels{
		Input:    make(chan *Input, bufferSize),
		Event:    make(chan *AgentEvent, bufferSize),
		Shutdown: make(chan struct{}),
		Done:     make(chan struct{}),
	}
}

// Close closes the event stream and marks the agent as done. Safe to call multiple times.
func (c *AgentChannels) Close() {
	c.closeOnce.Do(func() {
		close(c.Event)
		close(c.Done)
	})
}
