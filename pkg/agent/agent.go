// Package agent provides the conversational agent that drives a web surfer.
//
// An agent owns the conversation history and talks to executors through
// channels: executors send inputs and receive events.
//
//	ag := agent.NewDefaultAgent(s)
//	_ = ag.Start(ctx)
//	ag.GetChannels().Input <- types.NewUserInput("find the weather in Paris")
package agent

import (
	"context"

	"github.com/entrhq/surfer/pkg/surfer"
	"github.com/entrhq/surfer/pkg/types"
)

// Agent is an async event-driven component that turns user requests into
// surfer replies and reports progress over channels.
type Agent interface {
	// Start begins the agent's event loop in a goroutine.
	//
	// The agent runs until the context is canceled or Shutdown is called.
	Start(ctx context.Context) error

	// Shutdown stops the agent, canceling any in-flight turn.
	// Returns when the agent has fully stopped or the context is canceled.
	Shutdown(ctx context.Context) error

	// GetChannels returns the communication channels for this agent.
	GetChannels() *types.AgentChannels
}

// Surfer produces one reply per turn from the conversation so far.
type Surfer interface {
	GenerateReply(ctx context.Context, history []*types.Message) (*types.Message, error)
	Reset(ctx context.Context) error
}

// observable is implemented by surfers that report progress events mid-turn.
type observable interface {
	SetObserver(o surfer.Observer)
}

var _ observable = (*surfer.Surfer)(nil)
