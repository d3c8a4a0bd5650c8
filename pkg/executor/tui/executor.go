// Package tui provides a terminal user interface executor for surfer agents.
//
// The TUI codebase is split into multiple files:
// - executor.go: Main executor implementation and program lifecycle
// - model.go: Core model structure and state
// - update.go: Bubble Tea Update function and key handling
// - view.go: Bubble Tea View function and rendering
// - events.go: Agent event processing
// - helpers.go: Utility functions
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/surfer/pkg/agent"
	"github.com/entrhq/surfer/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("tui")
	if err != nil {
		debugLog.Warnf("Failed to initialize tui logger, using stderr fallback: %v", err)
	}
}

// Executor is a TUI-based executor for chatting with the surfer.
type Executor struct {
	agent   agent.Agent
	program *tea.Program
}

// NewExecutor creates a new TUI executor for the given agent.
func NewExecutor(agent agent.Agent) *Executor {
	return &Executor{agent: agent}
}

// Run starts the TUI executor and blocks until the user exits.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	debugLog.Infof("Agent started, launching TUI")

	m := newModel(e.agent.GetChannels())

	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for event := range m.channels.Event {
			e.program.Send(event)
		}
	}()

	_, runErr := e.program.Run()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.agent.Shutdown(shutdownCtx); err != nil {
		debugLog.Warnf("Agent shutdown: %v", err)
	}
	<-forwardDone

	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI program: %w", runErr)
	}
	return nil
}
