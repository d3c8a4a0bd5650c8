// Package cli provides a command-line executor for surfer agents.
//
// Example usage:
//
//	ag := agent.NewDefaultAgent(s)
//	executor := cli.NewExecutor(ag, cli.WithShowActions(true))
//	if err := executor.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/entrhq/surfer/pkg/agent"
	"github.com/entrhq/surfer/pkg/types"
)

// Executor is a CLI-based executor that enables turn-by-turn conversation
// with an agent through terminal input/output.
type Executor struct {
	agent  agent.Agent
	reader *bufio.Reader
	writer io.Writer

	// Display options
	showActions bool
	highlight   *highlighter

	// Last error event of the current turn, read after the event stream closes.
	lastErr error
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithShowActions prints each tool call with its arguments and result.
func WithShowActions(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showActions = show
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithReader sets a custom input reader (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// NewExecutor creates a new CLI executor for the given agent.
func NewExecutor(agent agent.Agent, opts ...ExecutorOption) *Executor {
	e := &Executor{
		agent:  agent,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}
	e.highlight = newHighlighter(e.writer)

	return e
}

// Run starts the executor and begins the conversation loop.
// Returns when the user exits or an error occurs.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	channels := e.agent.GetChannels()

	eventsDone := make(chan struct{})
	turnEnd := make(chan struct{}, 1)
	go e.handleEvents(channels.Event, eventsDone, turnEnd)

	fmt.Fprintln(e.writer, "Web Surfer")
	fmt.Fprintln(e.writer, "Type a request and press Enter. Type '/reset' to start over, 'exit' or 'quit' to end.")
	fmt.Fprintln(e.writer)

	for {
		select {
		case <-ctx.Done():
			e.shutdown(ctx)
			<-eventsDone
			return ctx.Err()
		default:
		}

		fmt.Fprint(e.writer, "> ")
		input, err := e.reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(input) == "") {
			e.shutdown(ctx)
			<-eventsDone
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)

		if input == "exit" || input == "quit" {
			e.shutdown(ctx)
			<-eventsDone
			return nil
		}

		if input == "" {
			continue
		}

		channels.Input <- types.NewUserInput(input)

		select {
		case <-turnEnd:
		case <-eventsDone:
			return nil
		}
	}
}

// Ask runs a single request to completion and shuts the agent down.
// It returns the error reported by the turn, if any.
func (e *Executor) Ask(ctx context.Context, request string) error {
	if err := e.agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	channels := e.agent.GetChannels()

	eventsDone := make(chan struct{})
	turnEnd := make(chan struct{}, 1)
	go e.handleEvents(channels.Event, eventsDone, turnEnd)

	channels.Input <- types.NewUserInput(request)

	select {
	case <-turnEnd:
	case <-eventsDone:
	case <-ctx.Done():
	}

	e.shutdown(ctx)
	<-eventsDone

	if err := ctx.Err(); err != nil {
		return err
	}
	return e.lastErr
}

// handleEvents processes events from the agent and renders them to the terminal.
func (e *Executor) handleEvents(events <-chan *types.AgentEvent, done chan struct{}, turnEnd chan struct{}) {
	defer close(done)

	for event := range events {
		e.handleEvent(event, turnEnd)
	}
}

// handleEvent processes a single event based on its type
func (e *Executor) handleEvent(event *types.AgentEvent, turnEnd chan struct{}) {
	switch event.Type {
	case types.EventTypeToolCall:
		e.handleToolCall(event.ToolName, event.ToolInput)
	case types.EventTypeToolResult:
		e.handleToolResult(event.ToolOutput)
	case types.EventTypeToolResultError:
		e.handleToolResultError(event.ToolName, event.Error)
	case types.EventTypeMessage:
		e.handleMessage(event.Message)
	case types.EventTypeReset:
		fmt.Fprintln(e.writer, "\nConversation reset.")
	case types.EventTypeError:
		e.handleError(event.Error)
	case types.EventTypeTokenUsage:
		if e.showActions && event.TokenUsage != nil {
			fmt.Fprintf(e.writer, "   tokens: %d prompt, %d completion\n", event.TokenUsage.PromptTokens, event.TokenUsage.CompletionTokens)
		}
	case types.EventTypeUpdateBusy, types.EventTypeNoToolCall, types.EventTypeAPICallStart, types.EventTypeAPICallEnd:
		// Progress events are not displayed
	case types.EventTypeTurnEnd:
		e.handleTurnEnd(turnEnd)
	}
}

func (e *Executor) handleToolCall(toolName string, input map[string]interface{}) {
	if !e.showActions {
		return
	}
	fmt.Fprintf(e.writer, "\n🔧 Tool: %s\n%s\n", toolName, e.highlight.arguments(input))
}

func (e *Executor) handleToolResult(toolOutput interface{}) {
	if !e.showActions {
		return
	}
	if result, ok := toolOutput.(string); ok {
		fmt.Fprintf(e.writer, "✅ Result: %s\n", result)
	} else {
		fmt.Fprintf(e.writer, "✅ Result: %v\n", toolOutput)
	}
}

func (e *Executor) handleToolResultError(toolName string, err error) {
	fmt.Fprintf(e.writer, "❌ Tool Error (%s): %v\n", toolName, err)
}

func (e *Executor) handleMessage(msg *types.Message) {
	if msg == nil {
		return
	}
	fmt.Fprintf(e.writer, "\nAssistant:\n%s\n", msg.Content)
}

func (e *Executor) handleError(err error) {
	e.lastErr = err
	fmt.Fprintf(e.writer, "\n❌ Error: %v\n", err)
}

func (e *Executor) handleTurnEnd(turnEnd chan struct{}) {
	select {
	case turnEnd <- struct{}{}:
	default:
	}
}

// shutdown gracefully shuts down the agent.
func (e *Executor) shutdown(ctx context.Context) {
	fmt.Fprintln(e.writer, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := e.agent.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(e.writer, "Warning: shutdown error: %v\n", err)
	}
}
