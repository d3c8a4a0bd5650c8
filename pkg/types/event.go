package types

import "time"

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeMessage         AgentEventType = "message"           // a complete assistant reply
	EventTypeToolCall        AgentEventType = "tool_call"         // the surfer is about to run a browser tool
	EventTypeToolResult      AgentEventType = "tool_result"       // narrated outcome of a browser tool
	EventTypeToolResultError AgentEventType = "tool_result_error" // a browser tool failed
	EventTypeNoToolCall      AgentEventType = "no_tool_call"      // the model answered without choosing a tool
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // a model request is in flight
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // a model request has completed
	EventTypeUpdateBusy      AgentEventType = "update_busy"       // the agent's busy status changed
	EventTypeTurnEnd         AgentEventType = "turn_end"          // the agent has finished the current turn
	EventTypeReset           AgentEventType = "reset"             // the conversation and browser were reset
	EventTypeError           AgentEventType = "error"             // processing failed
	EventTypeTokenUsage      AgentEventType = "token_usage"       // token usage of one turn
)

// AgentEvent represents an event emitted by the agent during execution.
// Only the fields relevant to Type are populated.
type AgentEvent struct {
	// ToolInput is the decoded arguments of the tool (for tool call events).
	ToolInput map[string]interface{}

	// ToolOutput is the result from the tool (for tool result events).
	ToolOutput interface{}

	Error error

	// Message is the full reply (for message events).
	Message *Message

	// Content mirrors Message.Content.
	Content string

	ToolName string

	// Model names the model of an API call event.
	Model string

	// Elapsed is the duration of the request (for API call end events).
	Elapsed time.Duration

	Type AgentEventType

	// IsBusy indicates if the agent is busy (for busy status events).
	IsBusy bool

	TokenUsage *TokenUsage
}

// TokenUsage contains token usage statistics from an LLM API call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewMessageEvent creates a message event for a complete reply.
func NewMessageEvent(msg *Message) *AgentEvent {
	content := ""
	if msg != nil {
		content = msg.Content
	}
	return &AgentEvent{Type: EventTypeMessage, Message: msg, Content: content}
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(toolName string, toolInput map[string]interface{}) *AgentEvent {
	return &AgentEvent{Type: EventTypeToolCall, ToolName: toolName, ToolInput: toolInput}
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName string, output interface{}) *AgentEvent {
	return &AgentEvent{Type: EventTypeToolResult, ToolName: toolName, ToolOutput: output}
}

// NewToolResultErrorEvent creates a tool result error event.
func NewToolResultErrorEvent(toolName string, err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeToolResultError, ToolName: toolName, Error: err}
}

// NewNoToolCallEvent creates a no tool call event.
func NewNoToolCallEvent() *AgentEvent {
	return &AgentEvent{Type: EventTypeNoToolCall}
}

// NewAPICallStartEvent creates an API call start event.
func NewAPICallStartEvent(model string) *AgentEvent {
	return &AgentEvent{Type: EventTypeAPICallStart, Model: model}
}

// NewAPICallEndEvent creates an API call end event.
func NewAPICallEndEvent(model string, elapsed time.Duration) *AgentEvent {
	return &AgentEvent{Type: EventTypeAPICallEnd, Model: model, Elapsed: elapsed}
}

// NewUpdateBusyEvent creates a busy status event.
func NewUpdateBusyEvent(isBusy bool) *AgentEvent {
	return &AgentEvent{Type: EventTypeUpdateBusy, IsBusy: isBusy}
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent() *AgentEvent {
	return &AgentEvent{Type: EventTypeTurnEnd}
}

// NewResetEvent creates a reset event.
func NewResetEvent() *AgentEvent {
	return &AgentEvent{Type: EventTypeReset}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeError, Error: err}
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(usage *TokenUsage) *AgentEvent {
	return &AgentEvent{Type: EventTypeTokenUsage, TokenUsage: usage}
}

// IsError returns true if this is an error event.
func (e *AgentEvent) IsError() bool {
	return e.Type == EventTypeError || e.Type == EventTypeToolResultError
}
