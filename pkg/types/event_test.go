package types

import (
	"errors"
	"testing"
	"time"
)

func TestAgentEventType(t *testing.T) {
	tests := []struct {
		eventType AgentEventType
		name      string
		expected  string
	}{
		{name: "message", eventType: EventTypeMessage, expected: "message"},
		{name: "tool_call", eventType: EventTypeToolCall, expected: "tool_call"},
		{name: "tool_result", eventType: EventTypeToolResult, expected: "tool_result"},
		{name: "tool_result_error", eventType: EventTypeToolResultError, expected: "tool_result_error"},
		{name: "no_tool_call", eventType: EventTypeNoToolCall, expected: "no_tool_call"},
		{name: "update_busy", eventType: EventTypeUpdateBusy, expected: "update_busy"},
		{name: "turn_end", eventType: EventTypeTurnEnd, expected: "turn_end"},
		{name: "reset", eventType: EventTypeReset, expected: "reset"},
		{name: "error", eventType: EventTypeError, expected: "error"},
		{name: "token_usage", eventType: EventTypeTokenUsage, expected: "token_usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("AgentEventType = %v, want %v", tt.eventType, tt.expected)
			}
		})
	}
}

func TestNewMessageEvent(t *testing.T) {
	msg := NewAssistantMessage("I clicked 'Sign in'.")
	event := NewMessageEvent(msg)

	if event.Type != EventTypeMessage {
		t.Errorf("Type = %v, want %v", event.Type, EventTypeMessage)
	}
	if event.Content != msg.Content {
		t.Errorf("Content = %q, want %q", event.Content, msg.Content)
	}
	if event.Message != msg {
		t.Error("Message should reference the reply")
	}

	empty := NewMessageEvent(nil)
	if empty.Content != "" {
		t.Errorf("Content = %q, want empty", empty.Content)
	}
}

func TestNewToolCallEvent(t *testing.T) {
	input := map[string]interface{}{"url": "https://example.com"}
	event := NewToolCallEvent("visit_url", input)

	if event.Type != EventTypeToolCall {
		t.Errorf("Type = %v, want %v", event.Type, EventTypeToolCall)
	}
	if event.ToolName != "visit_url" {
		t.Errorf("ToolName = %v, want visit_url", event.ToolName)
	}
	if event.ToolInput["url"] != "https://example.com" {
		t.Errorf("ToolInput[url] = %v", event.ToolInput["url"])
	}
}

func TestErrorEvents(t *testing.T) {
	err := errors.New("boom")

	e1 := NewErrorEvent(err)
	if !e1.IsError() || e1.Error != err {
		t.Errorf("NewErrorEvent() = %+v", e1)
	}

	e2 := NewToolResultErrorEvent("click", err)
	if !e2.IsError() || e2.ToolName != "click" {
		t.Errorf("NewToolResultErrorEvent() = %+v", e2)
	}

	e3 := NewTurnEndEvent()
	if e3.IsError() {
		t.Error("turn end should not be an error")
	}
}

func TestNewUpdateBusyEvent(t *testing.T) {
	if !NewUpdateBusyEvent(true).IsBusy {
		t.Error("expected busy")
	}
	if NewUpdateBusyEvent(false).IsBusy {
		t.Error("expected not busy")
	}
}

func TestNewAPICallEvents(t *testing.T) {
	start := NewAPICallStartEvent("gpt-4o")
	end := NewAPICallEndEvent("gpt-4o", 1500*time.Millisecond)

	if start.Model != "gpt-4o" || end.Model != "gpt-4o" {
		t.Errorf("model missing: %q %q", start.Model, end.Model)
	}
	if end.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1.5s", end.Elapsed)
	}
}

func TestNewTokenUsageEvent(t *testing.T) {
	usage := &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	event := NewTokenUsageEvent(usage)

	if event.TokenUsage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", event.TokenUsage.TotalTokens)
	}
}

func TestAgentChannelsClose(t *testing.T) {
	ch := NewAgentChannels(2)
	ch.Close()
	ch.Close()

	select {
	case <-ch.Done:
	default:
		t.Error("Done should be closed")
	}
	if _, ok := <-ch.Event; ok {
		t.Error("Event should be closed")
	}
}
