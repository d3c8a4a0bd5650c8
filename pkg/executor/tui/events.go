package tui

import (
	"fmt"

	"github.com/entrhq/surfer/pkg/types"
)

// handleAgentEvent processes events from the agent event stream.
func (m *model) handleAgentEvent(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeToolCall:
		m.handleToolCall(event)

	case types.EventTypeToolResult:
		m.handleToolResult(event)

	case types.EventTypeToolResultError:
		m.content.WriteString(errorStyle.Render(fmt.Sprintf("  ❌ %s failed: %v", event.ToolName, event.Error)))
		m.content.WriteString("\n")

	case types.EventTypeMessage:
		m.handleMessage(event.Message)

	case types.EventTypeReset:
		m.content.Reset()
		m.lastReply = ""
		m.status = "Conversation reset"

	case types.EventTypeError:
		debugLog.Debugf("Processing error event: %v", event.Error)
		m.content.WriteString(errorStyle.Render(fmt.Sprintf("  ❌ Error: %v", event.Error)))
		m.content.WriteString("\n\n")

	case types.EventTypeAPICallStart:
		m.currentLoadingMessage = getRandomLoadingMessage()

	case types.EventTypeTokenUsage:
		if event.TokenUsage != nil {
			m.totalPromptTokens += event.TokenUsage.PromptTokens
			m.totalCompletionTokens += event.TokenUsage.CompletionTokens
			m.totalTokens += event.TokenUsage.TotalTokens
		}

	case types.EventTypeUpdateBusy:
		m.agentBusy = event.IsBusy

	case types.EventTypeTurnEnd:
		m.agentBusy = false
		if m.status == "Canceling..." {
			m.status = ""
		}
	}

	m.recalculateLayout()
}

func (m *model) handleToolCall(event *types.AgentEvent) {
	line := "🌐 " + event.ToolName
	if args := formatArguments(event.ToolInput); args != "" {
		line += " " + args
	}
	m.content.WriteString(formatEntry("  ", line, toolStyle, m.width, false))
	m.content.WriteString("\n")
}

func (m *model) handleToolResult(event *types.AgentEvent) {
	result, ok := event.ToolOutput.(string)
	if !ok || result == "" {
		return
	}
	m.content.WriteString(formatEntry("    ↳ ", result, toolResultStyle, m.width, false))
	m.content.WriteString("\n")
}

func (m *model) handleMessage(msg *types.Message) {
	if msg == nil {
		return
	}
	m.lastReply = msg.Content
	m.content.WriteString("\n")
	m.content.WriteString(formatEntry("Surfer: ", msg.Content, assistantStyle, m.width, true))
	m.content.WriteString("\n\n")
}
