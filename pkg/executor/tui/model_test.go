package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surfer/pkg/types"
)

func readyModel(t *testing.T) *model {
	t.Helper()
	m := newModel(types.NewAgentChannels(10))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.True(t, m.ready)
	return m
}

func typeText(m *model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestEnterSendsInput(t *testing.T) {
	m := readyModel(t)
	typeText(m, "find go docs")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case in := <-m.channels.Input:
		assert.True(t, in.IsUserInput())
		assert.Equal(t, "find go docs", in.Content)
	default:
		t.Fatal("no input sent")
	}
	assert.True(t, m.agentBusy)
	assert.Empty(t, m.textarea.Value())
	assert.Contains(t, m.content.String(), "find go docs")
}

func TestEnterIgnoredWhileBusy(t *testing.T) {
	m := readyModel(t)
	m.agentBusy = true
	typeText(m, "again")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.channels.Input)
}

func TestEscCancelsBusyTurn(t *testing.T) {
	m := readyModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.channels.Input)

	m.agentBusy = true
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	in := <-m.channels.Input
	assert.True(t, in.IsCancel())
}

func TestAgentEventsRenderTranscript(t *testing.T) {
	m := readyModel(t)

	m.Update(types.NewUpdateBusyEvent(true))
	m.Update(types.NewToolCallEvent("click", map[string]interface{}{"reasoning": "open it", "target_id": "12"}))
	m.Update(types.NewToolResultEvent("click", "I clicked 'Next'."))
	m.Update(types.NewMessageEvent(types.NewAssistantMessage("I clicked 'Next'. Here is the page.")))
	m.Update(types.NewTokenUsageEvent(&types.TokenUsage{PromptTokens: 1500, CompletionTokens: 20, TotalTokens: 1520}))
	m.Update(types.NewUpdateBusyEvent(false))
	m.Update(types.NewTurnEndEvent())

	out := m.content.String()
	assert.Contains(t, out, "click target_id=12")
	assert.NotContains(t, out, "open it")
	assert.Contains(t, out, "I clicked 'Next'. Here is the page.")
	assert.Equal(t, "I clicked 'Next'. Here is the page.", m.lastReply)
	assert.False(t, m.agentBusy)
	assert.Equal(t, 1520, m.totalTokens)
	assert.Contains(t, m.View(), "Σ1.5K")
}

func TestErrorAndResetEvents(t *testing.T) {
	m := readyModel(t)
	m.Update(types.NewErrorEvent(errors.New("model request failed")))
	assert.Contains(t, m.content.String(), "Error: model request failed")

	m.lastReply = "old"
	m.Update(types.NewResetEvent())
	assert.Empty(t, m.content.String())
	assert.Empty(t, m.lastReply)
	assert.Equal(t, "Conversation reset", m.status)
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m := readyModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to copy yet", m.status)

	m.Update(types.NewMessageEvent(types.NewAssistantMessage("the answer")))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, "the answer", copied)

	m.Update(msg)
	assert.Equal(t, "📋 Copied last reply to clipboard", m.status)

	m.Update(clipboardMsg{err: errors.New("no clipboard")})
	assert.Equal(t, "❌ Copy failed: no clipboard", m.status)
}

func TestExitQuits(t *testing.T) {
	m := readyModel(t)
	typeText(m, "exit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "one two\nthree", wordWrap("one two three", 8))
	assert.Equal(t, "abcd\nefgh\nij", wordWrap("abcdefghij", 4))
	assert.Equal(t, "a\nb", wordWrap("a\n\n  b  ", 10))
}

func TestFormatTokenCount(t *testing.T) {
	assert.Equal(t, "999", formatTokenCount(999))
	assert.Equal(t, "1.5K", formatTokenCount(1500))
	assert.Equal(t, "2.0M", formatTokenCount(2000000))
	assert.NotEmpty(t, getRandomLoadingMessage())
}
