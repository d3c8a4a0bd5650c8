package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/surfer/pkg/types"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Init starts the cursor blink and the spinner.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles all state updates for the TUI model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd      tea.Cmd
		vpCmd      tea.Cmd
		spinnerCmd tea.Cmd
	)

	m.spinner, spinnerCmd = m.spinner.Update(msg)

	if _, isKey := msg.(tea.KeyMsg); isKey {
		oldHeight := m.textarea.Height()
		m.textarea, tiCmd = m.textarea.Update(msg)
		if oldHeight != m.textarea.Height() && m.ready {
			m.recalculateLayout()
		}
		m.updateTextAreaHeight()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		debugLog.Debugf("Window resized: width=%d, height=%d", msg.Width, msg.Height)
		return m.handleWindowResize(msg)

	case *types.AgentEvent:
		debugLog.Debugf("Received agent event: %s", msg.Type)
		m.handleAgentEvent(msg)
		return m, tea.Batch(tiCmd, spinnerCmd)

	case clipboardMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("❌ Copy failed: %v", msg.err)
		} else {
			m.status = "📋 Copied last reply to clipboard"
		}
		return m, nil

	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, tea.Batch(vpCmd, spinnerCmd)

	case tea.KeyMsg:
		return m.handleKeyPress(msg, tiCmd, spinnerCmd)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
}

// calculateViewportHeight computes the viewport height from the other sections.
func (m *model) calculateViewportHeight() int {
	headerHeight := 3                      // title + tips + blank line
	inputHeight := m.textarea.Height() + 2 // textarea height + border
	statusBarHeight := 1
	loadingHeight := 0
	if m.agentBusy || m.status != "" {
		loadingHeight = 1
	}

	viewportHeight := m.height - headerHeight - inputHeight - statusBarHeight - loadingHeight
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	return viewportHeight
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = m.width - 4
	m.viewport.Height = m.calculateViewportHeight()
	m.textarea.SetWidth(m.width - 8)
	m.ready = true
	m.recalculateLayout()
	return m, nil
}

func (m *model) handleKeyPress(msg tea.KeyMsg, tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		// Escape aborts the running turn
		if m.agentBusy {
			m.channels.Input <- types.NewCancelInput()
			m.status = "Canceling..."
			m.recalculateLayout()
		}
		return m, nil

	case tea.KeyCtrlY:
		return m, m.copyLastReply()

	case tea.KeyPgUp, tea.KeyPgDown:
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.KeyEnter:
		if msg.Alt {
			m.textarea.InsertString("\n")
			m.updateTextAreaHeight()
			return m, nil
		}
		return m.handleEnter(tiCmd, spinnerCmd)
	}

	return m, tea.Batch(tiCmd, spinnerCmd)
}

// copyLastReply copies the most recent assistant reply off the UI goroutine.
func (m *model) copyLastReply() tea.Cmd {
	if m.lastReply == "" {
		m.status = "Nothing to copy yet"
		return nil
	}
	text := m.lastReply
	return func() tea.Msg {
		return clipboardMsg{err: writeClipboard(text)}
	}
}

// handleEnter sends the input to the agent. Input is ignored while a turn runs.
func (m *model) handleEnter(tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" || m.agentBusy {
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	if input == "exit" || input == "quit" {
		return m, tea.Quit
	}

	formatted := formatEntry("You: ", input, userStyle, m.width, true)
	m.content.WriteString(formatted + "\n\n")

	m.textarea.Reset()
	m.status = ""
	m.agentBusy = true
	m.currentLoadingMessage = getRandomLoadingMessage()
	m.recalculateLayout()

	debugLog.Debugf("Sending user input to agent")
	m.channels.Input <- types.NewUserInput(input)

	return m, tea.Batch(tiCmd, spinnerCmd)
}

// recalculateLayout updates viewport content and scrolls to bottom
func (m *model) recalculateLayout() {
	m.viewport.Height = m.calculateViewportHeight()
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}
