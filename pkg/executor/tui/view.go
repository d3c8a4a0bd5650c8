package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI interface.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{
		m.buildHeader(),
		m.buildTips(),
		"",
		m.viewport.View(),
	}
	if line := m.buildLoadingIndicator(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.buildInputBox(), m.buildBottomBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *model) buildHeader() string {
	return headerStyle.Render("  🏄 Web Surfer")
}

func (m *model) buildTips() string {
	return tipsStyle.Render("  Enter to send • Alt+Enter for new line • Esc to cancel • Ctrl+Y to copy last reply • /reset to start over • Ctrl+C to exit")
}

// buildLoadingIndicator renders the spinner while busy, or the status line.
func (m *model) buildLoadingIndicator() string {
	style := lipgloss.NewStyle().
		Foreground(oceanBlue).
		Width(m.width-4).
		Padding(0, 2)
	switch {
	case m.agentBusy:
		return style.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.currentLoadingMessage))
	case m.status != "":
		return style.Render(m.status)
	}
	return ""
}

func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(m.width - 4).Render(m.textarea.View())
}

// buildBottomBar renders the bottom status bar with token usage
func (m *model) buildBottomBar() string {
	left := "surfer"
	right := m.buildTokenDisplay()

	padding := m.width - len(left) - len(right) - 2
	if padding < 2 {
		padding = 2
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *model) buildTokenDisplay() string {
	if m.totalTokens == 0 {
		return "no tokens used"
	}
	return fmt.Sprintf("↑%s ↓%s Σ%s",
		formatTokenCount(m.totalPromptTokens),
		formatTokenCount(m.totalCompletionTokens),
		formatTokenCount(m.totalTokens))
}
