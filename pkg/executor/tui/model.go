package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/surfer/pkg/types"
)

// model represents the state of the TUI application.
type model struct {
	// Bubble Tea components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	channels *types.AgentChannels

	// Transcript rendered into the viewport
	content *strings.Builder

	// Agent state
	agentBusy             bool
	currentLoadingMessage string
	lastReply             string

	// Status line shown above the input box, e.g. after copying.
	status string

	// Window dimensions
	width  int
	height int
	ready  bool

	// Token usage across all model calls
	totalPromptTokens     int
	totalCompletionTokens int
	totalTokens           int
}

// clipboardMsg reports the outcome of copying the last reply.
type clipboardMsg struct{ err error }

func newModel(channels *types.AgentChannels) *model {
	ta := textarea.New()
	ta.Placeholder = "Ask the surfer to find something..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 6
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(oceanBlue)

	return &model{
		viewport: viewport.New(80, 20),
		textarea: ta,
		spinner:  sp,
		channels: channels,
		content:  &strings.Builder{},
	}
}
