package surfer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console prints browser actions as they happen. A nil Console prints nothing.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	style lipgloss.Style
}

// NewConsole returns a console writing to w. Colour is used only when w is a terminal.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:     w,
		style: r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// Action prints ">>>>>>>> BROWSER ACTION name(k='v', ...)".
func (c *Console) Action(name string, args []Argument) {
	if c == nil || c.w == nil {
		return
	}
	if name == "" {
		name = "[unknown]"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Key + "='" + a.Value + "'"
	}
	line := ">>>>>>>> BROWSER ACTION " + name + "(" + strings.Join(parts, ", ") + ")"

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n%s\n", c.style.Render(line))
}

// NewPage reports that a popup replaced the current page.
func (c *Console) NewPage(url string) {
	c.Action("new_tab", []Argument{{Key: "url", Value: url}})
}

// Println writes a plain line.
func (c *Console) Println(s string) {
	if c == nil || c.w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}
