package tui

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// getRandomLoadingMessage returns a loading message to display while the surfer works.
func getRandomLoadingMessage() string {
	messages := []string{
		"Browsing...",
		"Reading the page...",
		"Looking around...",
		"Following links...",
		"Scanning the screenshot...",
		"Squinting at the pixels...",
		"Hunting for the right button...",
		"Clicking with intent...",
		"Waiting for the page to settle...",
		"Scrolling with purpose...",
	}
	return messages[rand.Intn(len(messages))] //nolint:gosec
}

// formatTokenCount formats a token count with K/M suffixes for readability
func formatTokenCount(count int) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// formatArguments renders tool input as "k=v" pairs in key order, dropping
// the model's reasoning.
func formatArguments(input map[string]interface{}) string {
	keys := make([]string, 0, len(input))
	for k := range input {
		if k == "reasoning" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, input[k])
	}
	return strings.Join(parts, ", ")
}

// formatEntry formats a content entry with an icon and optional styling
func formatEntry(icon string, text string, style lipgloss.Style, width int, iconOnly bool) string {
	wrapWidth := width - 4
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	if iconOnly {
		// Style only the icon, keep text white
		styledIcon := style.Render(icon)
		wrapped := wordWrap(icon+text, wrapWidth)
		return strings.Replace(wrapped, icon, styledIcon, 1)
	}

	return style.Render(wordWrap(icon+text, wrapWidth))
}

// wordWrap wraps text to fit within the specified width while preserving paragraph breaks
func wordWrap(text string, width int) string {
	if width <= 0 {
		width = 80
	}

	var result strings.Builder
	firstPara := true
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		if !firstPara {
			result.WriteString("\n")
		}
		firstPara = false

		currentLine := ""
		for _, word := range words {
			// Words longer than a line are broken into chunks
			for len(word) > width {
				if currentLine != "" {
					result.WriteString(currentLine + "\n")
					currentLine = ""
				}
				result.WriteString(word[:width] + "\n")
				word = word[width:]
			}
			if word == "" {
				continue
			}

			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+1+len(word) > width:
				result.WriteString(currentLine + "\n")
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		result.WriteString(currentLine)
	}

	return strings.TrimRight(result.String(), "\n")
}

// updateTextAreaHeight grows the input box with its content, up to MaxHeight.
func (m *model) updateTextAreaHeight() {
	value := m.textarea.Value()
	width := m.textarea.Width() - 2
	if width <= 0 {
		width = 78
	}

	visualLines := 0
	for _, line := range strings.Split(value, "\n") {
		wrapped := (len(line) + width - 1) / width
		if wrapped == 0 {
			wrapped = 1
		}
		visualLines += wrapped
	}

	if visualLines < 1 {
		visualLines = 1
	}
	if m.textarea.MaxHeight > 0 && visualLines > m.textarea.MaxHeight {
		visualLines = m.textarea.MaxHeight
	}

	if visualLines != m.textarea.Height() {
		m.textarea.SetHeight(visualLines)
		m.recalculateLayout()
	}
}
