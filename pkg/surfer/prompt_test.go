package surfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/llm"
)

func TestBuildLabels(t *testing.T) {
	regions := map[string]browser.InteractiveRegion{
		"10": {TagName: "a", Role: "link", AriaName: "Home"},
		"11": {TagName: "input", Role: "searchbox", AriaName: "Search"},
		"12": {TagName: "div", Role: "listbox", AriaName: "Results", VScrollable: true},
	}

	labels, scrollable := buildLabels([]string{"10", "11", "12", "99"}, regions)

	want := "\n   { \"id\": 10, \"aria-role\": \"link\", \"html_tag\": \"a\", \"actions\": \"['click']\", \"name\": \"Home\" }," +
		"\n   { \"id\": 11, \"aria-role\": \"searchbox\", \"html_tag\": \"input\", \"actions\": \"['input_text']\", \"name\": \"Search\" }," +
		"\n   { \"id\": 12, \"aria-role\": \"listbox\", \"html_tag\": \"div\", \"actions\": \"['click','scroll_element_up','scroll_element_down']\", \"name\": \"Results\" },"
	assert.Equal(t, want, labels)
	assert.True(t, scrollable)
}

func TestBuildLabelsIgnoresHiddenScrollables(t *testing.T) {
	regions := map[string]browser.InteractiveRegion{
		"10": {TagName: "div", Role: "list", VScrollable: true},
	}
	labels, scrollable := buildLabels(nil, regions)
	assert.Empty(t, labels)
	assert.False(t, scrollable)
}

func TestFocusHint(t *testing.T) {
	regions := map[string]browser.InteractiveRegion{
		"11": {Role: "searchbox", AriaName: "Search"},
		"12": {Role: "textbox"},
	}

	tests := []struct {
		name    string
		focused string
		want    string
	}{
		{"nothing focused", "", ""},
		{"named", "11", "\nThe searchbox with ID 11 (and name 'Search') currently has the input focus.\n"},
		{"unnamed", "12", "\nThe textbox with ID 12 currently has the input focus.\n"},
		{"unknown element", "40", "\nThe control with ID 40 currently has the input focus.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, focusHint(tt.focused, regions))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	labels := "\n   { \"id\": 10, \"aria-role\": \"link\", \"html_tag\": \"a\", \"actions\": \"['click']\", \"name\": \"Home\" },"
	hint := "\nThe link with ID 10 (and name 'Home') currently has the input focus.\n"

	got := buildPrompt("https://example.com/", labels, hint, []string{"visit_url", "click"})

	want := "Consider the following screenshot of a web browser, which is open to the page 'https://example.com/'. " +
		"In this screenshot, interactive elements are outlined in bounding boxes of different colors. " +
		"Each bounding box has a numeric ID label in the same color. Additional information about each visible label is listed below:\n\n" +
		"[\n" + labels + "\n]\n" + hint + "\n" +
		"You are to respond to the user's most recent request by selecting an appropriate tool from the provided set of browser tools (visit_url, click), or by answering the question directly if possible."
	assert.Equal(t, want, got)
}

func TestTargetName(t *testing.T) {
	regions := map[string]browser.InteractiveRegion{"10": {AriaName: "  Sign in \n"}}
	assert.Equal(t, "Sign in", targetName("10", regions))
	assert.Equal(t, "", targetName("11", regions))
}

func TestAvailableTools(t *testing.T) {
	base := []string{ToolVisitURL, ToolHistoryBack, ToolClick, ToolInputText, ToolSummarizePage, ToolAnswerQuestion}

	tests := []struct {
		name       string
		viewport   browser.VisualViewport
		blockBing  bool
		scrollable bool
		want       []string
	}{
		{
			name:     "short page",
			viewport: browser.VisualViewport{Height: 900, PageTop: 0, ScrollHeight: 900},
			want:     append(append([]string{}, base...), ToolWebSearch),
		},
		{
			name:     "top of long page",
			viewport: browser.VisualViewport{Height: 900, PageTop: 0, ScrollHeight: 3000},
			want:     append(append([]string{}, base...), ToolWebSearch, ToolPageDown),
		},
		{
			name:     "middle of long page",
			viewport: browser.VisualViewport{Height: 900, PageTop: 1000, ScrollHeight: 3000},
			want:     append(append([]string{}, base...), ToolWebSearch, ToolPageUp, ToolPageDown),
		},
		{
			name:     "bottom within slack",
			viewport: browser.VisualViewport{Height: 900, PageTop: 2097, ScrollHeight: 3000},
			want:     append(append([]string{}, base...), ToolWebSearch, ToolPageUp),
		},
		{
			name:      "search blocked",
			viewport:  browser.VisualViewport{Height: 900, ScrollHeight: 900},
			blockBing: true,
			want:      base,
		},
		{
			name:       "scrollable element",
			viewport:   browser.VisualViewport{Height: 900, ScrollHeight: 900},
			scrollable: true,
			want:       append(append([]string{}, base...), ToolWebSearch, ToolScrollElementUp, ToolScrollElementDown),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage(t)
			if tt.blockBing {
				page.blocked = map[string]bool{searchProbeURL: true}
			}
			got := toolNames(availableTools(page, tt.viewport, tt.scrollable))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToolsCarryReasoning(t *testing.T) {
	all := []llm.Tool{
		toolVisitURL, toolWebSearch, toolHistoryBack, toolPageUp, toolPageDown, toolClick,
		toolInputText, toolScrollElementUp, toolScrollElementDown, toolSummarizePage, toolAnswerQuestion,
	}
	for _, tool := range all {
		props, ok := tool.Parameters["properties"].(map[string]interface{})
		if assert.True(t, ok, tool.Name) {
			assert.Contains(t, props, "reasoning", tool.Name)
		}
		assert.Contains(t, tool.Parameters["required"], "reasoning", tool.Name)
	}

	props := toolInputText.Parameters["properties"].(map[string]interface{})
	assert.Contains(t, props, "input_field_id")
	assert.Contains(t, props, "text_value")
	assert.Equal(t, []string{"reasoning", "input_field_id", "text_value"}, toolInputText.Parameters["required"])
}

func TestDescribeViewport(t *testing.T) {
	tests := []struct {
		name     string
		viewport browser.VisualViewport
		want     viewportPosition
	}{
		{
			name:     "top",
			viewport: browser.VisualViewport{Height: 900, PageTop: 0, ScrollHeight: 1800},
			want:     viewportPosition{PercentVisible: 50, PercentScrolled: 0, Text: "at the top of the page"},
		},
		{
			name:     "bottom",
			viewport: browser.VisualViewport{Height: 900, PageTop: 900, ScrollHeight: 1800},
			want:     viewportPosition{PercentVisible: 50, PercentScrolled: 50, Text: "at the bottom of the page"},
		},
		{
			name:     "middle",
			viewport: browser.VisualViewport{Height: 900, PageTop: 450, ScrollHeight: 3600},
			want:     viewportPosition{PercentVisible: 25, PercentScrolled: 12, Text: "12% down from the top of the page"},
		},
		{
			name:     "empty document",
			viewport: browser.VisualViewport{Height: 900},
			want:     viewportPosition{PercentVisible: 100, Text: "at the top of the page"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeViewport(tt.viewport))
		})
	}
}

func TestResolveAddress(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a": "https://example.com/a",
		"http://example.com":    "http://example.com",
		"file:///tmp/x.html":    "file:///tmp/x.html",
		"about:blank":           "about:blank",
		"example.com/docs":      "https://example.com/docs",
		"best pizza in town":    "https://www.bing.com/search?q=best+pizza+in+town&FORM=QBLH",
	}
	for in, want := range tests {
		assert.Equal(t, want, resolveAddress(in), in)
	}
}
