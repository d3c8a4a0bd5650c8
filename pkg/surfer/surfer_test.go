package surfer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/llm/tokenizer"
	"github.com/entrhq/surfer/pkg/metrics"
	"github.com/entrhq/surfer/pkg/types"
)

func newTestSurfer(t *testing.T, page *fakePage, provider *fakeProvider, opts ...Option) *Surfer {
	t.Helper()
	base := []Option{WithoutDebugDir(), WithSettleDelay(0), WithTokenizer(nil)}
	s, err := New(context.Background(), page, provider, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func userHistory(text string) []*types.Message {
	return []*types.Message{types.NewUserMessage(text)}
}

func TestNewRequiresPageAndProvider(t *testing.T) {
	_, err := New(context.Background(), nil, &fakeProvider{}, WithTokenizer(nil))
	assert.Error(t, err)

	_, err = New(context.Background(), newFakePage(t), nil, WithTokenizer(nil))
	assert.Error(t, err)
}

func TestGenerateReplyClick(t *testing.T) {
	page := newFakePage(t)
	page.rects["12"] = button("Sign in", 10, 30)
	provider := &fakeProvider{responses: []*types.Message{
		toolCallReply("", ToolClick, `{"reasoning":"log in","target_id":12}`),
	}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("sign in please"))
	require.NoError(t, err)

	assert.Equal(t, []string{"click:12"}, page.Calls())
	assert.Equal(t, types.RoleAssistant, reply.Role)
	assert.Equal(t,
		"I clicked 'Sign in'. Here is a screenshot of [Example](https://example.com/). The viewport shows 50% of the webpage, and is positioned at the top of the page.",
		reply.Content)
	require.Len(t, reply.Images, 1)
	assert.Equal(t, page.shot, reply.Images[0].Data)
	require.NotNil(t, reply.Usage)
	assert.Equal(t, 110, reply.Usage.TotalTokens)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	msgs := requests[0].messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "sign in please", msgs[0].Content)

	prompt := msgs[1]
	assert.Equal(t, types.RoleUser, prompt.Role)
	require.Len(t, prompt.Images, 1)
	assert.Contains(t, prompt.Content, "which is open to the page 'https://example.com/'")
	assert.Contains(t, prompt.Content, `{ "id": 12, "aria-role": "button", "html_tag": "button", "actions": "['click']", "name": "Sign in" },`)
	assert.Contains(t, prompt.Content, "(visit_url, history_back, click, input_text, summarize_page, answer_question, web_search, page_down)")
	assert.Equal(t,
		[]string{ToolVisitURL, ToolHistoryBack, ToolClick, ToolInputText, ToolSummarizePage, ToolAnswerQuestion, ToolWebSearch, ToolPageDown},
		toolNames(requests[0].opts.Tools))
}

func TestGenerateReplyKeepsModelContent(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{
		toolCallReply("Let me\n  search   for that.", ToolWebSearch, `{"reasoning":"r","query":"go generics"}`),
	}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("find go generics"))
	require.NoError(t, err)

	assert.Equal(t, []string{"visit:https://www.bing.com/search?q=go+generics&FORM=QBLH"}, page.Calls())
	assert.True(t, strings.HasPrefix(reply.Content,
		"Let me search for that. I typed 'go generics' into the browser search bar. Here is a screenshot of [Example]("))
}

func TestReplyCollapsesUnicodeWhitespace(t *testing.T) {
	page := newFakePage(t)
	page.title = "Caf\u00e9\u00a0\u00a0Menu\u2003Today"
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("Open\u00a0now.")}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("menu?"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Content, "Open now. Here is a screenshot of [Caf\u00e9 Menu Today]"), reply.Content)
}

func TestGenerateReplyWithoutToolCall(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("Paris.")}}
	s := newTestSurfer(t, page, provider)

	var events []types.AgentEventType
	s.SetObserver(func(e *types.AgentEvent) { events = append(events, e.Type) })

	reply, err := s.GenerateReply(context.Background(), userHistory("capital of France?"))
	require.NoError(t, err)

	assert.Empty(t, page.Calls())
	assert.True(t, strings.HasPrefix(reply.Content, "Paris. Here is a screenshot of [Example]"))
	assert.Contains(t, events, types.EventTypeNoToolCall)
	assert.Contains(t, events, types.EventTypeAPICallStart)
}

func TestGenerateReplyActions(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		args       string
		wantCall   string
		wantSaying string
	}{
		{"visit url", ToolVisitURL, `{"url":"example.org"}`, "visit:https://example.org", "I typed 'example.org' into the browser address bar."},
		{"back", ToolHistoryBack, `{}`, "back", "I clicked the browser back button."},
		{"page up", ToolPageUp, `{}`, "page_up", "I scrolled up one page in the browser."},
		{"page down", ToolPageDown, `{}`, "page_down", "I scrolled down one page in the browser."},
		{"click unnamed", ToolClick, `{"target_id":"13"}`, "click:13", "I clicked the control."},
		{"input named", ToolInputText, `{"input_field_id":11,"text_value":"cats"}`, "fill:11=cats", "I typed 'cats' into 'Search'."},
		{"input unnamed", ToolInputText, `{"input_field_id":14,"text_value":"dogs"}`, "fill:14=dogs", "I input 'dogs'."},
		{"scroll up named", ToolScrollElementUp, `{"target_id":12}`, "scroll:12:up", "I scrolled 'Results' up."},
		{"scroll down unnamed", ToolScrollElementDown, `{"target_id":15}`, "scroll:15:down", "I scrolled the control down."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage(t)
			page.rects["11"] = browser.InteractiveRegion{TagName: "input", Role: "searchbox", AriaName: "Search"}
			page.rects["12"] = browser.InteractiveRegion{TagName: "div", Role: "list", AriaName: "Results", VScrollable: true}
			provider := &fakeProvider{responses: []*types.Message{toolCallReply("", tt.tool, tt.args)}}
			s := newTestSurfer(t, page, provider)

			reply, err := s.GenerateReply(context.Background(), userHistory("go"))
			require.NoError(t, err)

			assert.Equal(t, []string{tt.wantCall}, page.Calls())
			assert.True(t, strings.HasPrefix(reply.Content, tt.wantSaying), reply.Content)
		})
	}
}

func TestGenerateReplyUnknownTool(t *testing.T) {
	page := newFakePage(t)
	events := &recordingEvents{}
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", "fly", `{"to":"moon"}`)}}
	s := newTestSurfer(t, page, provider, WithEventLog(events))

	reply, err := s.GenerateReply(context.Background(), userHistory("fly"))
	require.NoError(t, err)

	assert.Equal(t, "Unknown tool 'fly'", reply.Content)
	assert.Empty(t, reply.Images)
	assert.Empty(t, page.Calls())

	assert.Equal(t, "fly", events.Fields(eventlog.EventUnknownTool)["error"])
	assert.Equal(t, "Unknown tool 'fly'", events.Fields(eventlog.EventValueError)["error"])
}

func TestGenerateReplyNoSuchElement(t *testing.T) {
	page := newFakePage(t)
	page.clickErr = browser.ErrNoSuchElement
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolClick, `{"target_id":404}`)}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("click it"))
	require.NoError(t, err)

	assert.Equal(t, "No such element.", reply.Content)
	assert.Empty(t, reply.Images)
}

func TestGenerateReplyInvalidArguments(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolClick, `{"target_id":`)}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("click"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Content, ErrInvalidArguments.Error()), reply.Content)
	assert.Empty(t, page.Calls())
}

func TestGenerateReplyMissingArgument(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolVisitURL, `{"reasoning":"r"}`)}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("go somewhere"))
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "missing required argument 'url'")
}

func TestGenerateReplyNavigationFailure(t *testing.T) {
	page := newFakePage(t)
	page.visitErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolVisitURL, `{"url":"https://nowhere.invalid"}`)}}
	s := newTestSurfer(t, page, provider)

	_, err := s.GenerateReply(context.Background(), userHistory("go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
}

func TestGenerateReplyProviderError(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{err: errors.New("rate limited")}
	s := newTestSurfer(t, page, provider)

	_, err := s.GenerateReply(context.Background(), userHistory("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model request failed")
}

func TestGenerateReplyFlattensHistory(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("ok")}}
	s := newTestSurfer(t, page, provider)

	earlier := types.NewMultimodalMessage(types.RoleAssistant, "I clicked 'Next'.", page.shot)
	history := []*types.Message{types.NewUserMessage("next page"), earlier, types.NewUserMessage("again")}

	_, err := s.GenerateReply(context.Background(), history)
	require.NoError(t, err)

	msgs := provider.Requests()[0].messages
	require.Len(t, msgs, 4)
	assert.Empty(t, msgs[1].Images)
	assert.Equal(t, "I clicked 'Next'.<image>", msgs[1].Content)
	assert.Len(t, earlier.Images, 1, "history must not be modified")
}

func TestGenerateReplyFocusHint(t *testing.T) {
	page := newFakePage(t)
	page.rects["11"] = browser.InteractiveRegion{TagName: "input", Role: "searchbox", AriaName: "Search",
		Rects: button("", 5, 5).Rects}
	page.focused = "11"
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("ok")}}
	s := newTestSurfer(t, page, provider)

	_, err := s.GenerateReply(context.Background(), userHistory("hi"))
	require.NoError(t, err)

	prompt := provider.Requests()[0].messages[1].Content
	assert.Contains(t, prompt, "]\n\nThe searchbox with ID 11 (and name 'Search') currently has the input focus.\n\nYou are to respond")
	assert.Contains(t, prompt, `"actions": "['input_text']"`)
}

func TestGenerateReplyLogsPageState(t *testing.T) {
	page := newFakePage(t)
	page.cookies = []browser.Cookie{{Name: "sid", Value: "1"}}
	events := &recordingEvents{}
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolPageDown, `{}`)}}
	s := newTestSurfer(t, page, provider, WithEventLog(events))

	_, err := s.GenerateReply(context.Background(), userHistory("scroll"))
	require.NoError(t, err)

	assert.Equal(t, []string{eventlog.EventBrowserAction, eventlog.EventCookies, eventlog.EventViewportState}, events.Names())
	state := events.Fields(eventlog.EventViewportState)
	assert.Equal(t, "Example", state["page_title"])
	assert.Equal(t, "https://example.com/", state["page_url"])
	assert.Equal(t, 50, state["percent_visible"])
	assert.Equal(t, 0, state["percent_scrolled"])
}

func TestGenerateReplyRecordsMetrics(t *testing.T) {
	page := newFakePage(t)
	collector := metrics.NewCollector("surfer_test")
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolHistoryBack, `{}`)}}
	s := newTestSurfer(t, page, provider, WithMetrics(collector))

	_, err := s.GenerateReply(context.Background(), userHistory("back"))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(collector.Registry(), "surfer_test_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(collector.Registry(), "surfer_test_llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateReplyConsoleNarration(t *testing.T) {
	page := newFakePage(t)
	var out bytes.Buffer
	provider := &fakeProvider{responses: []*types.Message{
		toolCallReply("", ToolInputText, `{"reasoning":"search","input_field_id":11,"text_value":"cats"}`),
	}}
	s := newTestSurfer(t, page, provider, WithConsole(NewConsole(&out)))

	_, err := s.GenerateReply(context.Background(), userHistory("search cats"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), ">>>>>>>> BROWSER ACTION input_text(reasoning='search', input_field_id='11', text_value='cats')")
}

func TestSummarizePage(t *testing.T) {
	page := newFakePage(t)
	page.html = "<html><head><title>Doc</title></head><body><h1>Hello</h1><p>World</p></body></html>"
	provider := &fakeProvider{responses: []*types.Message{
		toolCallReply("", ToolAnswerQuestion, `{"question":"who?"}`),
		{Role: types.RoleAssistant, Content: "It greets the world.", Usage: &types.TokenUsage{PromptTokens: 50, CompletionTokens: 5, TotalTokens: 55}},
	}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("who is greeted?"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(reply.Content, "It greets the world. Here is a screenshot of [Example]"), reply.Content)
	assert.Equal(t, 165, reply.Usage.TotalTokens)

	requests := provider.Requests()
	require.Len(t, requests, 2)
	summary := requests[1]
	assert.Empty(t, summary.opts.Tools)
	require.Len(t, summary.messages, 2)
	assert.Equal(t, types.RoleSystem, summary.messages[0].Role)
	assert.Equal(t, summarySystemPrompt, summary.messages[0].Content)

	user := summary.messages[1]
	require.Len(t, user.Images, 1)
	assert.Equal(t,
		"We are visiting the webpage 'Example'. Its full-text contents are pasted below, along with a screenshot of the page's current viewport. "+
			"Please summarize the webpage into one or two paragraphs with respect to 'who?':\n\n# Hello\n\nWorld",
		user.Content)
}

func TestSummarizeEmptyPage(t *testing.T) {
	page := newFakePage(t)
	page.html = "<html><body><script>var x = 1;</script></body></html>"
	provider := &fakeProvider{responses: []*types.Message{toolCallReply("", ToolSummarizePage, `{}`)}}
	s := newTestSurfer(t, page, provider)

	reply, err := s.GenerateReply(context.Background(), userHistory("summarize"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(reply.Content, "Nothing to summarize. Here is a screenshot"), reply.Content)
	assert.Len(t, provider.Requests(), 1)
}

func TestSummaryPromptWithoutQuestion(t *testing.T) {
	got := summaryPrompt("https://example.com/", "", "body")
	assert.Equal(t,
		"We are visiting the webpage 'https://example.com/'. Its full-text contents are pasted below, along with a screenshot of the page's current viewport. "+
			"Please summarize the webpage into one or two paragraphs:\n\nbody",
		got)
}

func TestTruncateToTokens(t *testing.T) {
	var tok *tokenizer.Tokenizer // estimates four characters per token
	a := strings.Repeat("a", 20)
	b := strings.Repeat("b", 20)
	c := strings.Repeat("c", 20)

	got := truncateToTokens(a+"\n"+b+"\r\n\n"+c, tok, summaryReserve+10)
	assert.Equal(t, a+"\n"+b, got)

	assert.Equal(t, "", truncateToTokens(a, tok, summaryReserve+1))
}

func TestTruncateToTokensCountsKeptTextAsAWhole(t *testing.T) {
	var tok *tokenizer.Tokenizer
	// Each line alone rounds down to zero tokens; the whole text is two.
	assert.Equal(t, "ab\ncd\nef", truncateToTokens("ab\ncd\nef", tok, summaryReserve+2))
	assert.Equal(t, "ab\ncd", truncateToTokens("ab\ncd\nef", tok, summaryReserve+1))
}

func TestSplitLinesKeepsSeparators(t *testing.T) {
	assert.Equal(t, []string{"a", "\n", "b", "\r\n\n", "c"}, splitLines("a\nb\r\n\nc"))
	assert.Equal(t, []string{"", "\n", ""}, splitLines("\n"))
}

func TestReset(t *testing.T) {
	page := newFakePage(t)
	s := newTestSurfer(t, page, &fakeProvider{})

	require.NoError(t, s.Reset(context.Background()))
	assert.Equal(t, []string{"visit:https://www.bing.com/"}, page.Calls())
}

func TestDebugDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	page := newFakePage(t)
	var out bytes.Buffer
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("ok")}}

	s, err := New(context.Background(), page, provider,
		WithDebugDir(dir), WithSettleDelay(0), WithTokenizer(nil), WithConsole(NewConsole(&out)))
	require.NoError(t, err)

	viewer, err := os.ReadFile(filepath.Join(dir, debugViewerFile))
	require.NoError(t, err)
	assert.Contains(t, string(viewer), "max-width: 1440px")
	assert.Contains(t, string(viewer), `"screenshot.png?bc=" + counter`)
	assert.FileExists(t, filepath.Join(dir, debugScreenshotFile))
	assert.Contains(t, out.String(), "file://")

	_, err = s.GenerateReply(context.Background(), userHistory("hi"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, debugScaledFile))

	saved, err := os.ReadFile(filepath.Join(dir, debugScreenshotFile))
	require.NoError(t, err)
	assert.Equal(t, page.shot, saved, "post-action screenshot replaces the annotated one")
}

func TestGenerateReplyHonoursCancellation(t *testing.T) {
	page := newFakePage(t)
	provider := &fakeProvider{responses: []*types.Message{types.NewAssistantMessage("ok")}}
	s, err := New(context.Background(), page, provider, WithoutDebugDir(), WithTokenizer(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.GenerateReply(ctx, userHistory("hi"))
	assert.ErrorIs(t, err, context.Canceled)
}
