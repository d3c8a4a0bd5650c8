package surfer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/llm"
	"github.com/entrhq/surfer/pkg/types"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func button(name string, left, top float64) browser.InteractiveRegion {
	return browser.InteractiveRegion{
		TagName:  "button",
		Role:     "button",
		AriaName: name,
		Rects: []browser.Rect{{
			X: left, Y: top, Left: left, Top: top, Width: 40, Height: 20,
			Right: left + 40, Bottom: top + 20,
		}},
	}
}

// fakePage is an in-memory Page that records the actions performed on it.
type fakePage struct {
	mu sync.Mutex

	rects    map[string]browser.InteractiveRegion
	viewport browser.VisualViewport
	focused  string
	shot     []byte
	title    string
	url      string
	html     string
	cookies  []browser.Cookie
	start    string
	blocked  map[string]bool

	clickErr error
	visitErr error

	calls []string
}

func newFakePage(t *testing.T) *fakePage {
	return &fakePage{
		rects:    map[string]browser.InteractiveRegion{},
		viewport: browser.VisualViewport{Height: 900, Width: 1440, ScrollHeight: 1800},
		shot:     testPNG(t, 200, 100),
		title:    "Example",
		url:      "https://example.com/",
		start:    "https://www.bing.com/",
	}
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) InteractiveRects(context.Context) (map[string]browser.InteractiveRegion, error) {
	return p.rects, nil
}

func (p *fakePage) VisualViewport(context.Context) (browser.VisualViewport, error) {
	return p.viewport, nil
}

func (p *fakePage) FocusedElementID(context.Context) (string, error) { return p.focused, nil }
func (p *fakePage) Screenshot(context.Context) ([]byte, error)        { return p.shot, nil }
func (p *fakePage) Title(context.Context) (string, error)             { return p.title, nil }
func (p *fakePage) URL() string                                       { return p.url }
func (p *fakePage) HTML(context.Context) (string, error)              { return p.html, nil }
func (p *fakePage) Cookies(context.Context) ([]browser.Cookie, error) { return p.cookies, nil }
func (p *fakePage) StartPage() string                                 { return p.start }
func (p *fakePage) WaitForLoad(context.Context) error                 { return nil }

func (p *fakePage) Allowed(url string) bool {
	return !p.blocked[url]
}

func (p *fakePage) Visit(_ context.Context, url string) error {
	p.record("visit:" + url)
	if p.visitErr != nil {
		return p.visitErr
	}
	p.url = url
	return nil
}

func (p *fakePage) Back(context.Context) error     { p.record("back"); return nil }
func (p *fakePage) PageUp(context.Context) error   { p.record("page_up"); return nil }
func (p *fakePage) PageDown(context.Context) error { p.record("page_down"); return nil }

func (p *fakePage) ClickID(_ context.Context, id string) error {
	p.record("click:" + id)
	return p.clickErr
}

func (p *fakePage) FillID(_ context.Context, id, value string) error {
	p.record("fill:" + id + "=" + value)
	return nil
}

func (p *fakePage) ScrollID(_ context.Context, id string, direction browser.ScrollDirection) error {
	p.record("scroll:" + id + ":" + string(direction))
	return nil
}

type fakeRequest struct {
	messages []*types.Message
	opts     llm.CompletionOptions
}

// fakeProvider replays canned responses in order.
type fakeProvider struct {
	mu        sync.Mutex
	model     string
	responses []*types.Message
	err       error
	requests  []fakeRequest
}

func (p *fakeProvider) Complete(_ context.Context, messages []*types.Message, opts llm.CompletionOptions) (*types.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, fakeRequest{messages: messages, opts: opts})
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return types.NewAssistantMessage(""), nil
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	return next, nil
}

func (p *fakeProvider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{Name: p.GetModel(), Provider: "fake", SupportsVision: true}
}

func (p *fakeProvider) GetModel() string {
	if p.model == "" {
		return "fake-model"
	}
	return p.model
}

func (p *fakeProvider) GetBaseURL() string { return "" }

func (p *fakeProvider) Requests() []fakeRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]fakeRequest(nil), p.requests...)
}

func toolCallReply(content, name, args string) *types.Message {
	msg := types.NewAssistantMessage(content)
	msg.ToolCalls = []types.ToolCall{{ID: "call_1", Name: name, Arguments: args}}
	msg.Usage = &types.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110}
	return msg
}

// recordingEvents is an eventlog.Logger that keeps events in memory.
type recordingEvents struct {
	mu     sync.Mutex
	names  []string
	fields []map[string]interface{}
}

func (r *recordingEvents) LogEvent(_ context.Context, _ string, name string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.fields = append(r.fields, fields)
}

func (r *recordingEvents) Enabled() bool { return true }

func (r *recordingEvents) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *recordingEvents) Fields(name string) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.names {
		if n == name {
			return r.fields[i]
		}
	}
	return nil
}
