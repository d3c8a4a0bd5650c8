// Package surfer implements a multimodal web-surfing turn: it shows a language
// model an annotated screenshot of the current page, lets it choose one browser
// tool, performs that action and replies with a description of the result and
// a fresh screenshot.
package surfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/llm"
	"github.com/entrhq/surfer/pkg/llm/tokenizer"
	"github.com/entrhq/surfer/pkg/logging"
	"github.com/entrhq/surfer/pkg/markdown"
	"github.com/entrhq/surfer/pkg/metrics"
	"github.com/entrhq/surfer/pkg/som"
	"github.com/entrhq/surfer/pkg/types"
)

var surferLog *logging.Logger

func init() {
	var err error
	surferLog, err = logging.NewLogger("surfer")
	if err != nil {
		surferLog.Warnf("Failed to initialize surfer logger, using stderr fallback: %v", err)
	}
}

const eventSource = "surfer"

// Defaults for a Surfer.
const (
	DefaultSettleDelay       = 2 * time.Second
	DefaultSummaryTokenLimit = 100000

	// summaryReserve leaves room in the token budget for the summary itself.
	summaryReserve = 1024
)

// whitespaceRun also matches Unicode spaces such as NBSP.
var whitespaceRun = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)

// Observer receives progress events while a turn runs.
type Observer func(*types.AgentEvent)

// Surfer runs surfing turns against one page.
type Surfer struct {
	page            Page
	provider        llm.Provider
	summaryProvider llm.Provider
	summaryModel    string

	converter    *markdown.Converter
	tokenizer    *tokenizer.Tokenizer
	tokenizerSet bool
	console      *Console
	events       eventlog.Logger
	metrics      *metrics.Collector

	debugEnabled  bool
	debugPath     string
	debug         *debugDir
	viewportWidth int

	settleDelay       time.Duration
	summaryTokenLimit int
	maxTokens         int

	observerMu sync.RWMutex
	observer   Observer
}

// Option configures a Surfer.
type Option func(*Surfer)

// WithDebugDir sets where screenshots are written each turn. An empty dir
// means the working directory.
func WithDebugDir(dir string) Option {
	return func(s *Surfer) {
		s.debugEnabled = true
		s.debugPath = dir
	}
}

// WithoutDebugDir disables screenshot capture.
func WithoutDebugDir() Option {
	return func(s *Surfer) {
		s.debugEnabled = false
	}
}

// WithViewportWidth sets the image width of the debug viewer.
func WithViewportWidth(width int) Option {
	return func(s *Surfer) {
		if width > 0 {
			s.viewportWidth = width
		}
	}
}

// WithSettleDelay sets the pause between an action and the observation of its result.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Surfer) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithSummaryTokenLimit caps the page text sent for summarization.
func WithSummaryTokenLimit(limit int) Option {
	return func(s *Surfer) {
		if limit > summaryReserve {
			s.summaryTokenLimit = limit
		}
	}
}

// WithSummaryModel routes summarize_page and answer_question to another model.
func WithSummaryModel(model string) Option {
	return func(s *Surfer) {
		s.summaryModel = model
	}
}

// WithMaxTokens caps completion length (0 uses the provider default).
func WithMaxTokens(n int) Option {
	return func(s *Surfer) {
		s.maxTokens = n
	}
}

// WithConsole prints each browser action to c.
func WithConsole(c *Console) Option {
	return func(s *Surfer) {
		s.console = c
	}
}

// WithEventLog records runtime events.
func WithEventLog(l eventlog.Logger) Option {
	return func(s *Surfer) {
		if l != nil {
			s.events = l
		}
	}
}

// WithMetrics records tool and model request metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Surfer) {
		s.metrics = c
	}
}

// WithTokenizer sets the tokenizer used to budget summaries. A nil tokenizer
// estimates counts from text length.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(s *Surfer) {
		s.tokenizer = t
		s.tokenizerSet = true
	}
}

// WithMarkdownConverter replaces the HTML to markdown converter.
func WithMarkdownConverter(c *markdown.Converter) Option {
	return func(s *Surfer) {
		if c != nil {
			s.converter = c
		}
	}
}

// WithObserver receives progress events during each turn.
func WithObserver(o Observer) Option {
	return func(s *Surfer) {
		s.observer = o
	}
}

// New creates a surfer for page. When a debug directory is configured it is
// created, the viewer page is written and the current page is captured.
func New(ctx context.Context, page Page, provider llm.Provider, opts ...Option) (*Surfer, error) {
	if page == nil {
		return nil, errors.New("page is required")
	}
	if provider == nil {
		return nil, errors.New("provider is required")
	}

	s := &Surfer{
		page:              page,
		provider:          provider,
		converter:         markdown.NewConverter(),
		events:            eventlog.Nop{},
		debugEnabled:      true,
		viewportWidth:     browser.DefaultViewportWidth,
		settleDelay:       DefaultSettleDelay,
		summaryTokenLimit: DefaultSummaryTokenLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.summaryProvider = llm.WithModelOverride(provider, s.summaryModel)

	if !s.tokenizerSet {
		tok, err := tokenizer.ForModel(s.summaryProvider.GetModel())
		if err != nil {
			surferLog.Warnf("token encoding unavailable, estimating: %v", err)
		}
		s.tokenizer = tok
	}

	if s.debugEnabled {
		if err := s.openDebugDir(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Surfer) openDebugDir(ctx context.Context) error {
	dir := s.debugPath
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	d, err := newDebugDir(dir, s.viewportWidth)
	if err != nil {
		return err
	}
	s.debug = d

	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture initial screenshot: %w", err)
	}
	if err := d.write(debugScreenshotFile, shot); err != nil {
		return err
	}
	surferLog.Infof("debug screenshots at %s", d.ViewerURI())
	s.console.Println("Live debug screenshots: " + d.ViewerURI() + "\n")
	return nil
}

// SetObserver replaces the progress observer. A nil observer disables events.
func (s *Surfer) SetObserver(o Observer) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observer = o
}

func (s *Surfer) emit(e *types.AgentEvent) {
	s.observerMu.RLock()
	o := s.observer
	s.observerMu.RUnlock()
	if o != nil {
		o(e)
	}
}

// Reset returns the browser to its start page.
func (s *Surfer) Reset(ctx context.Context) error {
	if err := s.page.Visit(ctx, s.page.StartPage()); err != nil {
		return fmt.Errorf("failed to reset browser: %w", err)
	}
	return nil
}

// turn accumulates token usage across the model calls of one turn.
type turn struct {
	usage types.TokenUsage
}

func (t *turn) add(u *types.TokenUsage) {
	if u == nil {
		return
	}
	t.usage.PromptTokens += u.PromptTokens
	t.usage.CompletionTokens += u.CompletionTokens
	t.usage.TotalTokens += u.TotalTokens
}

// GenerateReply runs one turn. history is the conversation so far, ending with
// the user's request; it is not modified. The reply is an assistant message
// describing the action taken and carrying a screenshot of the result. When the
// model's tool call cannot be carried out (unknown tool, missing element, bad
// arguments) the reply is the error text alone.
func (s *Surfer) GenerateReply(ctx context.Context, history []*types.Message) (*types.Message, error) {
	t := &turn{}

	// Earlier screenshots are not resent.
	messages := make([]*types.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, m.Flatten())
	}

	rects, err := s.page.InteractiveRects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read interactive regions: %w", err)
	}
	vp, err := s.page.VisualViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read viewport: %w", err)
	}
	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	annotated, visible, err := som.Annotate(shot, rects)
	if err != nil {
		return nil, err
	}
	s.saveImage(debugScreenshotFile, annotated)

	labels, scrollable := buildLabels(visible, rects)
	tools := availableTools(s.page, vp, scrollable)

	focused, err := s.page.FocusedElementID(ctx)
	if err != nil {
		surferLog.Debugf("could not read focused element: %v", err)
		focused = ""
	}
	prompt := buildPrompt(s.page.URL(), labels, focusHint(focused, rects), toolNames(tools))

	scaled := som.Scale(annotated, som.ModelWidth, som.ModelHeight)
	scaledPNG, err := som.EncodePNG(scaled)
	if err != nil {
		return nil, err
	}
	if s.debug != nil {
		if err := s.debug.write(debugScaledFile, scaledPNG); err != nil {
			surferLog.Warnf("%v", err)
		}
	}

	messages = append(messages, types.NewMultimodalMessage(types.RoleUser, prompt, scaledPNG))
	response, err := s.complete(ctx, t, s.provider, messages, llm.CompletionOptions{
		Tools:     tools,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	action := ""
	if response.HasToolCalls() {
		action, err = s.execute(ctx, t, response.ToolCalls[0], rects)
		if err != nil {
			if text, ok := toolErrorText(err); ok {
				s.events.LogEvent(ctx, eventSource, eventlog.EventValueError, map[string]interface{}{"error": text})
				reply := types.NewAssistantMessage(text)
				reply.Usage = t.total()
				return reply, nil
			}
			return nil, err
		}
	} else {
		s.emit(types.NewNoToolCallEvent())
	}

	return s.observe(ctx, t, response.Content, action)
}

func (t *turn) total() *types.TokenUsage {
	u := t.usage
	return &u
}

// observe waits for the page to settle and builds the reply.
func (s *Surfer) observe(ctx context.Context, t *turn, content, action string) (*types.Message, error) {
	if err := s.page.WaitForLoad(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		surferLog.Debugf("page did not reach load state: %v", err)
	}
	if err := sleep(ctx, s.settleDelay); err != nil {
		return nil, err
	}

	vp, err := s.page.VisualViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read viewport: %w", err)
	}
	pos := describeViewport(vp)

	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if s.debug != nil {
		if err := s.debug.write(debugScreenshotFile, shot); err != nil {
			surferLog.Warnf("%v", err)
		}
	}

	title, err := s.page.Title(ctx)
	if err != nil {
		surferLog.Debugf("could not read page title: %v", err)
	}
	url := s.page.URL()

	if s.events.Enabled() {
		s.logPageState(ctx, title, url, pos)
	}

	text := fmt.Sprintf("%s\n\n%s\n\nHere is a screenshot of [%s](%s). The viewport shows %d%% of the webpage, and is positioned %s.",
		content, action, title, url, pos.PercentVisible, pos.Text)
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	reply := types.NewMultimodalMessage(types.RoleAssistant, text, shot)
	reply.Usage = t.total()
	return reply, nil
}

func (s *Surfer) logPageState(ctx context.Context, title, url string, pos viewportPosition) {
	cookies, err := s.page.Cookies(ctx)
	if err != nil {
		surferLog.Debugf("could not read cookies: %v", err)
	} else {
		s.events.LogEvent(ctx, eventSource, eventlog.EventCookies, map[string]interface{}{"cookies": cookies})
	}
	s.events.LogEvent(ctx, eventSource, eventlog.EventViewportState, map[string]interface{}{
		"page_title":       title,
		"page_url":         url,
		"percent_visible":  pos.PercentVisible,
		"percent_scrolled": pos.PercentScrolled,
	})
}

// complete calls p and records timing, usage and progress events.
func (s *Surfer) complete(ctx context.Context, t *turn, p llm.Provider, messages []*types.Message, opts llm.CompletionOptions) (*types.Message, error) {
	model := p.GetModel()
	s.emit(types.NewAPICallStartEvent(model))
	start := time.Now()
	response, err := p.Complete(ctx, messages, opts)
	elapsed := time.Since(start)
	s.emit(types.NewAPICallEndEvent(model, elapsed))

	var prompt, completion int
	if response != nil && response.Usage != nil {
		prompt = response.Usage.PromptTokens
		completion = response.Usage.CompletionTokens
	}
	s.metrics.RecordLLMRequest(model, elapsed, prompt, completion, err)

	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	if response == nil {
		return nil, errors.New("model returned no message")
	}
	if response.Usage != nil {
		t.add(response.Usage)
		s.emit(types.NewTokenUsageEvent(response.Usage))
	}
	return response, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
