// Package browser drives a Playwright browser for the surfer: one context, one
// current page, a navigation allow list and an injected page script that labels
// interactive elements with __elementId attributes.
package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/logging"
)

//go:embed page_script.js
var pageScript string

const eventSource = "browser"

const scrollElementScript = `([id, direction]) => {
	const elm = document.querySelector("[__elementId='" + CSS.escape(id) + "']");
	if (!elm) {
		return;
	}
	if (direction == "up") {
		elm.scrollTop = Math.max(0, elm.scrollTop - elm.clientHeight);
	} else {
		elm.scrollTop = Math.min(elm.scrollHeight - elm.clientHeight, elm.scrollTop + elm.clientHeight);
	}
}`

// Browser owns the Playwright engine, one browser context and the current page.
// It is safe for use from one goroutine at a time; the mutex only guards the
// current page against popups swapping it.
type Browser struct {
	opts    Options
	logger  *logging.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	mu   sync.Mutex
	page playwright.Page
}

// Launch starts Playwright, opens the configured engine and loads the start page.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	opts.setDefaults()
	if opts.Channel != ChannelChromium && opts.Channel != ChannelFirefox {
		return nil, fmt.Errorf("invalid browser channel %q: only %s and %s are supported", opts.Channel, ChannelChromium, ChannelFirefox)
	}

	b := &Browser{opts: opts, logger: opts.Logger}
	if b.logger == nil {
		l, err := logging.NewLogger("browser")
		if err != nil {
			l = logging.NewNop()
		}
		b.logger = l
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Output is discarded so the driver does not interfere with the TUI.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if opts.Channel == ChannelFirefox {
		runOpts.Browsers = []string{ChannelFirefox}
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	b.pw = pw

	if err := b.openContext(); err != nil {
		_ = b.Close()
		return nil, err
	}

	page, err := b.context.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if err := b.preparePage(page); err != nil {
		_ = b.Close()
		return nil, err
	}
	b.page = page

	if _, err := page.Goto(opts.StartPage); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to load start page: %w", err)
	}
	if err := page.WaitForLoadState(); err != nil {
		b.logger.Warnf("start page did not finish loading: %v", err)
	}
	if err := sleep(ctx, launchSettle); err != nil {
		_ = b.Close()
		return nil, err
	}

	b.logger.Infof("browser ready (channel=%s headless=%t start=%s)", opts.Channel, opts.Headless, opts.StartPage)
	return b, nil
}

func (b *Browser) browserType() playwright.BrowserType {
	if b.opts.Channel == ChannelFirefox {
		return b.pw.Firefox
	}
	return b.pw.Chromium
}

// openContext launches either a persistent context or a fresh browser with a new context.
func (b *Browser) openContext() error {
	bt := b.browserType()

	if b.opts.DataDir != "" {
		bctx, err := bt.LaunchPersistentContext(b.opts.DataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(b.opts.Headless),
		})
		if err != nil {
			return fmt.Errorf("failed to launch persistent context: %w", err)
		}
		b.context = bctx
		return nil
	}

	br, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.opts.Headless),
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	b.browser = br

	bctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(b.opts.UserAgent),
	})
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	b.context = bctx
	return nil
}

// preparePage gives a page the route handler, viewport, init script and traffic hooks.
func (b *Browser) preparePage(page playwright.Page) error {
	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	if err := page.Route("**/*", b.route); err != nil {
		return fmt.Errorf("failed to install route handler: %w", err)
	}
	if err := page.SetViewportSize(b.opts.ViewportWidth, b.opts.ViewportHeight); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(pageScript)}); err != nil {
		return fmt.Errorf("failed to add init script: %w", err)
	}

	page.OnRequest(b.logRequest)
	page.OnResponse(b.logResponse)
	page.OnPopup(func(p playwright.Page) {
		b.logger.Debugf("popup opened: %s", p.URL())
	})
	return nil
}

// route lets allowed requests through and replaces blocked HTML documents with the blocked page.
func (b *Browser) route(route playwright.Route) {
	url := route.Request().URL()
	if b.opts.AllowList.Allowed(url) {
		if err := route.Continue(); err != nil {
			b.logger.Debugf("route continue failed for %s: %v", url, err)
		}
		return
	}

	resp, err := route.Fetch()
	if err != nil {
		b.logger.Warnf("failed to fetch blocked url %s: %v", url, err)
		_ = route.Abort()
		return
	}

	if isHTML(resp.Headers()) {
		b.opts.Metrics.RecordNavigationBlocked()
		b.logger.Infof("navigation blocked: %s", url)
		err = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(403),
			ContentType: playwright.String("text/html"),
			Body:        blockedPage(b.opts.StartPage),
		})
	} else {
		err = route.Fulfill(playwright.RouteFulfillOptions{Response: resp})
	}
	if err != nil {
		b.logger.Warnf("failed to fulfill blocked url %s: %v", url, err)
	}
}

func (b *Browser) logRequest(req playwright.Request) {
	if !b.opts.Events.Enabled() {
		return
	}
	fields := map[string]interface{}{
		"method": req.Method(),
		"url":    req.URL(),
	}
	if headers, err := req.AllHeaders(); err == nil {
		fields["request_headers"] = headers
	}
	// Post bodies are frequently not JSON; only attach them when they parse.
	var body interface{}
	if err := req.PostDataJSON(&body); err == nil && body != nil {
		fields["request_content"] = body
	}
	b.opts.Events.LogEvent(context.Background(), eventSource, eventlog.EventRequest, fields)
}

func (b *Browser) logResponse(resp playwright.Response) {
	if !b.opts.Events.Enabled() {
		return
	}
	fields := map[string]interface{}{
		"status": resp.Status(),
		"url":    resp.URL(),
	}
	if headers, err := resp.AllHeaders(); err == nil {
		fields["response_headers"] = headers
	}
	b.opts.Events.LogEvent(context.Background(), eventSource, eventlog.EventResponse, fields)
}

func (b *Browser) current() playwright.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// adoptPage makes a popup the current page.
func (b *Browser) adoptPage(ctx context.Context, page playwright.Page) error {
	if err := b.preparePage(page); err != nil {
		return err
	}
	if err := sleep(ctx, popupSettle); err != nil {
		return err
	}
	if err := page.WaitForLoadState(); err != nil {
		b.logger.Debugf("popup did not finish loading: %v", err)
	}

	b.mu.Lock()
	b.page = page
	b.mu.Unlock()

	b.logger.Infof("switched to new page: %s", page.URL())
	if b.opts.OnNewPage != nil {
		b.opts.OnNewPage(page.URL())
	}
	return nil
}

// StartPage returns the configured start page.
func (b *Browser) StartPage() string {
	return b.opts.StartPage
}

// Allowed reports whether the allow list admits url.
func (b *Browser) Allowed(url string) bool {
	return b.opts.AllowList.Allowed(url)
}

// Visit navigates the current page to url.
func (b *Browser) Visit(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.current().Goto(url); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Back goes back one entry in the page history.
func (b *Browser) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.current().GoBack(); err != nil {
		return fmt.Errorf("history back failed: %w", err)
	}
	return nil
}

// PageDown scrolls the window down by one viewport, less a small overlap.
func (b *Browser) PageDown(ctx context.Context) error {
	return b.scrollWindow(ctx, b.opts.ViewportHeight-scrollMargin)
}

// PageUp scrolls the window up by one viewport, less a small overlap.
func (b *Browser) PageUp(ctx context.Context) error {
	return b.scrollWindow(ctx, -(b.opts.ViewportHeight - scrollMargin))
}

func (b *Browser) scrollWindow(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.current().Evaluate(fmt.Sprintf("window.scrollBy(0, %d);", dy)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// elementSelector addresses an element labelled by the page script.
func elementSelector(id string) string {
	id = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(id)
	return "[__elementId='" + id + "']"
}

// locate waits briefly for a labelled element, returning ErrNoSuchElement when it is absent.
func (b *Browser) locate(page playwright.Page, id string) (playwright.Locator, error) {
	target := page.Locator(elementSelector(id))
	err := target.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(elementWaitTimeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, ErrNoSuchElement
		}
		return nil, fmt.Errorf("failed to locate element %s: %w", id, err)
	}
	return target, nil
}

// ClickID clicks the centre of the element labelled id. When the click opens a
// popup within a second, the popup becomes the current page.
func (b *Browser) ClickID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := b.current()
	target, err := b.locate(page, id)
	if err != nil {
		return err
	}

	box, err := target.BoundingBox()
	if err != nil {
		return fmt.Errorf("failed to measure element %s: %w", id, err)
	}
	if box == nil {
		return ErrNoSuchElement
	}
	x := box.X + box.Width/2
	y := box.Y + box.Height/2

	var clickErr error
	popup, err := page.ExpectPopup(func() error {
		clickErr = page.Mouse().Click(x, y)
		return clickErr
	}, playwright.PageExpectPopupOptions{
		Timeout: playwright.Float(float64(popupTimeout.Milliseconds())),
	})
	if clickErr != nil {
		return fmt.Errorf("click on element %s failed: %w", id, clickErr)
	}
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil
		}
		b.logger.Debugf("waiting for popup after click failed: %v", err)
		return nil
	}
	return b.adoptPage(ctx, popup)
}

// FillID focuses the element labelled id, replaces its value and presses Enter.
func (b *Browser) FillID(ctx context.Context, id, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := b.current()
	target, err := b.locate(page, id)
	if err != nil {
		return err
	}

	if err := target.Focus(); err != nil {
		return fmt.Errorf("failed to focus element %s: %w", id, err)
	}
	if err := target.Fill(value); err != nil {
		return fmt.Errorf("failed to fill element %s: %w", id, err)
	}
	if err := page.Keyboard().Press("Enter"); err != nil {
		return fmt.Errorf("failed to submit element %s: %w", id, err)
	}
	return nil
}

// ScrollID scrolls the element labelled id by its client height, clamped to its scroll range.
func (b *Browser) ScrollID(ctx context.Context, id string, direction ScrollDirection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.current().Evaluate(scrollElementScript, []interface{}{id, string(direction)}); err != nil {
		return fmt.Errorf("scroll of element %s failed: %w", id, err)
	}
	return nil
}

// injectScript evaluates the page script on the current document. Pages that
// loaded before the init script was registered still get the helpers this way.
func (b *Browser) injectScript(page playwright.Page) {
	if _, err := page.Evaluate(pageScript); err != nil {
		b.logger.Debugf("page script injection failed: %v", err)
	}
}

// evaluateInto runs expression after injecting the page script and decodes the result into out.
func (b *Browser) evaluateInto(ctx context.Context, expression string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := b.current()
	b.injectScript(page)
	result, err := page.Evaluate(expression)
	if err != nil {
		return fmt.Errorf("failed to evaluate %s: %w", expression, err)
	}
	return decodeResult(result, out)
}

// decodeResult converts a loosely typed evaluation result into out.
func decodeResult(result interface{}, out interface{}) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return nil
}

// InteractiveRects returns the labelled interactive regions of the current page, keyed by element id.
func (b *Browser) InteractiveRects(ctx context.Context) (map[string]InteractiveRegion, error) {
	rects := map[string]InteractiveRegion{}
	if err := b.evaluateInto(ctx, "SurferPage.getInteractiveRects();", &rects); err != nil {
		return nil, err
	}
	return rects, nil
}

// VisualViewport returns the viewport geometry of the current page.
func (b *Browser) VisualViewport(ctx context.Context) (VisualViewport, error) {
	var vv VisualViewport
	if err := b.evaluateInto(ctx, "SurferPage.getVisualViewport();", &vv); err != nil {
		return VisualViewport{}, err
	}
	return vv, nil
}

// FocusedElementID returns the id of the labelled element holding focus, or "" when none does.
func (b *Browser) FocusedElementID(ctx context.Context) (string, error) {
	var id *string
	if err := b.evaluateInto(ctx, "SurferPage.getFocusedElementId();", &id); err != nil {
		return "", err
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

// Screenshot captures the current viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := b.current().Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return png, nil
}

// Title returns the document title of the current page.
func (b *Browser) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.current().Title()
}

// URL returns the URL of the current page.
func (b *Browser) URL() string {
	return b.current().URL()
}

// HTML returns the serialized document of the current page.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := b.current().Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// Cookies returns the cookies of the browser context.
func (b *Browser) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := b.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// WaitForLoad waits for the current page's load event.
func (b *Browser) WaitForLoad(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.current().WaitForLoadState(); err != nil {
		return fmt.Errorf("wait for load failed: %w", err)
	}
	return nil
}

// Close tears down the page, context, browser and Playwright driver.
func (b *Browser) Close() error {
	var errs []error
	if page := b.current(); page != nil {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
