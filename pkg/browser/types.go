package browser

import (
	"errors"
	"time"

	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/logging"
	"github.com/entrhq/surfer/pkg/metrics"
)

// Supported browser channels.
const (
	ChannelChromium = "chromium"
	ChannelFirefox  = "firefox"
)

// Default values for a browser launch.
const (
	DefaultChannel        = ChannelChromium
	DefaultStartPage      = "https://www.bing.com/"
	DefaultViewportWidth  = 1440
	DefaultViewportHeight = 900
	DefaultTimeout        = 30 * time.Second

	// DefaultUserAgent is sent by non-persistent contexts.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0"

	// scrollMargin keeps some overlap between consecutive pages when scrolling.
	scrollMargin = 50

	elementWaitTimeout = 100 * time.Millisecond
	popupTimeout       = time.Second
	launchSettle       = time.Second
	popupSettle        = 200 * time.Millisecond
)

// ErrNoSuchElement is returned when an element id is not present on the page.
// Its message is shown to the model verbatim.
var ErrNoSuchElement = errors.New("No such element.")

// Options configures a browser launch.
type Options struct {
	// Channel selects the engine: "chromium" (default) or "firefox".
	Channel string

	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// DataDir, when set, launches a persistent context rooted at this directory.
	DataDir string

	// StartPage is loaded at launch and on reset.
	StartPage string

	// UserAgent overrides the user agent of non-persistent contexts.
	UserAgent string

	// ViewportWidth and ViewportHeight size every page.
	ViewportWidth  int
	ViewportHeight int

	// AllowList restricts navigation. Nil allows everything.
	AllowList *AllowList

	// Timeout is the default timeout of page operations.
	Timeout time.Duration

	// Events receives network traffic events. Nil disables them.
	Events eventlog.Logger

	// Metrics counts blocked navigations. Nil disables it.
	Metrics *metrics.Collector

	// Logger receives diagnostic output. Nil uses a component logger.
	Logger *logging.Logger

	// OnNewPage is called with the URL of a popup that became the current page.
	OnNewPage func(url string)
}

func (o *Options) setDefaults() {
	if o.Channel == "" {
		o.Channel = DefaultChannel
	}
	if o.StartPage == "" {
		o.StartPage = DefaultStartPage
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Events == nil {
		o.Events = eventlog.Nop{}
	}
}

// Rect is a DOMRect as reported by getClientRects.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// InteractiveRegion describes one labelled interactive element.
type InteractiveRegion struct {
	TagName     string `json:"tag_name"`
	Role        string `json:"role"`
	AriaName    string `json:"aria-name"`
	VScrollable bool   `json:"v-scrollable"`
	Rects       []Rect `json:"rects"`
}

// VisualViewport reports the visible part of the page and the document's scroll extent.
type VisualViewport struct {
	Height       float64 `json:"height"`
	Width        float64 `json:"width"`
	OffsetLeft   float64 `json:"offsetLeft"`
	OffsetTop    float64 `json:"offsetTop"`
	PageLeft     float64 `json:"pageLeft"`
	PageTop      float64 `json:"pageTop"`
	Scale        float64 `json:"scale"`
	ClientWidth  float64 `json:"clientWidth"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollWidth  float64 `json:"scrollWidth"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// Cookie is a browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// ScrollDirection is the direction of an element scroll.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)
