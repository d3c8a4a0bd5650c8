package surfer

import (
	"context"

	"github.com/entrhq/surfer/pkg/browser"
)

// Page is the browser surface the surfer drives. *browser.Browser implements it.
type Page interface {
	InteractiveRects(ctx context.Context) (map[string]browser.InteractiveRegion, error)
	VisualViewport(ctx context.Context) (browser.VisualViewport, error)
	FocusedElementID(ctx context.Context) (string, error)

	Screenshot(ctx context.Context) ([]byte, error)
	Title(ctx context.Context) (string, error)
	URL() string
	HTML(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]browser.Cookie, error)

	Visit(ctx context.Context, url string) error
	Back(ctx context.Context) error
	PageUp(ctx context.Context) error
	PageDown(ctx context.Context) error
	ClickID(ctx context.Context, id string) error
	FillID(ctx context.Context, id, value string) error
	ScrollID(ctx context.Context, id string, direction browser.ScrollDirection) error
	WaitForLoad(ctx context.Context) error

	// Allowed reports whether navigation to url would be permitted.
	Allowed(url string) bool

	// StartPage is where Reset returns to.
	StartPage() string
}

var _ Page = (*browser.Browser)(nil)
