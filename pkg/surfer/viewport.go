package surfer

import (
	"strconv"

	"github.com/entrhq/surfer/pkg/browser"
)

// viewportPosition summarises how much of the page is visible and where the
// viewport sits.
type viewportPosition struct {
	PercentVisible  int
	PercentScrolled int
	Text            string
}

func describeViewport(vp browser.VisualViewport) viewportPosition {
	// An empty document reports no scroll height; treat it as fully visible.
	if vp.ScrollHeight <= 0 {
		return viewportPosition{PercentVisible: 100, Text: "at the top of the page"}
	}

	p := viewportPosition{
		PercentVisible:  int(vp.Height * 100 / vp.ScrollHeight),
		PercentScrolled: int(vp.PageTop * 100 / vp.ScrollHeight),
	}
	switch {
	case p.PercentScrolled < 1:
		p.Text = "at the top of the page"
	case p.PercentScrolled+p.PercentVisible >= 99:
		p.Text = "at the bottom of the page"
	default:
		p.Text = strconv.Itoa(p.PercentScrolled) + "% down from the top of the page"
	}
	return p
}
