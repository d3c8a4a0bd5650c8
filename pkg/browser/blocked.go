package browser

import (
	"html"
	"strings"
)

// blockedPage renders the page served in place of a blocked HTML navigation.
func blockedPage(startPage string) string {
	home := html.EscapeString(startPage)
	return `<html><body><h1>Navigation Blocked</h1><p>Navigation was blocked by the client. ` +
		`Click the <a href="javascript: history.back()">browser back button</a> to go back, ` +
		`return Home to <a href="` + home + `">` + home + `</a>.</p></body></html>`
}

// isHTML reports whether a response's headers declare an HTML body.
func isHTML(headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "content-type") {
			return strings.Contains(strings.ToLower(v), "html")
		}
	}
	return false
}
