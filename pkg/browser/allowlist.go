package browser

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const blankURL = "about:blank"

// AllowList decides which URLs the browser may load.
//
// An entry matches a URL it prefixes. An entry containing glob
// metacharacters (*, ?, [ or {) is instead compiled as a glob that must match
// the whole URL. An empty list allows everything. about:blank is always allowed.
type AllowList struct {
	prefixes []string
	globs    []glob.Glob
}

// NewAllowList compiles the given entries. Blank entries are ignored.
func NewAllowList(entries []string) (*AllowList, error) {
	a := &AllowList{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.ContainsAny(entry, "*?[{") {
			a.prefixes = append(a.prefixes, entry)
			continue
		}
		g, err := glob.Compile(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allow list pattern %q: %w", entry, err)
		}
		a.globs = append(a.globs, g)
	}
	return a, nil
}

// Allowed reports whether url may be loaded. A nil list allows everything.
func (a *AllowList) Allowed(url string) bool {
	if url == blankURL || a.IsEmpty() {
		return true
	}
	for _, p := range a.prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	for _, g := range a.globs {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the list has no entries.
func (a *AllowList) IsEmpty() bool {
	return a == nil || (len(a.prefixes) == 0 && len(a.globs) == 0)
}
