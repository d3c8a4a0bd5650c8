package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowListEmptyAllowsAll(t *testing.T) {
	var nilList *AllowList
	assert.True(t, nilList.Allowed("https://example.com/"))
	assert.True(t, nilList.IsEmpty())

	empty, err := NewAllowList([]string{"", "  "})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Allowed("https://anything.test/path"))
}

func TestAllowListPrefixAndGlob(t *testing.T) {
	list, err := NewAllowList([]string{
		"https://www.bing.com/",
		"https://*.wikipedia.org/*",
	})
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.bing.com/", true},
		{"https://www.bing.com/search?q=go&FORM=QBLH", true},
		{"https://en.wikipedia.org/wiki/Go_(programming_language)", true},
		{"https://wikipedia.org.evil.test/", false},
		{"https://example.com/", false},
		{"http://www.bing.com/", false},
		{"about:blank", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, list.Allowed(tt.url))
		})
	}
}
