package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

// highlighter colours JSON tool arguments. Output is plain when the
// writer is not a terminal.
type highlighter struct {
	key, str, num, punct, plain lipgloss.Style
}

func newHighlighter(w io.Writer) *highlighter {
	r := lipgloss.NewRenderer(w)
	return &highlighter{
		key:   r.NewStyle().Foreground(lipgloss.Color("4")),
		str:   r.NewStyle().Foreground(lipgloss.Color("2")),
		num:   r.NewStyle().Foreground(lipgloss.Color("3")),
		punct: r.NewStyle().Faint(true),
		plain: r.NewStyle(),
	}
}

// arguments renders tool input as indented, highlighted JSON.
func (h *highlighter) arguments(input map[string]interface{}) string {
	if len(input) == 0 {
		return "{}"
	}
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return ""
	}
	return h.json(string(data))
}

func (h *highlighter) json(code string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	iter, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var b strings.Builder
	for token := iter(); token != chroma.EOF; token = iter() {
		if token.Value == "" {
			continue
		}
		b.WriteString(h.styleFor(token.Type).Render(token.Value))
	}
	return b.String()
}

func (h *highlighter) styleFor(t chroma.TokenType) lipgloss.Style {
	switch {
	case t == chroma.NameTag, t.InCategory(chroma.NameAttribute):
		return h.key
	case t.InCategory(chroma.LiteralString):
		return h.str
	case t.InCategory(chroma.LiteralNumber), t.InCategory(chroma.Keyword):
		return h.num
	case t.InCategory(chroma.Punctuation):
		return h.punct
	}
	return h.plain
}
