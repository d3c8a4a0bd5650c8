// Package markdown converts a page's HTML into plain markdown text so it can be
// handed to a language model for summarization.
//
// The conversion covers the structure that matters for reading a page:
// headings, paragraphs, lists, links, emphasis, code, quotes, tables and image
// alt text. Scripts, styles and embedded content are dropped.
package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Result is the outcome of a conversion.
type Result struct {
	// Title is the document title, if any.
	Title string

	// Text is the markdown rendering of the document body.
	Text string
}

// Converter turns HTML into markdown.
type Converter struct {
	// KeepImages renders images as ![alt](src) instead of their alt text alone.
	KeepImages bool
}

// NewConverter returns a converter with default settings.
func NewConverter() *Converter {
	return &Converter{KeepImages: true}
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
	listItemIndent = regexp.MustCompile(`^ +(- |\d+\. )`)
)

// Convert renders rawHTML as markdown. Relative links are resolved against pageURL.
func (c *Converter) Convert(rawHTML, pageURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(whitespaceRun.ReplaceAllString(doc.Find("title").First().Text(), " "))
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if resolved, err := base.Parse(href); err == nil {
			base = resolved
		}
	}

	doc.Find("script, style, noscript, iframe, embed, object, svg, template, head, input, select, textarea, button").Remove()

	r := &renderer{base: base, keepImages: c.KeepImages}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var b strings.Builder
	for _, n := range root.Nodes {
		b.WriteString(r.children(n))
	}

	return &Result{Title: title, Text: normalize(b.String())}, nil
}

// normalize trims trailing whitespace, strips stray indentation outside lists
// and code fences, and collapses runs of blank lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if inFence {
			continue
		}
		line = strings.TrimRight(line, " \t")
		if !listItemIndent.MatchString(line) {
			line = strings.TrimLeft(line, " \t")
		}
		lines[i] = line
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

type renderer struct {
	base       *url.URL
	keepImages bool
	listDepth  int
	inPre      bool
}

func (r *renderer) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(r.node(c))
	}
	return b.String()
}

func (r *renderer) inline(n *html.Node) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(r.children(n), " "))
}

func block(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "\n\n" + s + "\n\n"
}

func (r *renderer) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if r.inPre {
			return n.Data
		}
		return whitespaceRun.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
		return r.element(n)
	case html.DocumentNode:
		return r.children(n)
	default:
		return ""
	}
}

func (r *renderer) element(n *html.Node) string {
	tag := strings.ToLower(n.Data)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(tag[1:])
		text := r.inline(n)
		if text == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n"

	case "p", "div", "section", "article", "main", "header", "footer", "nav", "aside", "form", "fieldset", "figure", "figcaption", "dl", "dd", "dt", "details", "summary":
		return block(r.children(n))

	case "br":
		return "\n"

	case "hr":
		return "\n\n---\n\n"

	case "a":
		return r.link(n)

	case "strong", "b":
		return wrap(r.children(n), "**")

	case "em", "i":
		return wrap(r.children(n), "*")

	case "del", "s", "strike":
		return wrap(r.children(n), "~~")

	case "code", "kbd", "samp":
		if r.inPre {
			return r.children(n)
		}
		return wrap(r.children(n), "`")

	case "pre":
		r.inPre = true
		body := r.children(n)
		r.inPre = false
		body = strings.Trim(body, "\n")
		if strings.TrimSpace(body) == "" {
			return ""
		}
		return "\n\n```\n" + body + "\n```\n\n"

	case "blockquote":
		inner := strings.TrimSpace(normalize(r.children(n)))
		if inner == "" {
			return ""
		}
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight("> "+line, " ")
		}
		return block(strings.Join(lines, "\n"))

	case "ul", "ol":
		return r.list(n, tag == "ol")

	case "li":
		// Only reached for list items outside a list element.
		return block("- " + r.inline(n))

	case "table":
		return r.table(n)

	case "img":
		return r.image(n)

	default:
		return r.children(n)
	}
}

func wrap(s, marker string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	// Keep surrounding spaces outside the markers so emphasis stays valid.
	lead := s[:len(s)-len(strings.TrimLeft(s, " "))]
	trail := s[len(strings.TrimRight(s, " ")):]
	return lead + marker + trimmed + marker + trail
}

func (r *renderer) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if r.base == nil || ref == "" {
		return ref
	}
	u, err := r.base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func (r *renderer) link(n *html.Node) string {
	text := r.inline(n)
	href := strings.TrimSpace(attr(n, "href"))
	if text == "" {
		return ""
	}
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") || strings.HasPrefix(href, "#") {
		return text
	}
	title := attr(n, "title")
	if title != "" {
		return fmt.Sprintf("[%s](%s %q)", text, r.resolve(href), title)
	}
	return fmt.Sprintf("[%s](%s)", text, r.resolve(href))
}

func (r *renderer) image(n *html.Node) string {
	alt := strings.TrimSpace(whitespaceRun.ReplaceAllString(attr(n, "alt"), " "))
	src := strings.TrimSpace(attr(n, "src"))
	if !r.keepImages || src == "" || strings.HasPrefix(src, "data:") {
		return alt
	}
	return fmt.Sprintf("![%s](%s)", alt, r.resolve(src))
}

func (r *renderer) list(n *html.Node, ordered bool) string {
	r.listDepth++
	defer func() { r.listDepth-- }()

	indent := strings.Repeat("  ", r.listDepth-1)
	var b strings.Builder
	index := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || strings.ToLower(c.Data) != "li" {
			continue
		}

		var text, nested strings.Builder
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			if gc.Type == html.ElementNode && (gc.Data == "ul" || gc.Data == "ol") {
				nested.WriteString(r.list(gc, gc.Data == "ol"))
				continue
			}
			text.WriteString(r.node(gc))
		}

		marker := "- "
		if ordered {
			marker = strconv.Itoa(index) + ". "
			index++
		}
		item := strings.TrimSpace(whitespaceRun.ReplaceAllString(text.String(), " "))
		b.WriteString(indent + marker + item + "\n")
		if s := strings.Trim(nested.String(), "\n"); s != "" {
			b.WriteString(s + "\n")
		}
	}

	out := b.String()
	if r.listDepth > 1 {
		return out
	}
	return "\n\n" + strings.TrimRight(out, "\n") + "\n\n"
}

func (r *renderer) table(n *html.Node) string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(c.Data) {
			case "tr":
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						text := r.inline(cell)
						cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			case "table":
				// Nested tables are flattened into the outer one.
				walk(c)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var b strings.Builder
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, width)
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	return block(b.String())
}
