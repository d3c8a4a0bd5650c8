package surfer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/surfer/pkg/llm"
	"github.com/entrhq/surfer/pkg/llm/tokenizer"
	"github.com/entrhq/surfer/pkg/som"
	"github.com/entrhq/surfer/pkg/types"
)

const (
	nothingToSummarize = "Nothing to summarize."

	summarySystemPrompt = "You are a helpful assistant that can summarize long documents to answer question."

	summaryIntro = "We are visiting the webpage '%s'. Its full-text contents are pasted below, along with a screenshot of the page's current viewport."
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// splitLines splits text on runs of line breaks, keeping each run as its own piece.
func splitLines(text string) []string {
	var pieces []string
	last := 0
	for _, loc := range lineBreaks.FindAllStringIndex(text, -1) {
		pieces = append(pieces, text[last:loc[0]], text[loc[0]:loc[1]])
		last = loc[1]
	}
	return append(pieces, text[last:])
}

// truncateToTokens keeps whole lines of text while the token count of the kept
// text, including the next line, plus the summary reserve stays within limit.
//
// Recounting the whole buffer per line is quadratic, so an upper bound
// (last exact count plus each later piece and one token per boundary) is used
// until it no longer fits; only then is the buffer counted exactly.
func truncateToTokens(text string, tok *tokenizer.Tokenizer, limit int) string {
	var b strings.Builder
	bound := 0
	for _, piece := range splitLines(text) {
		next := bound + tok.Count(piece) + 1
		if next+summaryReserve > limit {
			next = tok.Count(b.String() + piece)
			if next+summaryReserve > limit {
				break
			}
		}
		b.WriteString(piece)
		bound = next
	}
	return strings.TrimSpace(b.String())
}

func summaryPrompt(title, question, body string) string {
	prompt := fmt.Sprintf(summaryIntro, title)
	if question != "" {
		return prompt + fmt.Sprintf(" Please summarize the webpage into one or two paragraphs with respect to '%s':\n\n%s", question, body)
	}
	return prompt + fmt.Sprintf(" Please summarize the webpage into one or two paragraphs:\n\n%s", body)
}

// summarizePage asks the summary model to condense the page, optionally with
// respect to question, and returns its answer.
func (s *Surfer) summarizePage(ctx context.Context, t *turn, question string) (string, error) {
	html, err := s.page.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	pageURL := s.page.URL()
	doc, err := s.converter.Convert(html, pageURL)
	if err != nil {
		return "", err
	}

	body := truncateToTokens(doc.Text, s.tokenizer, s.summaryTokenLimit)
	if body == "" {
		return nothingToSummarize, nil
	}

	title := pageURL
	if pageTitle, err := s.page.Title(ctx); err == nil && pageTitle != "" {
		title = pageTitle
	}

	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	img, err := som.Decode(shot)
	if err != nil {
		return "", err
	}
	scaled, err := som.EncodePNG(som.Scale(img, som.ModelWidth, som.ModelHeight))
	if err != nil {
		return "", err
	}

	messages := []*types.Message{
		types.NewSystemMessage(summarySystemPrompt),
		types.NewMultimodalMessage(types.RoleUser, summaryPrompt(title, question, body), scaled),
	}
	response, err := s.complete(ctx, t, s.summaryProvider, messages, llm.CompletionOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return "", err
	}
	return response.Content, nil
}
