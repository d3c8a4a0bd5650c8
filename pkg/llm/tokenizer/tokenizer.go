// Package tokenizer counts tokens the way the OpenAI models do, so prompts can be
// trimmed to fit a model's context window before they are sent.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is used for models tiktoken does not know.
	DefaultEncoding = "cl100k_base"

	// charsPerToken is the heuristic used when no encoding can be loaded.
	charsPerToken = 4
)

// Tokenizer counts tokens for a model.
type Tokenizer struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// New creates a tokenizer using the default encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// ForModel creates a tokenizer using the encoding tiktoken maps to model,
// falling back to the default encoding for unknown models.
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return New()
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text. A nil tokenizer estimates.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return Estimate(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Estimate approximates a token count without an encoding: one token per four
// bytes, rounded down.
func Estimate(text string) int {
	return len(text) / charsPerToken
}
