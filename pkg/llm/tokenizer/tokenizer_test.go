package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 0, Estimate("abc"))
	assert.Equal(t, 1, Estimate("abcd"))
	assert.Equal(t, 1, Estimate("abcde"))
	assert.Equal(t, 2, Estimate("ab\ncd\nef"))
}

func TestNilTokenizerEstimates(t *testing.T) {
	var tok *Tokenizer
	assert.Equal(t, Estimate("hello world"), tok.Count("hello world"))
	assert.Equal(t, 0, tok.Count(""))
}

func TestCountMonotonic(t *testing.T) {
	// Loading an encoding can require network access; either path must hold these properties.
	tok, err := New()
	if err != nil {
		t.Logf("Tokenizer initialization failed (expected in some environments): %v", err)
		tok = nil
	}

	short := tok.Count("The quick brown fox")
	long := tok.Count(strings.Repeat("The quick brown fox ", 50))

	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestForModelFallsBack(t *testing.T) {
	tok, err := ForModel("definitely-not-a-model")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	assert.NotNil(t, tok)
	assert.Greater(t, tok.Count("hello"), 0)
}
