package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

const defaultEncoding = "cl100k_base"

// Counter counts tokens with tiktoken and falls back to a rune heuristic when the
// encoding cannot be loaded.
type Counter struct {
	name string
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter returns a counter for the model's encoding.
func NewCounter(model string) *Counter {
	name := defaultEncoding
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		name = enc
	}
	return &Counter{name: name}
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.name)
		if err == nil {
			c.enc = enc
		}
	})
	return c.enc
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

// Truncate cuts text to at most maxTokens tokens.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if enc := c.encoding(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return enc.Decode(tokens[:maxTokens])
	}
	runes := []rune(text)
	if limit := maxTokens * 4; limit < len(runes) {
		return string(runes[:limit])
	}
	return text
}

func estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); n < words {
		n = words
	}
	return n
}

var _ analysis.TokenCounter = (*Counter)(nil)
