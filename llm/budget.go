package llm

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenBudget truncates prompt context to a maximum token count so that a
// large accumulated context (provider lists, scraped alternatives text) cannot
// blow past the model's window.
type TokenBudget struct {
	enc *tiktoken.Tiktoken
}

// NewTokenBudget resolves an encoding by model name, falling back to treating
// the name as an encoding name directly.
func NewTokenBudget(model string) (*TokenBudget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(model)
		if err != nil {
			return nil, err
		}
	}
	return &TokenBudget{enc: enc}, nil
}

// Count returns the token count of text.
func (b *TokenBudget) Count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// Trim returns text cut to at most max tokens. Text within budget is returned
// unchanged.
func (b *TokenBudget) Trim(text string, max int) string {
	if max <= 0 {
		return ""
	}
	ids := b.enc.Encode(text, nil, nil)
	if len(ids) <= max {
		return text
	}
	return b.enc.Decode(ids[:max])
}
