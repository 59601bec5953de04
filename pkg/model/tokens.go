package model

import (
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates token usage for context-window budgeting.
type TokenCounter interface {
	// Count returns the token count for the given text.
	Count(text string) int
}

// heuristicCharsPerToken is the approximation used when no tokenizer is
// available: roughly four characters per token for English text.
const heuristicCharsPerToken = 4

// HeuristicCounter approximates token counts by character length.
type HeuristicCounter struct{}

// Count implements TokenCounter.
func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / heuristicCharsPerToken
	if n == 0 {
		n = 1
	}
	return n
}

// TiktokenCounter counts tokens with a tiktoken codec matched to the
// model in use.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter creates a counter for the named model.
// Falls back to the cl100k_base encoding when the model is unknown.
func NewTiktokenCounter(modelName string) (*TiktokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(modelName))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenCounter{codec: codec}, nil
}

// Count implements TokenCounter.
// Falls back to the character heuristic if encoding fails.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	toks, _, err := c.codec.Encode(text)
	if err != nil {
		return HeuristicCounter{}.Count(text)
	}
	return len(toks)
}

// NewTokenCounter returns the best available counter for the model:
// tiktoken when a codec can be initialized, the character heuristic
// otherwise.
func NewTokenCounter(modelName string) TokenCounter {
	if c, err := NewTiktokenCounter(modelName); err == nil {
		return c
	}
	return HeuristicCounter{}
}
