package embedding

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Common encoding names
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo, text-embedding-3-*
	EncodingP50kBase   = "p50k_base"   // Codex models, text-davinci-002/003
	EncodingR50kBase   = "r50k_base"   // GPT-3 models like davinci
	EncodingO200kBase  = "o200k_base"  // GPT-4o models
)

// Model to encoding mapping
var modelEncodingMap = map[string]string{
	"text-embedding-ada-002": EncodingCL100kBase,
	"text-embedding-3-small": EncodingCL100kBase,
	"text-embedding-3-large": EncodingCL100kBase,
	"gpt-4o":                 EncodingO200kBase,
	"gpt-4o-mini":            EncodingO200kBase,
	"gpt-4":                  EncodingCL100kBase,
	"gpt-3.5-turbo":          EncodingCL100kBase,
}

// GetEncodingForModel returns the encoding name for a given model.
// Returns cl100k_base as default if model is not found.
func GetEncodingForModel(model string) string {
	if enc, ok := modelEncodingMap[model]; ok {
		return enc
	}
	return EncodingCL100kBase
}

// TokenCounter is an interface for counting tokens.
type TokenCounter interface {
	CountTokens(text string) int
}

// TokenTruncator extends TokenCounter with the ability to cut text down
// to a token budget.
type TokenTruncator interface {
	TokenCounter
	Truncate(text string, maxTokens int) string
}

// TikTokenCounter counts and truncates tokens using OpenAI's tiktoken.
type TikTokenCounter struct {
	encoding     *tiktoken.Tiktoken
	encodingName string
}

// NewTikTokenCounter creates a counter using a specific encoding.
func NewTikTokenCounter(encodingName string) (*TikTokenCounter, error) {
	if encodingName == "" {
		encodingName = EncodingCL100kBase
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	return &TikTokenCounter{
		encoding:     enc,
		encodingName: encodingName,
	}, nil
}

// NewTikTokenCounterForModel creates a counter using the encoding of the given model.
func NewTikTokenCounterForModel(model string) (*TikTokenCounter, error) {
	return NewTikTokenCounter(GetEncodingForModel(model))
}

// CountTokens returns the number of tokens in the text.
func (t *TikTokenCounter) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Truncate returns the text cut down to at most maxTokens tokens.
func (t *TikTokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	tokenIDs := t.encoding.Encode(text, nil, nil)
	if len(tokenIDs) <= maxTokens {
		return text
	}
	return t.encoding.Decode(tokenIDs[:maxTokens])
}

// EncodingName returns the encoding name.
func (t *TikTokenCounter) EncodingName() string {
	return t.encodingName
}

// Global default counter (lazy initialized)
var (
	defaultCounter     *TikTokenCounter
	defaultCounterOnce sync.Once
	defaultCounterErr  error
)

// DefaultTokenCounter returns a shared default counter using cl100k_base encoding.
// This is safe for concurrent use.
func DefaultTokenCounter() (*TikTokenCounter, error) {
	defaultCounterOnce.Do(func() {
		defaultCounter, defaultCounterErr = NewTikTokenCounter(EncodingCL100kBase)
	})
	return defaultCounter, defaultCounterErr
}

// Ensure TikTokenCounter implements the interfaces.
var _ TokenCounter = (*TikTokenCounter)(nil)
var _ TokenTruncator = (*TikTokenCounter)(nil)
