package textsplitter

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/aqua777/go-vectorstores/embedding"
)

// SimpleTokenizer tokenizes text by splitting on whitespace.
type SimpleTokenizer struct{}

func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

func (t *SimpleTokenizer) Encode(text string) []string {
	return strings.Fields(text)
}

// TiktokenTokenizer tokenizes text using OpenAI's tiktoken. Encode returns
// the token IDs in decimal string form, which is enough for the splitters
// since they only measure length; EncodeToIDs and Decode expose the raw IDs.
type TiktokenTokenizer struct {
	encoding     *tiktoken.Tiktoken
	encodingName string
}

// NewTiktokenTokenizer creates a tokenizer for the given encoding name.
// An empty name selects cl100k_base.
func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	if encodingName == "" {
		encodingName = embedding.EncodingCL100kBase
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	return &TiktokenTokenizer{encoding: enc, encodingName: encodingName}, nil
}

// NewTiktokenTokenizerForModel creates a tokenizer using the encoding of the
// given model, falling back to cl100k_base for unknown models.
func NewTiktokenTokenizerForModel(model string) (*TiktokenTokenizer, error) {
	return NewTiktokenTokenizer(embedding.GetEncodingForModel(model))
}

// Encode tokenizes text and returns the token IDs as strings.
func (t *TiktokenTokenizer) Encode(text string) []string {
	ids := t.encoding.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = strconv.Itoa(id)
	}
	return tokens
}

// EncodeToIDs returns the raw token IDs.
func (t *TiktokenTokenizer) EncodeToIDs(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode converts token IDs back to text.
func (t *TiktokenTokenizer) Decode(tokenIDs []int) string {
	return t.encoding.Decode(tokenIDs)
}

// CountTokens returns the number of tokens in the text.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// EncodingName returns the encoding name.
func (t *TiktokenTokenizer) EncodingName() string {
	return t.encodingName
}

// Shared default tokenizer (lazy initialized)
var (
	defaultTokenizer     *TiktokenTokenizer
	defaultTokenizerOnce sync.Once
	defaultTokenizerErr  error
)

// DefaultTokenizer returns a shared tokenizer using cl100k_base encoding.
// This is safe for concurrent use.
func DefaultTokenizer() (*TiktokenTokenizer, error) {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer, defaultTokenizerErr = NewTiktokenTokenizer(embedding.EncodingCL100kBase)
	})
	return defaultTokenizer, defaultTokenizerErr
}

// MustDefaultTokenizer returns the shared default tokenizer or panics when
// it cannot be constructed.
func MustDefaultTokenizer() *TiktokenTokenizer {
	tok, err := DefaultTokenizer()
	if err != nil {
		panic(fmt.Sprintf("failed to create default tokenizer: %v", err))
	}
	return tok
}

var _ Tokenizer = (*SimpleTokenizer)(nil)
var _ Tokenizer = (*TiktokenTokenizer)(nil)
var _ embedding.TokenCounter = (*TiktokenTokenizer)(nil)
