package textsplitter

import (
	"fmt"
	"strings"
)

// TokenTextSplitter splits text based on token count rather than character
// count. Useful when chunks must respect a model's token limit.
type TokenTextSplitter struct {
	// ChunkSize is the maximum number of tokens per chunk.
	ChunkSize int
	// ChunkOverlap is the number of overlapping tokens between chunks.
	ChunkOverlap int
	// Tokenizer is used to count tokens. Defaults to SimpleTokenizer.
	Tokenizer Tokenizer
	// Separator is used to split text into initial segments. Defaults to " ".
	Separator string
	// KeepSeparator determines if separators are kept in the output.
	KeepSeparator bool
}

// NewTokenTextSplitter creates a new TokenTextSplitter with default settings.
func NewTokenTextSplitter(chunkSize, chunkOverlap int) *TokenTextSplitter {
	return NewTokenTextSplitterWithTokenizer(chunkSize, chunkOverlap, nil)
}

// NewTokenTextSplitterWithTokenizer creates a TokenTextSplitter with a
// custom tokenizer.
func NewTokenTextSplitterWithTokenizer(chunkSize, chunkOverlap int, tokenizer Tokenizer) *TokenTextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if tokenizer == nil {
		tokenizer = NewSimpleTokenizer()
	}
	return &TokenTextSplitter{
		ChunkSize:     chunkSize,
		ChunkOverlap:  chunkOverlap,
		Tokenizer:     tokenizer,
		Separator:     " ",
		KeepSeparator: false,
	}
}

// NewTokenTextSplitterWithValidation creates a TokenTextSplitter after
// checking the chunk parameters. Unlike NewTokenTextSplitter it does not
// substitute defaults for invalid values.
func NewTokenTextSplitterWithValidation(chunkSize, chunkOverlap int, tokenizer Tokenizer) (*TokenTextSplitter, error) {
	if err := validateChunkParams(chunkSize, chunkOverlap); err != nil {
		return nil, fmt.Errorf("invalid token splitter config: %w", err)
	}
	return NewTokenTextSplitterWithTokenizer(chunkSize, chunkOverlap, tokenizer), nil
}

// Validate checks the current splitter configuration.
func (s *TokenTextSplitter) Validate() error {
	return validateChunkParams(s.ChunkSize, s.ChunkOverlap)
}

// WithSeparator sets a custom separator.
func (s *TokenTextSplitter) WithSeparator(sep string) *TokenTextSplitter {
	s.Separator = sep
	return s
}

// WithKeepSeparator sets whether to keep separators.
func (s *TokenTextSplitter) WithKeepSeparator(keep bool) *TokenTextSplitter {
	s.KeepSeparator = keep
	return s
}

// SplitText splits text into chunks based on token count.
func (s *TokenTextSplitter) SplitText(text string) []string {
	if text == "" {
		return []string{}
	}

	var splits []string
	if s.Separator != "" {
		if s.KeepSeparator {
			splits = SplitTextKeepSeparator(text, s.Separator)
		} else {
			splits = strings.Split(text, s.Separator)
		}
	} else {
		splits = []string{text}
	}

	var filteredSplits []string
	for _, split := range splits {
		if split != "" {
			filteredSplits = append(filteredSplits, split)
		}
	}

	return s.mergeSplits(filteredSplits)
}

// mergeSplits merges splits into chunks respecting token limits.
func (s *TokenTextSplitter) mergeSplits(splits []string) []string {
	var chunks []string
	var currentChunk []string
	currentTokens := 0

	separator := s.Separator
	if s.KeepSeparator {
		separator = ""
	}
	sepTokens := s.tokenLength(separator)

	for _, split := range splits {
		splitTokens := s.tokenLength(split)

		// A split that alone exceeds the budget is carved up on its own.
		if splitTokens > s.ChunkSize {
			if len(currentChunk) > 0 {
				chunks = append(chunks, s.joinChunk(currentChunk, separator))
				currentChunk = nil
				currentTokens = 0
			}
			chunks = append(chunks, s.splitOversized(split)...)
			continue
		}

		newTokens := currentTokens + splitTokens
		if len(currentChunk) > 0 {
			newTokens += sepTokens
		}

		if newTokens > s.ChunkSize && len(currentChunk) > 0 {
			chunks = append(chunks, s.joinChunk(currentChunk, separator))
			currentChunk, currentTokens = s.getOverlapChunk(currentChunk, separator)
		}

		currentChunk = append(currentChunk, split)
		currentTokens = s.tokenLength(s.joinChunk(currentChunk, separator))
	}

	if len(currentChunk) > 0 {
		chunks = append(chunks, s.joinChunk(currentChunk, separator))
	}

	return s.postProcess(chunks)
}

// splitOversized cuts a single oversized piece into chunks. The tokenizer
// gives positions, the text is sliced proportionally to them, so chunk
// boundaries are approximate.
func (s *TokenTextSplitter) splitOversized(text string) []string {
	tokens := s.Tokenizer.Encode(text)
	var chunks []string

	step := s.ChunkSize - s.ChunkOverlap
	if step < 1 {
		step = 1
	}

	for i := 0; i < len(tokens); i += step {
		end := i + s.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		startChar := int(float64(i) / float64(len(tokens)) * float64(len(text)))
		endChar := int(float64(end) / float64(len(tokens)) * float64(len(text)))
		if endChar > len(text) {
			endChar = len(text)
		}

		if chunk := strings.TrimSpace(text[startChar:endChar]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(tokens) {
			break
		}
	}

	return chunks
}

// getOverlapChunk returns the overlap portion of the current chunk.
func (s *TokenTextSplitter) getOverlapChunk(chunk []string, separator string) ([]string, int) {
	if s.ChunkOverlap <= 0 || len(chunk) == 0 {
		return nil, 0
	}

	var overlapChunk []string
	overlapTokens := 0

	for i := len(chunk) - 1; i >= 0; i-- {
		part := chunk[i]
		partTokens := s.tokenLength(part)

		if overlapTokens+partTokens > s.ChunkOverlap {
			break
		}

		overlapChunk = append([]string{part}, overlapChunk...)
		overlapTokens += partTokens
		if len(overlapChunk) > 1 {
			overlapTokens += s.tokenLength(separator)
		}
	}

	return overlapChunk, overlapTokens
}

// joinChunk joins chunk parts with separator.
func (s *TokenTextSplitter) joinChunk(parts []string, separator string) string {
	return strings.Join(parts, separator)
}

// tokenLength returns the token count for text.
func (s *TokenTextSplitter) tokenLength(text string) int {
	return len(s.Tokenizer.Encode(text))
}

// postProcess cleans up chunks.
func (s *TokenTextSplitter) postProcess(chunks []string) []string {
	var result []string
	for _, chunk := range chunks {
		trimmed := strings.TrimSpace(chunk)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// SplitTextMetadataAware splits text accounting for metadata token usage.
func (s *TokenTextSplitter) SplitTextMetadataAware(text string, metadata string) []string {
	effectiveChunkSize := s.ChunkSize - s.tokenLength(metadata)
	if effectiveChunkSize < 1 {
		effectiveChunkSize = 1
	}

	reduced := *s
	reduced.ChunkSize = effectiveChunkSize
	return reduced.SplitText(text)
}
