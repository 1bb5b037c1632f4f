package textsplitter

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize     = 1024
	DefaultChunkOverlap  = 200
	DefaultParagraphSep  = "\n\n\n"
	DefaultSeparator     = " "
	DefaultChunkingRegex = `[^,.;。？！]+[,.;。？！]?|[,.;。？！]`
)

// validateChunkParams checks that chunkSize is positive and that
// chunkOverlap is non-negative and smaller than chunkSize.
func validateChunkParams(chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must be non-negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return nil
}

// textSplit holds intermediate split information.
type textSplit struct {
	text      string
	tokenSize int
}

// SentenceSplitter splits text with a preference for complete sentences.
// Text is broken down by paragraph, then sentence, then sub-sentence
// pieces, and the pieces are merged back into chunks of at most ChunkSize
// tokens with up to ChunkOverlap tokens carried over between chunks.
type SentenceSplitter struct {
	ChunkSize              int
	ChunkOverlap           int
	Separator              string
	ParagraphSeparator     string
	SecondaryChunkingRegex string
	Tokenizer              Tokenizer
	SplitterStrategy       SentenceSplitterStrategy

	splitFns            []func(string) []string
	subSentenceSplitFns []func(string) []string
}

// NewSentenceSplitter creates a new SentenceSplitter.
// A chunkSize of 0 or less falls back to DefaultChunkSize. chunkOverlap is
// used as given, so pass DefaultChunkOverlap explicitly to get the default
// overlap. A nil tokenizer falls back to SimpleTokenizer and a nil strategy
// to a RegexSplitterStrategy with DefaultChunkingRegex.
func NewSentenceSplitter(
	chunkSize int,
	chunkOverlap int,
	tokenizer Tokenizer,
	splitterStrategy SentenceSplitterStrategy,
) *SentenceSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if tokenizer == nil {
		tokenizer = NewSimpleTokenizer()
	}

	if splitterStrategy == nil {
		splitterStrategy = NewRegexSplitterStrategy(DefaultChunkingRegex)
	}

	s := &SentenceSplitter{
		ChunkSize:              chunkSize,
		ChunkOverlap:           chunkOverlap,
		Separator:              DefaultSeparator,
		ParagraphSeparator:     DefaultParagraphSep,
		SecondaryChunkingRegex: DefaultChunkingRegex,
		Tokenizer:              tokenizer,
		SplitterStrategy:       splitterStrategy,
	}

	s.initSplitFns()
	return s
}

// NewSentenceSplitterWithValidation creates a SentenceSplitter after
// checking the chunk parameters. Unlike NewSentenceSplitter it does not
// substitute defaults for invalid values.
func NewSentenceSplitterWithValidation(
	chunkSize int,
	chunkOverlap int,
	tokenizer Tokenizer,
	splitterStrategy SentenceSplitterStrategy,
) (*SentenceSplitter, error) {
	if err := validateChunkParams(chunkSize, chunkOverlap); err != nil {
		return nil, fmt.Errorf("invalid sentence splitter config: %w", err)
	}
	return NewSentenceSplitter(chunkSize, chunkOverlap, tokenizer, splitterStrategy), nil
}

// Validate checks the current splitter configuration.
func (s *SentenceSplitter) Validate() error {
	return validateChunkParams(s.ChunkSize, s.ChunkOverlap)
}

func (s *SentenceSplitter) initSplitFns() {
	// Primary splits: paragraphs first, then the sentence strategy.
	s.splitFns = []func(string) []string{
		SplitBySep(s.ParagraphSeparator),
		func(text string) []string { return s.SplitterStrategy.Split(text) },
	}

	// Fallbacks when a single sentence still exceeds the budget: secondary
	// regex, then words, then characters.
	s.subSentenceSplitFns = []func(string) []string{
		SplitByRegex(s.SecondaryChunkingRegex),
		SplitBySep(s.Separator),
		SplitByChar(),
	}
}

// SplitText splits the text into chunks.
func (s *SentenceSplitter) SplitText(text string) []string {
	return s.splitText(text, s.ChunkSize)
}

// SplitTextMetadataAware splits text into chunks, accounting for metadata
// length. Useful when the metadata is serialized into the same context
// window as the chunk.
func (s *SentenceSplitter) SplitTextMetadataAware(text string, metadata string) ([]string, error) {
	metadataLength := s.getTokenSize(metadata)
	effectiveChunkSize := s.ChunkSize - metadataLength
	if effectiveChunkSize < 50 {
		return nil, fmt.Errorf("metadata length (%d) is too large for chunk size (%d), resulting in insufficient content window (< 50)", metadataLength, s.ChunkSize)
	}
	return s.splitText(text, effectiveChunkSize), nil
}

func (s *SentenceSplitter) splitText(text string, chunkSize int) []string {
	if text == "" {
		return []string{text}
	}

	splits := s.split(text, chunkSize)
	chunks := s.merge(splits, chunkSize)
	return s.postprocessChunks(chunks)
}

func (s *SentenceSplitter) split(text string, chunkSize int) []textSplit {
	tokenSize := s.getTokenSize(text)
	if tokenSize <= chunkSize {
		return []textSplit{{text: text, tokenSize: tokenSize}}
	}

	var textSplits []textSplit
	for _, splitStr := range s.getSplitsByFns(text) {
		tokenSize := s.getTokenSize(splitStr)
		if tokenSize <= chunkSize {
			textSplits = append(textSplits, textSplit{text: splitStr, tokenSize: tokenSize})
		} else {
			textSplits = append(textSplits, s.split(splitStr, chunkSize)...)
		}
	}
	return textSplits
}

func (s *SentenceSplitter) merge(splits []textSplit, chunkSize int) []string {
	var chunks []string
	type bufItem struct {
		text string
		len  int
	}
	var curChunk []bufItem
	curChunkLen := 0
	newChunk := true

	closeChunk := func() {
		var sb strings.Builder
		for _, item := range curChunk {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())

		lastChunk := curChunk
		curChunk = nil
		curChunkLen = 0
		newChunk = true

		// Seed the next chunk with up to ChunkOverlap tokens from the tail
		// of the chunk just closed.
		for lastIndex := len(lastChunk) - 1; lastIndex >= 0; lastIndex-- {
			item := lastChunk[lastIndex]
			if curChunkLen+item.len > s.ChunkOverlap {
				break
			}
			curChunkLen += item.len
			curChunk = append([]bufItem{item}, curChunk...)
		}
	}

	splitIdx := 0
	for splitIdx < len(splits) {
		curSplit := splits[splitIdx]

		if curChunkLen+curSplit.tokenSize > chunkSize && !newChunk {
			closeChunk()
			continue
		}

		// A new chunk always takes at least one split, even when that split
		// alone exceeds the budget.
		curChunkLen += curSplit.tokenSize
		curChunk = append(curChunk, bufItem{text: curSplit.text, len: curSplit.tokenSize})
		splitIdx++
		newChunk = false
	}

	if !newChunk {
		var sb strings.Builder
		for _, item := range curChunk {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())
	}

	return chunks
}

func (s *SentenceSplitter) postprocessChunks(chunks []string) []string {
	var newChunks []string
	for _, chunk := range chunks {
		stripped := strings.TrimSpace(chunk)
		if stripped == "" {
			continue
		}
		newChunks = append(newChunks, stripped)
	}
	return newChunks
}

func (s *SentenceSplitter) getTokenSize(text string) int {
	return len(s.Tokenizer.Encode(text))
}

func (s *SentenceSplitter) getSplitsByFns(text string) []string {
	for _, splitFn := range s.splitFns {
		if splits := splitFn(text); len(splits) > 1 {
			return splits
		}
	}

	var splits []string
	for _, splitFn := range s.subSentenceSplitFns {
		splits = splitFn(text)
		if len(splits) > 1 {
			break
		}
	}
	return splits
}
