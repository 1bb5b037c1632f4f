package textsplitter

import (
	"regexp"
	"strings"
)

// MarkdownSplitter splits markdown text while preserving structure.
// Fenced code blocks are kept intact where possible and configured header
// levels start new sections.
type MarkdownSplitter struct {
	// ChunkSize is the maximum size of each chunk in tokens.
	ChunkSize int
	// ChunkOverlap is the number of overlapping tokens between chunks.
	ChunkOverlap int
	// Tokenizer is used to count tokens.
	Tokenizer Tokenizer
	// HeadersToSplitOn defines which header levels trigger splits.
	// Default: ["#", "##", "###", "####", "#####", "######"]
	HeadersToSplitOn []string
}

// NewMarkdownSplitter creates a new MarkdownSplitter with default settings.
func NewMarkdownSplitter(chunkSize, chunkOverlap int) *MarkdownSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &MarkdownSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Tokenizer:    NewSimpleTokenizer(),
		HeadersToSplitOn: []string{
			"#", "##", "###", "####", "#####", "######",
		},
	}
}

// WithTokenizer sets a custom tokenizer.
func (s *MarkdownSplitter) WithTokenizer(tokenizer Tokenizer) *MarkdownSplitter {
	s.Tokenizer = tokenizer
	return s
}

// WithHeadersToSplitOn sets which headers to split on.
func (s *MarkdownSplitter) WithHeadersToSplitOn(headers []string) *MarkdownSplitter {
	s.HeadersToSplitOn = headers
	return s
}

// SplitText splits markdown text into chunks.
func (s *MarkdownSplitter) SplitText(text string) []string {
	if text == "" {
		return []string{}
	}

	// Separate code blocks first so they survive chunking.
	sections := s.splitByCodeBlocks(text)

	var allChunks []string
	for _, section := range sections {
		if section.isCode {
			if s.tokenLength(section.content) <= s.ChunkSize {
				allChunks = append(allChunks, section.content)
			} else {
				allChunks = append(allChunks, s.splitCodeBlock(section.content)...)
			}
		} else {
			allChunks = append(allChunks, s.splitMarkdownContent(section.content)...)
		}
	}

	return s.postProcess(allChunks)
}

type markdownSection struct {
	content string
	isCode  bool
}

// splitByCodeBlocks separates fenced code blocks from regular markdown.
func (s *MarkdownSplitter) splitByCodeBlocks(text string) []markdownSection {
	codeBlockRegex := regexp.MustCompile("(?s)(```[^`]*```|~~~[^~]*~~~)")

	var sections []markdownSection
	lastEnd := 0

	for _, match := range codeBlockRegex.FindAllStringIndex(text, -1) {
		if match[0] > lastEnd {
			before := text[lastEnd:match[0]]
			if strings.TrimSpace(before) != "" {
				sections = append(sections, markdownSection{content: before})
			}
		}
		sections = append(sections, markdownSection{content: text[match[0]:match[1]], isCode: true})
		lastEnd = match[1]
	}

	if lastEnd < len(text) {
		remaining := text[lastEnd:]
		if strings.TrimSpace(remaining) != "" {
			sections = append(sections, markdownSection{content: remaining})
		}
	}

	if len(sections) == 0 {
		sections = append(sections, markdownSection{content: text})
	}

	return sections
}

// splitCodeBlock splits a large code block into smaller chunks, repeating
// the fence markers around each.
func (s *MarkdownSplitter) splitCodeBlock(codeBlock string) []string {
	lines := strings.Split(codeBlock, "\n")
	if len(lines) <= 2 {
		return []string{codeBlock}
	}

	opening := lines[0]
	closing := lines[len(lines)-1]
	codeLines := lines[1 : len(lines)-1]

	fenceTokens := s.tokenLength(opening) + s.tokenLength(closing)

	var chunks []string
	var currentLines []string
	currentTokens := fenceTokens

	for _, line := range codeLines {
		lineTokens := s.tokenLength(line)

		if currentTokens+lineTokens > s.ChunkSize && len(currentLines) > 0 {
			chunks = append(chunks, opening+"\n"+strings.Join(currentLines, "\n")+"\n"+closing)
			currentLines = nil
			currentTokens = fenceTokens
		}

		currentLines = append(currentLines, line)
		currentTokens += lineTokens
	}

	if len(currentLines) > 0 {
		chunks = append(chunks, opening+"\n"+strings.Join(currentLines, "\n")+"\n"+closing)
	}

	return chunks
}

// splitMarkdownContent splits markdown by headers and merges the sections
// into chunks.
func (s *MarkdownSplitter) splitMarkdownContent(text string) []string {
	headerRegex := regexp.MustCompile(s.buildHeaderPattern())
	sections := s.splitByHeaders(text, headerRegex)
	return s.mergeSections(sections)
}

// buildHeaderPattern builds a regex matching the configured header levels
// at the start of a line.
func (s *MarkdownSplitter) buildHeaderPattern() string {
	var alts []string
	for _, h := range s.HeadersToSplitOn {
		if n := len(h); n > 0 && strings.Count(h, "#") == n {
			alts = append(alts, strings.Repeat("#", n))
		}
	}
	if len(alts) == 0 {
		return `(?m)^(#{1,6})\s+(.+)$`
	}
	return `(?m)^(` + strings.Join(alts, "|") + `)\s+(.+)$`
}

// splitByHeaders splits text at the configured markdown headers.
func (s *MarkdownSplitter) splitByHeaders(text string, headerRegex *regexp.Regexp) []markdownSection {
	matches := headerRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []markdownSection{{content: text}}
	}

	var sections []markdownSection
	lastEnd := 0
	for _, match := range matches {
		if match[0] > lastEnd {
			before := text[lastEnd:match[0]]
			if strings.TrimSpace(before) != "" {
				sections = append(sections, markdownSection{content: before})
			}
		}
		lastEnd = match[0]
	}

	if lastEnd < len(text) {
		sections = append(sections, markdownSection{content: text[lastEnd:]})
	}

	return sections
}

// mergeSections merges sections into chunks respecting token limits.
// Section contents keep their surrounding separators, so concatenation
// reproduces the original text.
func (s *MarkdownSplitter) mergeSections(sections []markdownSection) []string {
	var chunks []string
	var currentChunk strings.Builder
	currentTokens := 0

	for _, section := range sections {
		sectionTokens := s.tokenLength(section.content)

		if sectionTokens > s.ChunkSize {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
				currentChunk.Reset()
				currentTokens = 0
			}
			chunks = append(chunks, s.splitLargeSection(section.content)...)
			continue
		}

		if currentTokens+sectionTokens > s.ChunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())
			currentChunk.Reset()
			currentTokens = 0
		}

		currentChunk.WriteString(section.content)
		currentTokens += sectionTokens
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// splitLargeSection splits a large section by paragraphs, falling back to
// lines and then words. A piece with no separators left is emitted as-is.
func (s *MarkdownSplitter) splitLargeSection(text string) []string {
	for _, sep := range []string{"\n\n", "\n", " "} {
		if parts := SplitTextKeepSeparator(text, sep); len(parts) > 1 {
			return s.mergeSections(s.toSections(parts))
		}
	}
	return []string{text}
}

// toSections converts strings to sections, dropping blank ones.
func (s *MarkdownSplitter) toSections(texts []string) []markdownSection {
	sections := make([]markdownSection, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			sections = append(sections, markdownSection{content: t})
		}
	}
	return sections
}

// tokenLength returns the token count for text.
func (s *MarkdownSplitter) tokenLength(text string) int {
	return len(s.Tokenizer.Encode(text))
}

// postProcess cleans up chunks.
func (s *MarkdownSplitter) postProcess(chunks []string) []string {
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
func (s *MarkdownSplitter) SplitTextMetadataAware(text string, metadata string) []string {
	effectiveChunkSize := s.ChunkSize - s.tokenLength(metadata)
	if effectiveChunkSize < 1 {
		effectiveChunkSize = 1
	}

	reduced := *s
	reduced.ChunkSize = effectiveChunkSize
	return reduced.SplitText(text)
}
