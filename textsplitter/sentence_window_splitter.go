package textsplitter

import (
	"strings"

	"github.com/aqua777/go-vectorstores/schema"
)

// SentenceWindowSplitter splits text into single sentences and attaches the
// surrounding sentences as a context window. Embedding the bare sentence
// gives precise matches while the stored window supplies the context to
// show after retrieval.
type SentenceWindowSplitter struct {
	// WindowSize is the number of sentences to include on each side.
	WindowSize int
	// SentenceSplitter is used to split text into sentences.
	SentenceSplitter SentenceSplitterStrategy
	// OriginalTextMetadataKey is the metadata key for the bare sentence.
	OriginalTextMetadataKey string
	// WindowMetadataKey is the metadata key for the window text.
	WindowMetadataKey string
}

// SentenceWindow is a sentence with its surrounding context.
type SentenceWindow struct {
	// Sentence is the original sentence.
	Sentence string
	// Window is the sentence with surrounding context.
	Window string
	// Index is the sentence index in the original text.
	Index int
	// StartSentence is the index of the first sentence in the window.
	StartSentence int
	// EndSentence is the index of the last sentence in the window.
	EndSentence int
}

// NewSentenceWindowSplitter creates a new SentenceWindowSplitter.
// A negative windowSize falls back to 3 sentences per side.
func NewSentenceWindowSplitter(windowSize int) *SentenceWindowSplitter {
	if windowSize < 0 {
		windowSize = 3
	}
	return &SentenceWindowSplitter{
		WindowSize:              windowSize,
		SentenceSplitter:        NewRegexSplitterStrategy(DefaultChunkingRegex),
		OriginalTextMetadataKey: "original_sentence",
		WindowMetadataKey:       "window",
	}
}

// WithSentenceSplitter sets a custom sentence splitter.
func (s *SentenceWindowSplitter) WithSentenceSplitter(splitter SentenceSplitterStrategy) *SentenceWindowSplitter {
	s.SentenceSplitter = splitter
	return s
}

// WithMetadataKeys sets custom metadata keys for the sentence and window.
func (s *SentenceWindowSplitter) WithMetadataKeys(originalKey, windowKey string) *SentenceWindowSplitter {
	s.OriginalTextMetadataKey = originalKey
	s.WindowMetadataKey = windowKey
	return s
}

// SplitText splits text into sentences (returns just the sentences).
// Use SplitTextWithWindows for full window information.
func (s *SentenceWindowSplitter) SplitText(text string) []string {
	windows := s.SplitTextWithWindows(text)
	result := make([]string, len(windows))
	for i, w := range windows {
		result[i] = w.Sentence
	}
	return result
}

// SplitTextWithWindows splits text and returns sentences with their windows.
func (s *SentenceWindowSplitter) SplitTextWithWindows(text string) []SentenceWindow {
	if text == "" {
		return nil
	}

	var sentences []string
	for _, sent := range s.SentenceSplitter.Split(text) {
		if trimmed := strings.TrimSpace(sent); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	windows := make([]SentenceWindow, len(sentences))
	for i := range sentences {
		windows[i] = s.buildWindow(sentences, i)
	}
	return windows
}

// buildWindow builds a window around the sentence at the given index.
func (s *SentenceWindowSplitter) buildWindow(sentences []string, index int) SentenceWindow {
	start := index - s.WindowSize
	if start < 0 {
		start = 0
	}
	end := index + s.WindowSize + 1
	if end > len(sentences) {
		end = len(sentences)
	}

	return SentenceWindow{
		Sentence:      sentences[index],
		Window:        strings.Join(sentences[start:end], " "),
		Index:         index,
		StartSentence: start,
		EndSentence:   end - 1,
	}
}

// GetWindowsText returns just the window texts.
func (s *SentenceWindowSplitter) GetWindowsText(text string) []string {
	windows := s.SplitTextWithWindows(text)
	result := make([]string, len(windows))
	for i, w := range windows {
		result[i] = w.Window
	}
	return result
}

// SplitDocuments splits each document into per-sentence documents. The
// document text is the bare sentence and the window plus its position are
// recorded in the metadata alongside the source document's own metadata.
func (s *SentenceWindowSplitter) SplitDocuments(docs []schema.Document) []schema.Document {
	var out []schema.Document
	for _, doc := range docs {
		for _, w := range s.SplitTextWithWindows(doc.Text) {
			md := doc.CopyMetadata()
			md[s.OriginalTextMetadataKey] = w.Sentence
			md[s.WindowMetadataKey] = w.Window
			md["sentence_index"] = w.Index
			md["window_start"] = w.StartSentence
			md["window_end"] = w.EndSentence
			out = append(out, schema.NewDocument(w.Sentence, md))
		}
	}
	return out
}
