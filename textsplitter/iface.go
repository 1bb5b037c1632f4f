// Package textsplitter breaks text into chunks sized for embedding.
// It provides sentence, token, markdown and sentence-window splitters plus
// the tokenizers they use for measuring chunk sizes.
package textsplitter

// TextSplitter is the interface for splitting text.
type TextSplitter interface {
	SplitText(text string) []string
}

// Tokenizer is the interface for tokenizing text.
// It encodes text into a list of string tokens; splitters use the token
// count as the chunk size measure.
type Tokenizer interface {
	Encode(text string) []string
}

// SentenceSplitterStrategy is the interface for primary sentence splitting.
type SentenceSplitterStrategy interface {
	Split(text string) []string
}
