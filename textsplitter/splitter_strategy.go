package textsplitter

import (
	"fmt"
	"os"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// RegexSplitterStrategy uses a regular expression for sentence splitting.
type RegexSplitterStrategy struct {
	regexStr string
}

func NewRegexSplitterStrategy(regexStr string) *RegexSplitterStrategy {
	if regexStr == "" {
		regexStr = DefaultChunkingRegex
	}
	return &RegexSplitterStrategy{regexStr: regexStr}
}

func (s *RegexSplitterStrategy) Split(text string) []string {
	return SplitByRegex(s.regexStr)(text)
}

// NeurosnapSplitterStrategy detects sentence boundaries with the
// neurosnap/sentences punkt tokenizer.
type NeurosnapSplitterStrategy struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewNeurosnapSplitterStrategy creates a strategy from punkt training data
// in JSON form. If trainingData is nil or empty, the English training data
// bundled with the library is used.
func NewNeurosnapSplitterStrategy(trainingData []byte) (*NeurosnapSplitterStrategy, error) {
	if len(trainingData) == 0 {
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load english training data: %w", err)
		}
		return &NeurosnapSplitterStrategy{tokenizer: tokenizer}, nil
	}

	storage, err := sentences.LoadTraining(trainingData)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	return &NeurosnapSplitterStrategy{tokenizer: sentences.NewSentenceTokenizer(storage)}, nil
}

// NewNeurosnapSplitterStrategyFromFile creates a strategy by reading punkt
// training data from a file.
func NewNeurosnapSplitterStrategyFromFile(path string) (*NeurosnapSplitterStrategy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training data from %s: %w", path, err)
	}
	return NewNeurosnapSplitterStrategy(b)
}

func (s *NeurosnapSplitterStrategy) Split(text string) []string {
	sents := s.tokenizer.Tokenize(text)
	result := make([]string, len(sents))
	for i, sent := range sents {
		result[i] = sent.Text
	}
	return result
}
