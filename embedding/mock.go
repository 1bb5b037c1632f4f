package embedding

import "context"

// MockEmbedder is a mock implementation of the Embedder interface.
// When Vectors is set, EmbedDocuments returns one vector per input text,
// cycling through Vectors; otherwise it returns Embedding for each text.
type MockEmbedder struct {
	Embedding []float32
	Vectors   [][]float32
	Err       error

	// Recorded inputs from the last calls.
	DocumentCalls [][]string
	QueryCalls    []string
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.DocumentCalls = append(m.DocumentCalls, texts)
	if m.Err != nil {
		return nil, m.Err
	}
	results := make([][]float32, len(texts))
	for i := range texts {
		if len(m.Vectors) > 0 {
			results[i] = m.Vectors[i%len(m.Vectors)]
		} else {
			results[i] = m.Embedding
		}
	}
	return results, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.QueryCalls = append(m.QueryCalls, query)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Vectors) > 0 {
		return m.Vectors[0], nil
	}
	return m.Embedding, nil
}

var _ Embedder = (*MockEmbedder)(nil)
