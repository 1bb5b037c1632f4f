package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

const (
	// OllamaDefaultURL is the default Ollama API endpoint.
	OllamaDefaultURL = "http://localhost:11434"
)

// Common Ollama embedding model names.
const (
	OllamaMxbaiEmbedLarge = "mxbai-embed-large"
	OllamaAllMiniLM       = "all-minilm"
	OllamaNomicEmbedText  = "nomic-embed-text"
	OllamaSnowflakeArctic = "snowflake-arctic-embed"
	OllamaBgeSmall        = "bge-small"
	OllamaBgeLarge        = "bge-large"
)

// OllamaEmbedder implements the Embedder interface for Ollama.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// OllamaEmbedderOption configures an OllamaEmbedder.
type OllamaEmbedderOption func(*OllamaEmbedder)

// WithOllamaBaseURL sets the base URL.
func WithOllamaBaseURL(baseURL string) OllamaEmbedderOption {
	return func(o *OllamaEmbedder) {
		o.baseURL = baseURL
	}
}

// WithOllamaModel sets the model.
func WithOllamaModel(model string) OllamaEmbedderOption {
	return func(o *OllamaEmbedder) {
		o.model = model
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaEmbedderOption {
	return func(o *OllamaEmbedder) {
		o.httpClient = client
	}
}

// WithOllamaLogger sets the logger.
func WithOllamaLogger(logger *slog.Logger) OllamaEmbedderOption {
	return func(o *OllamaEmbedder) {
		o.logger = logger
	}
}

// NewOllamaEmbedder creates a new Ollama embedding client.
// The base URL falls back to the OLLAMA_HOST environment variable.
func NewOllamaEmbedder(opts ...OllamaEmbedderOption) *OllamaEmbedder {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = OllamaDefaultURL
	}

	o := &OllamaEmbedder{
		baseURL:    baseURL,
		model:      OllamaNomicEmbedText,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// ollamaEmbeddingRequest represents a request to the Ollama embedding API.
type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbeddingResponse represents a response from the Ollama embedding API.
type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedDocuments generates one embedding per input text.
// The API has no batch endpoint, so texts are embedded sequentially.
func (o *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := o.getEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to get embedding for text %d: %w", i, err)
		}
		results[i] = embedding
	}

	return results, nil
}

// EmbedQuery generates an embedding for a given query.
func (o *OllamaEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return o.getEmbedding(ctx, query)
}

// getEmbedding performs the actual embedding request.
func (o *OllamaEmbedder) getEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := ollamaEmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Embedding, nil
}

// Info returns information about the model's capabilities.
func (o *OllamaEmbedder) Info() EmbeddingInfo {
	return getOllamaEmbeddingInfo(o.model)
}

// getOllamaEmbeddingInfo returns embedding info for Ollama models.
func getOllamaEmbeddingInfo(model string) EmbeddingInfo {
	switch model {
	case OllamaMxbaiEmbedLarge:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 1024,
			MaxTokens:  512,
		}
	case OllamaAllMiniLM:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 384,
			MaxTokens:  256,
		}
	case OllamaNomicEmbedText:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 768,
			MaxTokens:  8192,
		}
	case OllamaSnowflakeArctic:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 1024,
			MaxTokens:  512,
		}
	case OllamaBgeSmall:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 384,
			MaxTokens:  512,
		}
	case OllamaBgeLarge:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 1024,
			MaxTokens:  512,
		}
	default:
		return DefaultEmbeddingInfo(model)
	}
}

// Ensure OllamaEmbedder implements the interfaces.
var _ Embedder = (*OllamaEmbedder)(nil)
var _ EmbedderWithInfo = (*OllamaEmbedder)(nil)
