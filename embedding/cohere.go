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
	// CohereAPIURL is the default Cohere API endpoint.
	CohereAPIURL = "https://api.cohere.ai/v1"

	// cohereMaxBatchSize is the number of texts Cohere accepts per request.
	cohereMaxBatchSize = 96
)

// Cohere embedding model constants.
const (
	CohereEmbedEnglishV3           = "embed-english-v3.0"
	CohereEmbedMultilingualV3      = "embed-multilingual-v3.0"
	CohereEmbedEnglishLightV3      = "embed-english-light-v3.0"
	CohereEmbedMultilingualLightV3 = "embed-multilingual-light-v3.0"
)

// CohereInputType specifies the type of input for embedding.
type CohereInputType string

const (
	// CohereInputTypeSearchDocument for documents to be searched.
	CohereInputTypeSearchDocument CohereInputType = "search_document"
	// CohereInputTypeSearchQuery for search queries.
	CohereInputTypeSearchQuery CohereInputType = "search_query"
	// CohereInputTypeClassification for classification inputs.
	CohereInputTypeClassification CohereInputType = "classification"
	// CohereInputTypeClustering for clustering inputs.
	CohereInputTypeClustering CohereInputType = "clustering"
)

// CohereEmbedder implements the Embedder interface for Cohere.
type CohereEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	truncate   string // "NONE", "START", "END"
	httpClient *http.Client
	logger     *slog.Logger
}

// CohereEmbedderOption configures a CohereEmbedder.
type CohereEmbedderOption func(*CohereEmbedder)

// WithCohereAPIKey sets the API key.
func WithCohereAPIKey(apiKey string) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.apiKey = apiKey
	}
}

// WithCohereBaseURL sets the base URL.
func WithCohereBaseURL(baseURL string) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.baseURL = baseURL
	}
}

// WithCohereModel sets the model.
func WithCohereModel(model string) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.model = model
	}
}

// WithCohereTruncate sets the truncation mode.
func WithCohereTruncate(truncate string) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.truncate = truncate
	}
}

// WithCohereHTTPClient sets a custom HTTP client.
func WithCohereHTTPClient(client *http.Client) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.httpClient = client
	}
}

// WithCohereLogger sets the logger.
func WithCohereLogger(logger *slog.Logger) CohereEmbedderOption {
	return func(c *CohereEmbedder) {
		c.logger = logger
	}
}

// NewCohereEmbedder creates a new Cohere embedding client.
// The API key falls back to the COHERE_API_KEY environment variable.
func NewCohereEmbedder(opts ...CohereEmbedderOption) *CohereEmbedder {
	c := &CohereEmbedder{
		apiKey:     os.Getenv("COHERE_API_KEY"),
		baseURL:    CohereAPIURL,
		model:      CohereEmbedEnglishV3,
		truncate:   "END",
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// cohereEmbedRequest represents a request to the Cohere embed API.
type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate,omitempty"`
}

// cohereEmbedResponse represents a response from the Cohere embed API.
type cohereEmbedResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
	Texts      []string    `json:"texts"`
	Meta       struct {
		APIVersion struct {
			Version string `json:"version"`
		} `json:"api_version"`
		BilledUnits struct {
			InputTokens int `json:"input_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// EmbedDocuments generates one embedding per input text.
// Cohere supports batch embedding natively, up to 96 texts per request.
func (c *CohereEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += cohereMaxBatchSize {
		end := i + cohereMaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		embeddings, err := c.getEmbeddings(ctx, batch, CohereInputTypeSearchDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to get embeddings for batch starting at %d: %w", i, err)
		}

		results = append(results, embeddings...)
	}

	return results, nil
}

// EmbedQuery generates an embedding for a given query.
// Queries use the search_query input type.
func (c *CohereEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := c.getEmbeddings(ctx, []string{query}, CohereInputTypeSearchQuery)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("cohere returned no embeddings")
	}
	return embeddings[0], nil
}

// getEmbeddings performs the actual embedding request.
func (c *CohereEmbedder) getEmbeddings(ctx context.Context, texts []string, inputType CohereInputType) ([][]float32, error) {
	reqBody := cohereEmbedRequest{
		Model:     c.model,
		Texts:     texts,
		InputType: string(inputType),
		Truncate:  c.truncate,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result cohereEmbedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.Embeddings, nil
}

// Info returns information about the model's capabilities.
func (c *CohereEmbedder) Info() EmbeddingInfo {
	return getCohereEmbeddingInfo(c.model)
}

// getCohereEmbeddingInfo returns embedding info for Cohere models.
func getCohereEmbeddingInfo(model string) EmbeddingInfo {
	switch model {
	case CohereEmbedEnglishV3, CohereEmbedMultilingualV3:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 1024,
			MaxTokens:  512,
		}
	case CohereEmbedEnglishLightV3, CohereEmbedMultilingualLightV3:
		return EmbeddingInfo{
			ModelName:  model,
			Dimensions: 384,
			MaxTokens:  512,
		}
	default:
		return DefaultEmbeddingInfo(model)
	}
}

// Ensure CohereEmbedder implements the interfaces.
var _ Embedder = (*CohereEmbedder)(nil)
var _ EmbedderWithInfo = (*CohereEmbedder)(nil)
