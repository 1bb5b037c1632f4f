package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// openaiDefaultBatchSize is the maximum number of texts sent per request.
const openaiDefaultBatchSize = 512

// OpenAIEmbedder implements the Embedder interface for OpenAI.
type OpenAIEmbedder struct {
	client     *openai.Client
	apiKey     string
	baseURL    string
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
	maxTokens  int
	truncator  TokenTruncator
	logger     *slog.Logger
}

// OpenAIEmbedderOption configures an OpenAIEmbedder.
type OpenAIEmbedderOption func(*OpenAIEmbedder)

// WithOpenAIAPIKey sets the API key.
func WithOpenAIAPIKey(apiKey string) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.apiKey = apiKey
	}
}

// WithOpenAIBaseURL sets a custom API base URL.
func WithOpenAIBaseURL(baseURL string) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.baseURL = baseURL
	}
}

// WithOpenAIClient sets a pre-built client, bypassing key and URL options.
func WithOpenAIClient(client *openai.Client) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.client = client
	}
}

// WithOpenAIModel sets the embedding model.
func WithOpenAIModel(model string) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.model = openai.EmbeddingModel(model)
	}
}

// WithOpenAIDimensions requests reduced-dimension embeddings.
// Only supported by the text-embedding-3 models.
func WithOpenAIDimensions(dimensions int) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.dimensions = dimensions
	}
}

// WithOpenAIBatchSize sets the maximum number of texts per request.
func WithOpenAIBatchSize(batchSize int) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.batchSize = batchSize
	}
}

// WithOpenAIMaxTokens truncates each input to the given token budget
// before embedding. Zero disables truncation.
func WithOpenAIMaxTokens(maxTokens int) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.maxTokens = maxTokens
	}
}

// WithOpenAITruncator sets the truncator used when a token budget is set.
// Defaults to the shared tiktoken counter.
func WithOpenAITruncator(truncator TokenTruncator) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.truncator = truncator
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(logger *slog.Logger) OpenAIEmbedderOption {
	return func(o *OpenAIEmbedder) {
		o.logger = logger
	}
}

// NewOpenAIEmbedder creates a new OpenAI embedding client.
// The API key falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(opts ...OpenAIEmbedderOption) *OpenAIEmbedder {
	o := &OpenAIEmbedder{
		model:     openai.SmallEmbedding3,
		batchSize: openaiDefaultBatchSize,
		logger:    slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		apiKey := o.apiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		config := openai.DefaultConfig(apiKey)
		if o.baseURL != "" {
			config.BaseURL = o.baseURL
		}
		o.client = openai.NewClientWithConfig(config)
	}

	return o
}

// EmbedDocuments generates one embedding per input text.
// Requests are issued in batches of the configured size.
func (o *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs, err := o.prepareInputs(texts)
	if err != nil {
		return nil, err
	}

	batchSize := o.batchSize
	if batchSize <= 0 {
		batchSize = openaiDefaultBatchSize
	}

	results := make([][]float32, len(inputs))
	for i := 0; i < len(inputs); i += batchSize {
		end := i + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := inputs[i:end]

		resp, err := o.client.CreateEmbeddings(
			ctx,
			openai.EmbeddingRequest{
				Input:      batch,
				Model:      o.model,
				Dimensions: o.dimensions,
			},
		)
		if err != nil {
			o.logger.Error("EmbedDocuments failed", "model", o.model, "error", err)
			return nil, fmt.Errorf("openai embedding failed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}

		for _, d := range resp.Data {
			results[i+d.Index] = d.Embedding
		}
	}

	return results, nil
}

// EmbedQuery generates an embedding for a given query.
func (o *OpenAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := o.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}
	return embeddings[0], nil
}

// prepareInputs applies the token budget to each text when configured.
func (o *OpenAIEmbedder) prepareInputs(texts []string) ([]string, error) {
	if o.maxTokens <= 0 {
		return texts, nil
	}

	truncator := o.truncator
	if truncator == nil {
		counter, err := DefaultTokenCounter()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize token counter: %w", err)
		}
		truncator = counter
	}

	truncated := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = truncator.Truncate(text, o.maxTokens)
	}
	return truncated, nil
}

// Info returns information about the model's capabilities.
func (o *OpenAIEmbedder) Info() EmbeddingInfo {
	var info EmbeddingInfo
	switch o.model {
	case openai.SmallEmbedding3:
		info = OpenAISmallEmbedding3Info()
	case openai.LargeEmbedding3:
		info = OpenAILargeEmbedding3Info()
	case openai.AdaEmbeddingV2:
		info = OpenAIAdaEmbeddingInfo()
	default:
		info = DefaultEmbeddingInfo(string(o.model))
	}
	if o.dimensions > 0 {
		info.Dimensions = o.dimensions
	}
	return info
}

// Ensure OpenAIEmbedder implements the interfaces.
var _ Embedder = (*OpenAIEmbedder)(nil)
var _ EmbedderWithInfo = (*OpenAIEmbedder)(nil)
