package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// AzureOpenAIEmbedder implements the Embedder interface for Azure OpenAI.
type AzureOpenAIEmbedder struct {
	client     *openai.Client
	deployment string // Azure deployment name
	batchSize  int
	logger     *slog.Logger
}

// AzureOpenAIEmbedderOption configures an AzureOpenAIEmbedder.
type AzureOpenAIEmbedderOption func(*AzureOpenAIEmbedder)

// WithAzureDeployment sets the deployment name.
func WithAzureDeployment(deployment string) AzureOpenAIEmbedderOption {
	return func(a *AzureOpenAIEmbedder) {
		a.deployment = deployment
	}
}

// WithAzureBatchSize sets the maximum number of texts per request.
func WithAzureBatchSize(batchSize int) AzureOpenAIEmbedderOption {
	return func(a *AzureOpenAIEmbedder) {
		a.batchSize = batchSize
	}
}

// WithAzureLogger sets the logger.
func WithAzureLogger(logger *slog.Logger) AzureOpenAIEmbedderOption {
	return func(a *AzureOpenAIEmbedder) {
		a.logger = logger
	}
}

// NewAzureOpenAIEmbedder creates a new Azure OpenAI embedding client.
// It requires the Azure endpoint and API key, which can be provided via
// environment variables AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY.
func NewAzureOpenAIEmbedder(opts ...AzureOpenAIEmbedderOption) *AzureOpenAIEmbedder {
	endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
	apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
	deployment := os.Getenv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT")

	a := &AzureOpenAIEmbedder{
		deployment: deployment,
		batchSize:  openaiDefaultBatchSize,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(a)
	}

	config := openai.DefaultAzureConfig(apiKey, endpoint)
	a.client = openai.NewClientWithConfig(config)

	return a
}

// NewAzureOpenAIEmbedderWithConfig creates a new Azure OpenAI embedding client
// with explicit configuration.
func NewAzureOpenAIEmbedderWithConfig(endpoint, apiKey, deployment string) *AzureOpenAIEmbedder {
	config := openai.DefaultAzureConfig(apiKey, endpoint)

	return &AzureOpenAIEmbedder{
		client:     openai.NewClientWithConfig(config),
		deployment: deployment,
		batchSize:  openaiDefaultBatchSize,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// EmbedDocuments generates one embedding per input text.
func (a *AzureOpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := a.batchSize
	if batchSize <= 0 {
		batchSize = openaiDefaultBatchSize
	}

	results := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		resp, err := a.client.CreateEmbeddings(
			ctx,
			openai.EmbeddingRequest{
				Input: batch,
				Model: openai.EmbeddingModel(a.deployment),
			},
		)
		if err != nil {
			a.logger.Error("EmbedDocuments failed", "deployment", a.deployment, "error", err)
			return nil, fmt.Errorf("azure openai embedding failed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("azure openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}

		for _, d := range resp.Data {
			results[i+d.Index] = d.Embedding
		}
	}

	return results, nil
}

// EmbedQuery generates an embedding for a given query.
func (a *AzureOpenAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := a.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("azure openai returned no embeddings")
	}
	return embeddings[0], nil
}

// Info returns information about the model's capabilities.
func (a *AzureOpenAIEmbedder) Info() EmbeddingInfo {
	// Azure deployments can use various models, return generic info
	return EmbeddingInfo{
		ModelName:  a.deployment,
		Dimensions: 1536, // Common for text-embedding-ada-002 and text-embedding-3-small
		MaxTokens:  8191,
	}
}

// Ensure AzureOpenAIEmbedder implements the interfaces.
var _ Embedder = (*AzureOpenAIEmbedder)(nil)
var _ EmbedderWithInfo = (*AzureOpenAIEmbedder)(nil)
