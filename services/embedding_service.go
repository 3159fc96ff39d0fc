package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"pdfrag/config"
)

// Embedder converts text into fixed-dimension float vectors. Batch
// embedding preserves input order so callers can pair texts with vectors by
// index.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// AzureEmbedder produces embeddings through an Azure OpenAI embedding
// deployment.
type AzureEmbedder struct {
	llm       *openai.LLM
	dimension int
}

// NewAzureEmbedder builds an embedder against the configured Azure OpenAI
// endpoint and embedding deployment.
func NewAzureEmbedder(cfg *config.Config) (*AzureEmbedder, error) {
	llm, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithToken(cfg.AzureAPIKey),
		openai.WithBaseURL(cfg.AzureEndpoint),
		openai.WithAPIVersion(cfg.AzureAPIVersion),
		openai.WithEmbeddingModel(cfg.EmbeddingDeployment),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create azure embedding client: %w", err)
	}
	return &AzureEmbedder{llm: llm, dimension: cfg.EmbeddingDimension}, nil
}

// EmbedTexts embeds a batch of texts, one vector per input, in input order.
func (e *AzureEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(vectors))
	}
	return vectors, nil
}

// Dimension returns the configured embedding dimension.
func (e *AzureEmbedder) Dimension() int { return e.dimension }
