package ai

import (
	"context"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
)

// Embed returns the embedding vector for a single text.
func (gc *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := gc.client.EmbeddingModel(gc.embeddingModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Embedding.Values, nil
}

// EmbedBatch embeds all texts in one request. The result preserves input
// order and always has len(texts) entries on success.
func (gc *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := gc.client.EmbeddingModel(gc.embeddingModel)
	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed size mismatch: got %d want %d", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}
