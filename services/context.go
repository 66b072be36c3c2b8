package services

import (
	"context"
	"errors"
	"strings"

	"studymate-platform/internal/logger"
	"studymate-platform/internal/vectorstore"
)

// VectorSearcher is the retrieval surface the assembler depends on.
type VectorSearcher interface {
	Query(ctx context.Context, ownerID, queryText string, limit int, documentID string) ([]vectorstore.Result, error)
}

// ContextAssembler turns a query into a grounding context block by
// retrieving the owner's most relevant chunks and packing them into a
// token budget.
type ContextAssembler struct {
	searcher    VectorSearcher
	topK        int
	tokenBudget int
}

func NewContextAssembler(searcher VectorSearcher, topK, tokenBudget int) *ContextAssembler {
	return &ContextAssembler{
		searcher:    searcher,
		topK:        topK,
		tokenBudget: tokenBudget,
	}
}

// estimateTokens approximates token count as characters divided by
// four, which tracks Gemini's tokenizer closely enough for budgeting.
func estimateTokens(text string) int {
	return len(text) / 4
}

// Assemble retrieves up to topK chunks for the query and joins whole
// chunks until the token budget is exhausted. Chunks are never
// truncated. Retrieval failures degrade to an empty context so chat
// can still answer from general knowledge.
func (ca *ContextAssembler) Assemble(ctx context.Context, ownerID, query, documentID string) (string, error) {
	results, err := ca.searcher.Query(ctx, ownerID, query, ca.topK, documentID)
	if err != nil {
		if errors.Is(err, vectorstore.ErrStoreUnavailable) {
			logger.Warn("vector store unavailable, answering without retrieved context", "owner_id", ownerID, "error", err)
			return "", nil
		}
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var parts []string
	used := 0
	for _, result := range results {
		cost := estimateTokens(result.Text)
		if used+cost > ca.tokenBudget {
			break
		}
		parts = append(parts, result.Text)
		used += cost
	}

	return strings.Join(parts, "\n\n"), nil
}
