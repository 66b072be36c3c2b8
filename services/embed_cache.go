package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studymate-platform/internal/logger"
)

// EmbeddingCache caches document-level embedding vectors in Redis so
// the recommender does not re-embed unchanged documents. Entries are
// keyed by document id and chunk count, so re-ingesting a document
// with different content naturally misses.
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEmbeddingCache(client *redis.Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{client: client, ttl: ttl}
}

func embeddingKey(documentID string, chunkCount int) string {
	return fmt.Sprintf("docemb:%s:%d", documentID, chunkCount)
}

// Get returns the cached vector and whether it was present. Redis
// failures are treated as cache misses.
func (ec *EmbeddingCache) Get(ctx context.Context, documentID string, chunkCount int) ([]float32, bool) {
	if ec == nil || ec.client == nil {
		return nil, false
	}

	raw, err := ec.client.Get(ctx, embeddingKey(documentID, chunkCount)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("embedding cache read failed", "document_id", documentID, "error", err)
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		logger.Warn("embedding cache entry corrupt, discarding", "document_id", documentID, "error", err)
		return nil, false
	}
	return vector, true
}

// Put stores the vector with the configured TTL. Failures are logged
// and swallowed.
func (ec *EmbeddingCache) Put(ctx context.Context, documentID string, chunkCount int, vector []float32) {
	if ec == nil || ec.client == nil {
		return
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := ec.client.Set(ctx, embeddingKey(documentID, chunkCount), raw, ec.ttl).Err(); err != nil {
		logger.Warn("embedding cache write failed", "document_id", documentID, "error", err)
	}
}

// Invalidate drops any cached vectors for the document.
func (ec *EmbeddingCache) Invalidate(ctx context.Context, documentID string) {
	if ec == nil || ec.client == nil {
		return
	}

	pattern := fmt.Sprintf("docemb:%s:*", documentID)
	iter := ec.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := ec.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("embedding cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
}
