package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"studymate-platform/models"
)

// ErrStoreUnavailable wraps network or backend failures of the vector store.
// Read paths degrade to empty results at the call site; write paths fail hard.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// Embedder converts text into vectors. Satisfied by ai.GeminiClient.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one ranked nearest-neighbor match.
type Result struct {
	DocumentID string
	Index      int
	Text       string
	Score      float64
}

// Gateway is a minimal REST client to Qdrant holding one namespaced
// collection for all tenants. Every point carries an owner_id payload and
// all reads filter on it, so cross-tenant leakage is structurally impossible.
type Gateway struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	embedder   Embedder
	client     *http.Client

	mu          sync.Mutex
	bootstrapped bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewGateway(cfg Config, embedder Embedder) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}
}

// pointID derives a stable UUID from (documentID, index) so re-ingesting the
// same document overwrites points instead of duplicating them.
func pointID(documentID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}

// ensureCollection lazily creates the collection on first use. Qdrant accepts
// the create call idempotently when the schema matches.
func (g *Gateway) ensureCollection(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bootstrapped {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     g.dimension,
			"distance": "Cosine",
		},
	}
	if err := g.putJSON(ctx, fmt.Sprintf("%s/collections/%s", g.url, g.collection), body); err != nil {
		return err
	}

	g.bootstrapped = true
	return nil
}

// Upsert embeds and stores a document's chunks under the owner's namespace.
// Idempotent: ids derive from (documentID, index).
func (g *Gateway) Upsert(ctx context.Context, ownerID, documentID string, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := g.ensureCollection(ctx); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":     pointID(documentID, chunks[i].Index),
			"vector": vectors[i],
			"payload": map[string]any{
				"owner_id":    ownerID,
				"document_id": documentID,
				"index":       chunks[i].Index,
				"text":        chunks[i].Text,
			},
		}
	}

	body := map[string]any{"points": points}
	return g.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", g.url, g.collection), body)
}

// Query runs nearest-neighbor search over the owner's chunks, optionally
// restricted to one document. documentFilter == "" means no restriction.
func (g *Gateway) Query(ctx context.Context, ownerID, queryText string, k int, documentFilter string) ([]Result, error) {
	if k <= 0 {
		k = 5
	}

	if err := g.ensureCollection(ctx); err != nil {
		return nil, err
	}

	vector, err := g.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	must := []map[string]any{
		{"key": "owner_id", "match": map[string]any{"value": ownerID}},
	}
	if documentFilter != "" {
		must = append(must, map[string]any{
			"key": "document_id", "match": map[string]any{"value": documentFilter},
		})
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       map[string]any{"must": must},
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := g.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", g.url, g.collection), req, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := Result{Score: r.Score}
		if v, ok := r.Payload["document_id"].(string); ok {
			res.DocumentID = v
		}
		if v, ok := r.Payload["index"].(float64); ok {
			res.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			res.Text = v
		}
		results = append(results, res)
	}
	return results, nil
}

// Delete removes all stored chunks of one document.
func (g *Gateway) Delete(ctx context.Context, ownerID, documentID string) error {
	if err := g.ensureCollection(ctx); err != nil {
		return err
	}

	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "owner_id", "match": map[string]any{"value": ownerID}},
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	return g.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", g.url, g.collection), body, nil)
}

func (g *Gateway) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("api-key", g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: PUT %s: %s", ErrStoreUnavailable, url, resp.Status)
	}
	return nil
}

func (g *Gateway) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("api-key", g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: POST %s: %s", ErrStoreUnavailable, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
