package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studymate-platform/models"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func TestPointIDStable(t *testing.T) {
	a := pointID("doc-1", 0)
	b := pointID("doc-1", 0)
	c := pointID("doc-1", 1)
	d := pointID("doc-2", 0)

	if a != b {
		t.Fatalf("same inputs produced different ids: %s vs %s", a, b)
	}
	if a == c || a == d {
		t.Fatalf("distinct inputs collided: %s %s %s", a, c, d)
	}
}

func TestUpsertSendsOwnerPayload(t *testing.T) {
	var upsertBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points" {
			if err := json.NewDecoder(r.Body).Decode(&upsertBody); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewGateway(Config{URL: srv.URL, Collection: "chunks", Dimension: 3}, stubEmbedder{})
	chunks := []models.DocumentChunk{
		{Index: 0, Text: "first chunk"},
		{Index: 1, Text: "second chunk"},
	}
	if err := g.Upsert(context.Background(), "owner-1", "doc-1", chunks); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	points, ok := upsertBody["points"].([]any)
	if !ok || len(points) != 2 {
		t.Fatalf("expected 2 points, got %v", upsertBody["points"])
	}
	first := points[0].(map[string]any)
	payload := first["payload"].(map[string]any)
	if payload["owner_id"] != "owner-1" {
		t.Errorf("owner_id = %v, want owner-1", payload["owner_id"])
	}
	if payload["document_id"] != "doc-1" {
		t.Errorf("document_id = %v, want doc-1", payload["document_id"])
	}
	if first["id"] != pointID("doc-1", 0) {
		t.Errorf("point id = %v, want %s", first["id"], pointID("doc-1", 0))
	}
}

func TestQueryFiltersOnOwnerAndDocument(t *testing.T) {
	var searchBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/chunks/points/search" {
			if err := json.NewDecoder(r.Body).Decode(&searchBody); err != nil {
				t.Errorf("decode search body: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"result": []map[string]any{
					{"score": 0.91, "payload": map[string]any{
						"document_id": "doc-1", "index": 2, "text": "matched text",
					}},
				},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewGateway(Config{URL: srv.URL, Collection: "chunks", Dimension: 3}, stubEmbedder{})
	results, err := g.Query(context.Background(), "owner-1", "what is photosynthesis", 5, "doc-1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.DocumentID != "doc-1" || r.Index != 2 || r.Text != "matched text" || r.Score != 0.91 {
		t.Errorf("unexpected result: %+v", r)
	}

	filter := searchBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected owner and document clauses, got %d", len(must))
	}
	owner := must[0].(map[string]any)
	if owner["key"] != "owner_id" {
		t.Errorf("first filter key = %v, want owner_id", owner["key"])
	}
}

func TestQueryWrapsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGateway(Config{URL: srv.URL, Collection: "chunks", Dimension: 3}, stubEmbedder{})
	if _, err := g.Query(context.Background(), "owner-1", "query", 5, ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
