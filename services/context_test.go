package services

import (
	"context"
	"strings"
	"testing"

	"studymate-platform/internal/vectorstore"
)

type fakeSearcher struct {
	results []vectorstore.Result
	err     error
}

func (f *fakeSearcher) Query(ctx context.Context, ownerID, queryText string, limit int, documentID string) ([]vectorstore.Result, error) {
	return f.results, f.err
}

func TestAssemblePacksWholeChunks(t *testing.T) {
	chunkA := strings.Repeat("a", 400) // 100 tokens
	chunkB := strings.Repeat("b", 400)
	chunkC := strings.Repeat("c", 400)
	searcher := &fakeSearcher{results: []vectorstore.Result{
		{Text: chunkA, Score: 0.9},
		{Text: chunkB, Score: 0.8},
		{Text: chunkC, Score: 0.7},
	}}

	ca := NewContextAssembler(searcher, 5, 250)
	got, err := ca.Assemble(context.Background(), "owner", "query", "")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	// Budget of 250 tokens fits two 100-token chunks, never a partial
	// third.
	want := chunkA + "\n\n" + chunkB
	if got != want {
		t.Errorf("context packed %d chars, want %d", len(got), len(want))
	}
}

func TestAssembleOverBudgetChunkYieldsEmpty(t *testing.T) {
	// The top-ranked chunk alone exceeds the budget. Nothing fits, so
	// the context is empty rather than a truncated chunk.
	huge := strings.Repeat("x", 4000) // 1000 tokens
	searcher := &fakeSearcher{results: []vectorstore.Result{
		{Text: huge, Score: 0.95},
	}}

	ca := NewContextAssembler(searcher, 5, 500)
	got, err := ca.Assemble(context.Background(), "owner", "query", "")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty context, got %d chars", len(got))
	}
}

func TestAssembleEmptyRetrieval(t *testing.T) {
	ca := NewContextAssembler(&fakeSearcher{}, 5, 4000)

	got, err := ca.Assemble(context.Background(), "owner", "query", "")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got != "" {
		t.Errorf("context = %q, want empty", got)
	}
}

func TestAssembleDegradesWhenStoreUnavailable(t *testing.T) {
	searcher := &fakeSearcher{err: vectorstore.ErrStoreUnavailable}
	ca := NewContextAssembler(searcher, 5, 4000)

	got, err := ca.Assemble(context.Background(), "owner", "query", "")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got != "" {
		t.Errorf("context = %q, want empty on degraded retrieval", got)
	}
}

func TestAssembleSkipsNothingUnderBudget(t *testing.T) {
	searcher := &fakeSearcher{results: []vectorstore.Result{
		{Text: "alpha"},
		{Text: "beta"},
	}}
	ca := NewContextAssembler(searcher, 5, 4000)

	got, err := ca.Assemble(context.Background(), "owner", "query", "doc-1")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if want := "alpha\n\nbeta"; got != want {
		t.Errorf("context = %q, want %q", got, want)
	}
}
