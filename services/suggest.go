package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/internal/telemetry"
	"studymate-platform/models"
)

// DocumentEmbedder produces a single embedding vector for a text.
type DocumentEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SuggestionStore is the slice of the metadata store the recommender
// reads from.
type SuggestionStore interface {
	ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error)
	ListCandidateDocuments(ctx context.Context, excludeOwnerID string) ([]models.Document, error)
	GetDocumentText(ctx context.Context, documentID string) (string, int, error)
	GetStudySetAnyOwner(ctx context.Context, documentID, kind string) (*models.StudySet, error)
}

const defaultSuggestionLimit = 5

// SuggestionService recommends other users' public study sets whose
// source documents are semantically close to the caller's documents.
type SuggestionService struct {
	store    SuggestionStore
	embedder DocumentEmbedder
	cache    *EmbeddingCache
	workers  int
	maxLimit int
	metrics  *telemetry.Metrics
}

func NewSuggestionService(store SuggestionStore, embedder DocumentEmbedder, cache *EmbeddingCache, workers, maxLimit int, metrics *telemetry.Metrics) *SuggestionService {
	if workers < 1 {
		workers = 1
	}
	return &SuggestionService{
		store:    store,
		embedder: embedder,
		cache:    cache,
		workers:  workers,
		maxLimit: maxLimit,
		metrics:  metrics,
	}
}

// Suggest scores every public candidate document from other owners
// against the caller's ready documents and returns the study sets of
// the closest matches. Embedding failures degrade individual pairs to
// a zero score instead of failing the whole request.
func (ss *SuggestionService) Suggest(ctx context.Context, ownerID string, limit int) (*models.SuggestionResponse, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > ss.maxLimit {
		limit = ss.maxLimit
	}

	ownerDocs, err := ss.store.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own documents: %w", err)
	}
	ownerDocs = filterReady(ownerDocs)

	candidates, err := ss.store.ListCandidateDocuments(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate documents: %w", err)
	}

	resp := &models.SuggestionResponse{
		Flashcards: []models.SuggestedSet{},
		Quizzes:    []models.SuggestedSet{},
	}
	if len(ownerDocs) == 0 || len(candidates) == 0 {
		return resp, nil
	}

	vectors := ss.embedAll(ctx, append(append([]models.Document{}, ownerDocs...), candidates...))

	scored := ss.scoreCandidates(ownerDocs, candidates, vectors)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	for _, candidate := range scored {
		ss.appendStudySets(ctx, resp, candidate)
	}
	return resp, nil
}

func filterReady(docs []models.Document) []models.Document {
	ready := docs[:0]
	for _, doc := range docs {
		if doc.Ready {
			ready = append(ready, doc)
		}
	}
	return ready
}

// embedAll resolves one embedding per document, consulting the cache
// first and embedding misses concurrently. A document whose embedding
// cannot be produced maps to nil.
func (ss *SuggestionService) embedAll(ctx context.Context, docs []models.Document) map[string][]float32 {
	var mu sync.Mutex
	vectors := make(map[string][]float32, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ss.workers)

	for _, doc := range docs {
		doc := doc
		docID := doc.ID.Hex()

		mu.Lock()
		_, seen := vectors[docID]
		if !seen {
			vectors[docID] = nil
		}
		mu.Unlock()
		if seen {
			continue
		}

		g.Go(func() error {
			vector := ss.embedDocument(gctx, docID, doc.ChunkCount)
			mu.Lock()
			vectors[docID] = vector
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors, failures degrade to nil vectors.
	_ = g.Wait()
	return vectors
}

func (ss *SuggestionService) embedDocument(ctx context.Context, documentID string, chunkCount int) []float32 {
	if vector, ok := ss.cache.Get(ctx, documentID, chunkCount); ok {
		if ss.metrics != nil {
			ss.metrics.RecordEmbeddingCalls(1, true)
		}
		return vector
	}

	text, count, err := ss.store.GetDocumentText(ctx, documentID)
	if err != nil || text == "" {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			logger.Warn("failed to load document text for similarity", "document_id", documentID, "error", err)
		}
		return nil
	}

	vector, err := ss.embedder.Embed(ctx, capText(text))
	if err != nil {
		logger.Warn("failed to embed document for similarity", "document_id", documentID, "error", err)
		return nil
	}

	if ss.metrics != nil {
		ss.metrics.RecordEmbeddingCalls(1, false)
	}
	ss.cache.Put(ctx, documentID, count, vector)
	return vector
}

// scoreCandidates gives each candidate its best cosine similarity
// against any of the owner's documents. Pairs with a missing vector
// score zero.
func (ss *SuggestionService) scoreCandidates(ownerDocs, candidates []models.Document, vectors map[string][]float32) []models.SimilarityCandidate {
	var pairs, failed int64
	scored := make([]models.SimilarityCandidate, 0, len(candidates))

	for _, candidate := range candidates {
		candidateVec := vectors[candidate.ID.Hex()]
		best := 0.0

		for _, own := range ownerDocs {
			pairs++
			ownVec := vectors[own.ID.Hex()]
			if candidateVec == nil || ownVec == nil {
				failed++
				continue
			}
			if score := cosineSimilarity(candidateVec, ownVec); score > best {
				best = score
			}
		}

		scored = append(scored, models.SimilarityCandidate{
			DocumentID: candidate.ID.Hex(),
			OwnerID:    candidate.OwnerID,
			Name:       candidate.Name,
			Score:      best,
		})
	}

	if ss.metrics != nil {
		ss.metrics.RecordSimilarityPairs(pairs, failed)
	}
	return scored
}

func (ss *SuggestionService) appendStudySets(ctx context.Context, resp *models.SuggestionResponse, candidate models.SimilarityCandidate) {
	if flash, err := ss.store.GetStudySetAnyOwner(ctx, candidate.DocumentID, models.StudyKindFlashcards); err == nil {
		resp.Flashcards = append(resp.Flashcards, models.SuggestedSet{
			DocumentID:   candidate.DocumentID,
			DocumentName: candidate.Name,
			OwnerID:      candidate.OwnerID,
			Score:        candidate.Score,
			Flashcards:   flash.Flashcards,
		})
	} else if !errors.Is(err, database.ErrNotFound) {
		logger.Warn("failed to load suggested flashcards", "document_id", candidate.DocumentID, "error", err)
	}

	if quiz, err := ss.store.GetStudySetAnyOwner(ctx, candidate.DocumentID, models.StudyKindQuiz); err == nil {
		resp.Quizzes = append(resp.Quizzes, models.SuggestedSet{
			DocumentID:   candidate.DocumentID,
			DocumentName: candidate.Name,
			OwnerID:      candidate.OwnerID,
			Score:        candidate.Score,
			QuizItems:    quiz.QuizItems,
		})
	} else if !errors.Is(err, database.ErrNotFound) {
		logger.Warn("failed to load suggested quiz", "document_id", candidate.DocumentID, "error", err)
	}
}

// cosineSimilarity computes the cosine of the angle between two
// vectors, clamped to zero for degenerate inputs.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
