package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/internal/telemetry"
	"studymate-platform/models"
)

// ObjectGetter fetches a stored document's raw bytes.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ChunkWriter persists chunk rows and updates document state.
type ChunkWriter interface {
	GetDocumentAnyOwner(ctx context.Context, documentID string) (*models.Document, error)
	SetDocumentStatus(ctx context.Context, documentID, status, errorMessage string) error
	MarkDocumentReady(ctx context.Context, documentID string, chunkCount int) error
	ReplaceChunks(ctx context.Context, documentID string, chunks []models.DocumentChunk) error
	GetDocumentText(ctx context.Context, documentID string) (string, int, error)
}

// VectorWriter indexes chunks for retrieval.
type VectorWriter interface {
	Upsert(ctx context.Context, ownerID, documentID string, chunks []models.DocumentChunk) error
}

// IngestionService drives a document from uploaded bytes to a ready,
// searchable, study-ready state.
type IngestionService struct {
	store     ChunkWriter
	objects   ObjectGetter
	extractor *ExtractionPoller
	chunker   *ChunkerService
	vectors   VectorWriter
	study     *StudyGenerator
	cache     *EmbeddingCache
	metrics   *telemetry.Metrics
}

func NewIngestionService(store ChunkWriter, objects ObjectGetter, extractor *ExtractionPoller, chunker *ChunkerService, vectors VectorWriter, study *StudyGenerator, cache *EmbeddingCache, metrics *telemetry.Metrics) *IngestionService {
	return &IngestionService{
		store:     store,
		objects:   objects,
		extractor: extractor,
		chunker:   chunker,
		vectors:   vectors,
		study:     study,
		cache:     cache,
		metrics:   metrics,
	}
}

// Ingest processes one uploaded document end to end: extract text,
// chunk it, persist and index the chunks, then generate both study
// kinds. The document is marked ready only when every stage succeeded,
// including both generations. Failures leave the document in failed
// state with the cause recorded.
func (is *IngestionService) Ingest(ctx context.Context, ownerID, documentID string) error {
	start := time.Now()

	doc, err := is.store.GetDocumentAnyOwner(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	if doc.OwnerID != ownerID {
		return fmt.Errorf("document %s does not belong to owner %s", documentID, ownerID)
	}

	if err := is.store.SetDocumentStatus(ctx, documentID, models.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark document processing: %w", err)
	}

	if err := is.process(ctx, doc); err != nil {
		is.recordFailure(documentID, err)
		is.recordOutcome(start, "failed")
		return err
	}

	is.recordOutcome(start, "ready")
	logger.Info("document ingested", "document_id", documentID, "owner_id", ownerID, "duration", time.Since(start).String())
	return nil
}

func (is *IngestionService) process(ctx context.Context, doc *models.Document) error {
	documentID := doc.ID.Hex()

	text, err := is.extractText(ctx, doc)
	if err != nil {
		return err
	}

	chunkTexts := is.chunker.Split(text)
	if len(chunkTexts) == 0 {
		return fmt.Errorf("document %s produced no text", documentID)
	}

	now := time.Now()
	chunks := make([]models.DocumentChunk, len(chunkTexts))
	for i, chunkText := range chunkTexts {
		chunks[i] = models.DocumentChunk{
			DocumentID: documentID,
			OwnerID:    doc.OwnerID,
			Index:      i,
			Text:       chunkText,
			CharCount:  len(chunkText),
			CreatedAt:  now,
		}
	}

	if err := is.store.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if err := is.vectors.Upsert(ctx, doc.OwnerID, documentID, chunks); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	// Content changed, so any cached document embedding is stale.
	is.cache.Invalidate(ctx, documentID)

	if err := is.study.GenerateBoth(ctx, doc.OwnerID, documentID, text); err != nil {
		return fmt.Errorf("study generation incomplete: %w", err)
	}

	if err := is.store.MarkDocumentReady(ctx, documentID, len(chunks)); err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}
	return nil
}

// extractText prefers the PDF's native text layer and falls back to
// the asynchronous extraction backend for scans and non-PDF formats.
func (is *IngestionService) extractText(ctx context.Context, doc *models.Document) (string, error) {
	documentID := doc.ID.Hex()

	if strings.HasSuffix(strings.ToLower(doc.Name), ".pdf") {
		content, err := is.objects.Get(ctx, doc.ObjectKey)
		if err != nil {
			return "", fmt.Errorf("failed to fetch stored object: %w", err)
		}
		if text, err := ExtractNativePDFText(content); err == nil {
			logger.Debug("used native PDF text layer", "document_id", documentID)
			return text, nil
		} else {
			logger.Debug("native PDF extraction unavailable, using OCR", "document_id", documentID, "reason", err)
		}
	}

	text, err := is.extractor.Extract(ctx, doc.ObjectKey)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Regenerate rebuilds both study kinds from the already-stored chunk
// text without re-extracting the document.
func (is *IngestionService) Regenerate(ctx context.Context, ownerID, documentID string) error {
	doc, err := is.store.GetDocumentAnyOwner(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return database.ErrNotFound
	}

	text, _, err := is.store.GetDocumentText(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document text: %w", err)
	}
	if text == "" {
		return fmt.Errorf("document %s has no stored text", documentID)
	}

	if err := is.study.GenerateBoth(ctx, ownerID, documentID, text); err != nil {
		return fmt.Errorf("study regeneration incomplete: %w", err)
	}
	return is.store.MarkDocumentReady(ctx, documentID, doc.ChunkCount)
}

func (is *IngestionService) recordFailure(documentID string, cause error) {
	// Failure bookkeeping must survive the cancellation that may have
	// caused it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := is.store.SetDocumentStatus(ctx, documentID, models.StatusFailed, cause.Error()); err != nil {
		logger.Error("failed to record ingestion failure", "document_id", documentID, "error", err)
	}
	logger.Error("document ingestion failed", "document_id", documentID, "error", cause)
}

func (is *IngestionService) recordOutcome(start time.Time, outcome string) {
	if is.metrics != nil {
		is.metrics.RecordIngestion(time.Since(start).Seconds(), outcome)
	}
}
