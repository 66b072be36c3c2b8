package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"studymate-platform/internal/logger"
)

const (
	TaskDocumentIngest = "document:ingest"
	TaskStudyRegen     = "study:regenerate"
)

type DocumentIngestPayload struct {
	OwnerID    string `json:"owner_id"`
	DocumentID string `json:"document_id"`
}

type StudyRegenPayload struct {
	OwnerID    string `json:"owner_id"`
	DocumentID string `json:"document_id"`
}

// NewDocumentIngestTask enqueues a full ingestion run for an uploaded
// document.
func NewDocumentIngestTask(ownerID, documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentIngestPayload{
		OwnerID:    ownerID,
		DocumentID: documentID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// NewStudyRegenTask enqueues a study-set regeneration from already
// stored chunks.
func NewStudyRegenTask(ownerID, documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(StudyRegenPayload{
		OwnerID:    ownerID,
		DocumentID: documentID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskStudyRegen,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Ingestor is the worker-side surface that actually processes
// documents.
type Ingestor interface {
	Ingest(ctx context.Context, ownerID, documentID string) error
	Regenerate(ctx context.Context, ownerID, documentID string) error
}

// TaskProcessor binds queue tasks to the ingestion service.
type TaskProcessor struct {
	ingestor Ingestor
}

func NewTaskProcessor(ingestor Ingestor) *TaskProcessor {
	return &TaskProcessor{ingestor: ingestor}
}

func (p *TaskProcessor) HandleDocumentIngest(ctx context.Context, t *asynq.Task) error {
	var payload DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("processing document ingest task", "owner_id", payload.OwnerID, "document_id", payload.DocumentID)
	return p.ingestor.Ingest(ctx, payload.OwnerID, payload.DocumentID)
}

func (p *TaskProcessor) HandleStudyRegen(ctx context.Context, t *asynq.Task) error {
	var payload StudyRegenPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("processing study regeneration task", "owner_id", payload.OwnerID, "document_id", payload.DocumentID)
	return p.ingestor.Regenerate(ctx, payload.OwnerID, payload.DocumentID)
}
