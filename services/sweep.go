package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"studymate-platform/internal/logger"
	"studymate-platform/models"
)

// StuckDocumentLister finds documents that entered processing but
// never reached a terminal state.
type StuckDocumentLister interface {
	ListStuckDocuments(ctx context.Context, threshold time.Duration) ([]models.Document, error)
}

// IngestionSweeper periodically reports documents stuck in processing
// so operators can investigate. It never retries them on its own.
type IngestionSweeper struct {
	store     StuckDocumentLister
	threshold time.Duration
	scheduler *gocron.Scheduler
}

func NewIngestionSweeper(store StuckDocumentLister, threshold time.Duration) *IngestionSweeper {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &IngestionSweeper{
		store:     store,
		threshold: threshold,
		scheduler: s,
	}
}

// Start schedules the sweep at the given interval and runs the
// scheduler in the background.
func (sw *IngestionSweeper) Start(interval time.Duration) error {
	_, err := sw.scheduler.Every(interval).Tag("stuck-ingestion-sweep").Do(sw.Sweep)
	if err != nil {
		return err
	}
	sw.scheduler.StartAsync()
	return nil
}

func (sw *IngestionSweeper) Stop() {
	sw.scheduler.Stop()
}

// Sweep logs one warning per stuck document.
func (sw *IngestionSweeper) Sweep() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stuck, err := sw.store.ListStuckDocuments(ctx, sw.threshold)
	if err != nil {
		logger.Error("stuck ingestion sweep failed", "error", err)
		return err
	}

	for _, doc := range stuck {
		logger.Warn("document stuck in processing",
			"document_id", doc.ID.Hex(),
			"owner_id", doc.OwnerID,
			"name", doc.Name,
			"uploaded_at", doc.UploadedAt,
		)
	}
	if len(stuck) > 0 {
		logger.Info("stuck ingestion sweep completed", "stuck_count", len(stuck))
	}
	return nil
}
