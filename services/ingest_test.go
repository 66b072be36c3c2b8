package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studymate-platform/models"
)

type fakeDocStore struct {
	doc        *models.Document
	status     string
	errMessage string
	readyCount int
	chunks     []models.DocumentChunk
	text       string
}

func (f *fakeDocStore) GetDocumentAnyOwner(ctx context.Context, documentID string) (*models.Document, error) {
	if f.doc == nil {
		return nil, errors.New("document not found")
	}
	return f.doc, nil
}

func (f *fakeDocStore) SetDocumentStatus(ctx context.Context, documentID, status, errorMessage string) error {
	f.status = status
	f.errMessage = errorMessage
	return nil
}

func (f *fakeDocStore) MarkDocumentReady(ctx context.Context, documentID string, chunkCount int) error {
	f.status = models.StatusReady
	f.readyCount = chunkCount
	return nil
}

func (f *fakeDocStore) ReplaceChunks(ctx context.Context, documentID string, chunks []models.DocumentChunk) error {
	f.chunks = chunks
	return nil
}

func (f *fakeDocStore) GetDocumentText(ctx context.Context, documentID string) (string, int, error) {
	return f.text, len(f.chunks), nil
}

type fakeObjects struct {
	data []byte
	err  error
}

func (f *fakeObjects) Get(ctx context.Context, key string) ([]byte, error) {
	return f.data, f.err
}

type fakeVectors struct {
	upserts int
	err     error
}

func (f *fakeVectors) Upsert(ctx context.Context, ownerID, documentID string, chunks []models.DocumentChunk) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	return nil
}

func goodStudyGenerator(store StudySetStore) *StudyGenerator {
	return NewStudyGenerator(&fakeJSONGenerator{
		flashRaw: []byte(`[{"front":"term","back":"definition"}]`),
		quizRaw:  []byte(`[{"question":"Q","answer":"a","options":{"a":"1","b":"2"}}]`),
	}, store, nil)
}

func testDocument(ownerID, name string) *models.Document {
	return &models.Document{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Name:      name,
		ObjectKey: "uploads/" + name,
		Status:    models.StatusPending,
	}
}

func newTestIngestion(store *fakeDocStore, objects ObjectGetter, extractor ExtractionClient, vectors VectorWriter, study *StudyGenerator) *IngestionService {
	poller := NewExtractionPoller(extractor, time.Millisecond, time.Second)
	return NewIngestionService(store, objects, poller, NewChunkerService(1500), vectors, study, nil, nil)
}

func TestIngestHappyPath(t *testing.T) {
	doc := testDocument("owner-1", "notes.txt")
	store := &fakeDocStore{doc: doc}
	extractor := &scriptedExtractor{
		jobID: "job-1",
		statuses: []*ExtractionStatus{
			{State: ExtractionSucceeded, Lines: []string{"First paragraph.", "", "Second paragraph."}},
		},
	}
	vectors := &fakeVectors{}
	studyStore := &recordingStudyStore{}

	svc := newTestIngestion(store, &fakeObjects{}, extractor, vectors, goodStudyGenerator(studyStore))

	if err := svc.Ingest(context.Background(), "owner-1", doc.ID.Hex()); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if store.status != models.StatusReady {
		t.Errorf("document status = %s, want ready", store.status)
	}
	if len(store.chunks) == 0 {
		t.Fatal("no chunks stored")
	}
	if store.readyCount != len(store.chunks) {
		t.Errorf("ready chunk count = %d, stored %d chunks", store.readyCount, len(store.chunks))
	}
	if vectors.upserts != 1 {
		t.Errorf("vector upserts = %d, want 1", vectors.upserts)
	}
	if len(studyStore.sets) != 2 {
		t.Errorf("study sets stored = %d, want flashcards and quiz", len(studyStore.sets))
	}
	for i, chunk := range store.chunks {
		if chunk.Index != i || chunk.OwnerID != "owner-1" {
			t.Errorf("chunk %d badly formed: %+v", i, chunk)
		}
	}
}

func TestIngestExtractionFailureMarksFailed(t *testing.T) {
	doc := testDocument("owner-1", "scan.png")
	store := &fakeDocStore{doc: doc}
	extractor := &scriptedExtractor{
		jobID:    "job-2",
		statuses: []*ExtractionStatus{{State: ExtractionFailed, Message: "bad input"}},
	}

	svc := newTestIngestion(store, &fakeObjects{}, extractor, &fakeVectors{}, goodStudyGenerator(&recordingStudyStore{}))

	err := svc.Ingest(context.Background(), "owner-1", doc.ID.Hex())
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Ingest error = %v, want ErrExtractionFailed", err)
	}
	if store.status != models.StatusFailed {
		t.Errorf("document status = %s, want failed", store.status)
	}
	if store.errMessage == "" {
		t.Error("failure cause not recorded on the document")
	}
}

func TestIngestVectorWriteFailsHard(t *testing.T) {
	doc := testDocument("owner-1", "notes.txt")
	store := &fakeDocStore{doc: doc}
	extractor := &scriptedExtractor{
		jobID:    "job-3",
		statuses: []*ExtractionStatus{{State: ExtractionSucceeded, Lines: []string{"some content here"}}},
	}
	vectors := &fakeVectors{err: errors.New("qdrant down")}

	svc := newTestIngestion(store, &fakeObjects{}, extractor, vectors, goodStudyGenerator(&recordingStudyStore{}))

	if err := svc.Ingest(context.Background(), "owner-1", doc.ID.Hex()); err == nil {
		t.Fatal("vector indexing failure must fail ingestion")
	}
	if store.status != models.StatusFailed {
		t.Errorf("document status = %s, want failed", store.status)
	}
}

func TestIngestStudyFailureLeavesNotReady(t *testing.T) {
	doc := testDocument("owner-1", "notes.txt")
	store := &fakeDocStore{doc: doc}
	extractor := &scriptedExtractor{
		jobID:    "job-4",
		statuses: []*ExtractionStatus{{State: ExtractionSucceeded, Lines: []string{"some content here"}}},
	}
	study := NewStudyGenerator(&fakeJSONGenerator{
		flashRaw: []byte(`[{"front":"term","back":"definition"}]`),
		quizErr:  errors.New("model unavailable"),
	}, &recordingStudyStore{}, nil)

	svc := newTestIngestion(store, &fakeObjects{}, extractor, &fakeVectors{}, study)

	if err := svc.Ingest(context.Background(), "owner-1", doc.ID.Hex()); err == nil {
		t.Fatal("incomplete study generation must fail ingestion")
	}
	if store.status != models.StatusFailed {
		t.Errorf("document status = %s, want failed until both study kinds exist", store.status)
	}
	if store.readyCount != 0 {
		t.Error("document must not be marked ready")
	}
}

func TestIngestRejectsWrongOwner(t *testing.T) {
	doc := testDocument("owner-1", "notes.txt")
	store := &fakeDocStore{doc: doc}

	svc := newTestIngestion(store, &fakeObjects{}, &scriptedExtractor{}, &fakeVectors{}, goodStudyGenerator(&recordingStudyStore{}))

	if err := svc.Ingest(context.Background(), "intruder", doc.ID.Hex()); err == nil {
		t.Fatal("ingesting another owner's document must fail")
	}
}

func TestRegenerateUsesStoredText(t *testing.T) {
	doc := testDocument("owner-1", "notes.txt")
	doc.ChunkCount = 3
	store := &fakeDocStore{doc: doc, text: "stored chunk text"}
	studyStore := &recordingStudyStore{}

	svc := newTestIngestion(store, &fakeObjects{}, &scriptedExtractor{}, &fakeVectors{}, goodStudyGenerator(studyStore))

	if err := svc.Regenerate(context.Background(), "owner-1", doc.ID.Hex()); err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(studyStore.sets) != 2 {
		t.Errorf("regeneration stored %d sets, want 2", len(studyStore.sets))
	}
	if store.status != models.StatusReady {
		t.Errorf("document status = %s, want ready after regeneration", store.status)
	}
}
