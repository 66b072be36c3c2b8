package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studymate-platform/internal/database"
	"studymate-platform/models"
)

type fakeSuggestionStore struct {
	ownerDocs  []models.Document
	candidates []models.Document
	texts      map[string]string
	studySets  map[string]*models.StudySet // keyed documentID + ":" + kind
}

func (f *fakeSuggestionStore) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	return f.ownerDocs, nil
}

func (f *fakeSuggestionStore) ListCandidateDocuments(ctx context.Context, excludeOwnerID string) ([]models.Document, error) {
	return f.candidates, nil
}

func (f *fakeSuggestionStore) GetDocumentText(ctx context.Context, documentID string) (string, int, error) {
	text, ok := f.texts[documentID]
	if !ok {
		return "", 0, database.ErrNotFound
	}
	return text, 1, nil
}

func (f *fakeSuggestionStore) GetStudySetAnyOwner(ctx context.Context, documentID, kind string) (*models.StudySet, error) {
	set, ok := f.studySets[documentID+":"+kind]
	if !ok {
		return nil, database.ErrNotFound
	}
	return set, nil
}

// vectorEmbedder maps exact texts to fixed vectors.
type vectorEmbedder struct {
	vectors map[string][]float32
}

func (v *vectorEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, ok := v.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text")
	}
	return vector, nil
}

func makeDoc(ownerID, name string, ready bool) models.Document {
	return models.Document{
		ID:      primitive.NewObjectID(),
		OwnerID: ownerID,
		Name:    name,
		Ready:   ready,
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := cosineSimilarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors scored %f, want 1", got)
	}
	if got := cosineSimilarity(a, []float32{0, 1, 0}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors scored %f, want 0", got)
	}
	if got := cosineSimilarity(a, []float32{0, 0}); got != 0 {
		t.Errorf("mismatched lengths scored %f, want 0", got)
	}
	if got := cosineSimilarity(a, []float32{0, 0, 0}); got != 0 {
		t.Errorf("zero vector scored %f, want 0", got)
	}
}

func TestSuggestRanksByBestSimilarity(t *testing.T) {
	ownerDoc := makeDoc("me", "biology notes", true)
	closeDoc := makeDoc("alice", "cell biology", true)
	farDoc := makeDoc("bob", "roman history", true)

	store := &fakeSuggestionStore{
		ownerDocs:  []models.Document{ownerDoc},
		candidates: []models.Document{farDoc, closeDoc},
		texts: map[string]string{
			ownerDoc.ID.Hex(): "owner text",
			closeDoc.ID.Hex(): "close text",
			farDoc.ID.Hex():   "far text",
		},
		studySets: map[string]*models.StudySet{
			closeDoc.ID.Hex() + ":" + models.StudyKindFlashcards: {
				Flashcards: []models.Flashcard{{Front: "Cell", Back: "Basic unit of life"}},
			},
			closeDoc.ID.Hex() + ":" + models.StudyKindQuiz: {
				QuizItems: []models.QuizItem{{Question: "Q", Answer: "a", Options: map[string]string{"a": "x", "b": "y"}}},
			},
			farDoc.ID.Hex() + ":" + models.StudyKindFlashcards: {
				Flashcards: []models.Flashcard{{Front: "Caesar", Back: "Roman general"}},
			},
		},
	}
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		"owner text": {1, 0, 0},
		"close text": {0.9, 0.1, 0},
		"far text":   {0, 0, 1},
	}}

	svc := NewSuggestionService(store, embedder, nil, 2, 20, nil)

	resp, err := svc.Suggest(context.Background(), "me", 10)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(resp.Flashcards) != 2 {
		t.Fatalf("got %d flashcard suggestions, want 2", len(resp.Flashcards))
	}
	if resp.Flashcards[0].DocumentID != closeDoc.ID.Hex() {
		t.Errorf("closest document should rank first, got %s", resp.Flashcards[0].DocumentName)
	}
	if resp.Flashcards[0].Score <= resp.Flashcards[1].Score {
		t.Errorf("scores not descending: %f then %f", resp.Flashcards[0].Score, resp.Flashcards[1].Score)
	}
	if len(resp.Quizzes) != 1 {
		t.Fatalf("got %d quiz suggestions, want only the candidate that has a quiz", len(resp.Quizzes))
	}
}

func TestSuggestHonorsLimit(t *testing.T) {
	ownerDoc := makeDoc("me", "notes", true)
	store := &fakeSuggestionStore{
		ownerDocs: []models.Document{ownerDoc},
		texts:     map[string]string{ownerDoc.ID.Hex(): "owner text"},
		studySets: map[string]*models.StudySet{},
	}
	embedder := &vectorEmbedder{vectors: map[string][]float32{"owner text": {1, 0}}}

	for i := 0; i < 5; i++ {
		doc := makeDoc("other", "candidate", true)
		store.candidates = append(store.candidates, doc)
		text := doc.ID.Hex()
		store.texts[doc.ID.Hex()] = text
		embedder.vectors[text] = []float32{1, 0}
		store.studySets[doc.ID.Hex()+":"+models.StudyKindFlashcards] = &models.StudySet{
			Flashcards: []models.Flashcard{{Front: "f", Back: "b"}},
		}
	}

	svc := NewSuggestionService(store, embedder, nil, 4, 20, nil)
	resp, err := svc.Suggest(context.Background(), "me", 2)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(resp.Flashcards) != 2 {
		t.Errorf("limit 2 returned %d suggestions", len(resp.Flashcards))
	}
}

func TestSuggestEmbeddingFailureScoresZero(t *testing.T) {
	ownerDoc := makeDoc("me", "notes", true)
	goodDoc := makeDoc("alice", "good", true)
	badDoc := makeDoc("bob", "unembeddable", true)

	store := &fakeSuggestionStore{
		ownerDocs:  []models.Document{ownerDoc},
		candidates: []models.Document{badDoc, goodDoc},
		texts: map[string]string{
			ownerDoc.ID.Hex(): "owner text",
			goodDoc.ID.Hex():  "good text",
			badDoc.ID.Hex():   "bad text", // no vector registered
		},
		studySets: map[string]*models.StudySet{
			goodDoc.ID.Hex() + ":" + models.StudyKindFlashcards: {Flashcards: []models.Flashcard{{Front: "f", Back: "b"}}},
			badDoc.ID.Hex() + ":" + models.StudyKindFlashcards:  {Flashcards: []models.Flashcard{{Front: "g", Back: "h"}}},
		},
	}
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		"owner text": {1, 0},
		"good text":  {1, 0},
	}}

	svc := NewSuggestionService(store, embedder, nil, 2, 20, nil)
	resp, err := svc.Suggest(context.Background(), "me", 10)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(resp.Flashcards) != 2 {
		t.Fatalf("got %d suggestions, want both candidates", len(resp.Flashcards))
	}
	if resp.Flashcards[0].DocumentID != goodDoc.ID.Hex() {
		t.Error("embeddable candidate should outrank the failed one")
	}
	if resp.Flashcards[1].Score != 0 {
		t.Errorf("failed pair score = %f, want 0", resp.Flashcards[1].Score)
	}
}

func TestSuggestEmptyWithoutOwnerDocs(t *testing.T) {
	store := &fakeSuggestionStore{
		candidates: []models.Document{makeDoc("alice", "doc", true)},
		texts:      map[string]string{},
		studySets:  map[string]*models.StudySet{},
	}
	svc := NewSuggestionService(store, &vectorEmbedder{}, nil, 2, 20, nil)

	resp, err := svc.Suggest(context.Background(), "me", 5)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(resp.Flashcards) != 0 || len(resp.Quizzes) != 0 {
		t.Error("no owner documents should yield no suggestions")
	}
}
