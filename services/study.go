package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"studymate-platform/internal/logger"
	"studymate-platform/internal/telemetry"
	"studymate-platform/models"
)

// ErrInvalidStudyPayload is returned when the model produces JSON that
// does not satisfy the study-set schema.
var ErrInvalidStudyPayload = errors.New("generated study payload does not match schema")

// generationTextCap bounds how much document text is sent per
// generation request.
const generationTextCap = 30000

// JSONGenerator runs a schema-constrained generation.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error)
}

// StudySetStore persists generated study sets.
type StudySetStore interface {
	UpsertStudySet(ctx context.Context, set *models.StudySet) error
}

// StudyGenerator produces flashcards and quizzes from document text
// using schema-constrained model output.
type StudyGenerator struct {
	ai      JSONGenerator
	store   StudySetStore
	metrics *telemetry.Metrics
}

func NewStudyGenerator(ai JSONGenerator, store StudySetStore, metrics *telemetry.Metrics) *StudyGenerator {
	return &StudyGenerator{ai: ai, store: store, metrics: metrics}
}

var flashcardSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"front": {Type: genai.TypeString, Description: "The question or term on the front of the card"},
			"back":  {Type: genai.TypeString, Description: "The answer or definition on the back of the card"},
		},
		Required: []string{"front", "back"},
	},
}

var quizSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString},
			"answer":   {Type: genai.TypeString, Description: "The key of the correct option, e.g. \"b\""},
			"options": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"a": {Type: genai.TypeString},
					"b": {Type: genai.TypeString},
					"c": {Type: genai.TypeString},
					"d": {Type: genai.TypeString},
				},
				Required: []string{"a", "b", "c", "d"},
			},
		},
		Required: []string{"question", "answer", "options"},
	},
}

// GenerateBoth generates and persists both study kinds for a document.
// The two generations are independent: a failure in one kind does not
// prevent the other from being stored. The returned error aggregates
// whatever failed.
func (sg *StudyGenerator) GenerateBoth(ctx context.Context, ownerID, documentID, text string) error {
	flashErr := sg.GenerateFlashcards(ctx, ownerID, documentID, text)
	if flashErr != nil {
		logger.Error("flashcard generation failed", "document_id", documentID, "error", flashErr)
	}

	quizErr := sg.GenerateQuiz(ctx, ownerID, documentID, text)
	if quizErr != nil {
		logger.Error("quiz generation failed", "document_id", documentID, "error", quizErr)
	}

	return errors.Join(flashErr, quizErr)
}

// GenerateFlashcards generates a flashcard set and replaces any
// previous set for the document wholesale.
func (sg *StudyGenerator) GenerateFlashcards(ctx context.Context, ownerID, documentID, text string) error {
	prompt := fmt.Sprintf(`Create 10 to 20 flashcards from the study material below. Each card has a "front" with a key term or question and a "back" with a concise answer or definition. Cover the most important concepts and stay strictly within the material.

STUDY MATERIAL:
%s`, capText(text))

	raw, err := sg.ai.GenerateJSON(ctx, prompt, flashcardSchema)
	if err != nil {
		return fmt.Errorf("flashcard generation request failed: %w", err)
	}

	cards, err := parseFlashcards(raw)
	if err != nil {
		return err
	}

	set := &models.StudySet{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Kind:       models.StudyKindFlashcards,
		Flashcards: cards,
	}
	if err := sg.store.UpsertStudySet(ctx, set); err != nil {
		return fmt.Errorf("failed to store flashcards: %w", err)
	}

	if sg.metrics != nil {
		sg.metrics.RecordStudySet(models.StudyKindFlashcards)
	}
	return nil
}

// GenerateQuiz generates a multiple-choice quiz and replaces any
// previous quiz for the document wholesale.
func (sg *StudyGenerator) GenerateQuiz(ctx context.Context, ownerID, documentID, text string) error {
	prompt := fmt.Sprintf(`Create 8 to 15 multiple-choice quiz questions from the study material below. Each question has exactly four options keyed "a" through "d" and an "answer" holding the key of the correct option. Make distractors plausible and stay strictly within the material.

STUDY MATERIAL:
%s`, capText(text))

	raw, err := sg.ai.GenerateJSON(ctx, prompt, quizSchema)
	if err != nil {
		return fmt.Errorf("quiz generation request failed: %w", err)
	}

	items, err := parseQuizItems(raw)
	if err != nil {
		return err
	}

	set := &models.StudySet{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Kind:       models.StudyKindQuiz,
		QuizItems:  items,
	}
	if err := sg.store.UpsertStudySet(ctx, set); err != nil {
		return fmt.Errorf("failed to store quiz: %w", err)
	}

	if sg.metrics != nil {
		sg.metrics.RecordStudySet(models.StudyKindQuiz)
	}
	return nil
}

func parseFlashcards(raw []byte) ([]models.Flashcard, error) {
	var cards []models.Flashcard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStudyPayload, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: empty flashcard list", ErrInvalidStudyPayload)
	}
	for i, card := range cards {
		if card.Front == "" || card.Back == "" {
			return nil, fmt.Errorf("%w: flashcard %d has an empty side", ErrInvalidStudyPayload, i)
		}
	}
	return cards, nil
}

func parseQuizItems(raw []byte) ([]models.QuizItem, error) {
	var items []models.QuizItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStudyPayload, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty quiz", ErrInvalidStudyPayload)
	}
	for i, item := range items {
		if item.Question == "" || item.Answer == "" {
			return nil, fmt.Errorf("%w: quiz item %d is incomplete", ErrInvalidStudyPayload, i)
		}
		if len(item.Options) < 2 {
			return nil, fmt.Errorf("%w: quiz item %d has fewer than two options", ErrInvalidStudyPayload, i)
		}
		if _, ok := item.Options[item.Answer]; !ok {
			return nil, fmt.Errorf("%w: quiz item %d answer %q is not an option key", ErrInvalidStudyPayload, i, item.Answer)
		}
	}
	return items, nil
}

func capText(text string) string {
	if len(text) > generationTextCap {
		return text[:generationTextCap]
	}
	return text
}
