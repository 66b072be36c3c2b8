package models

import "time"

// Study material kinds
const (
	StudyKindFlashcards = "flashcards"
	StudyKindQuiz       = "quiz"
)

// Flashcard is a single front/back card generated from document content
type Flashcard struct {
	Front string `bson:"front" json:"front"`
	Back  string `bson:"back" json:"back"`
}

// QuizItem is a multiple-choice question. Options map answer keys
// ("a".."d") to option text; Answer holds the correct key.
type QuizItem struct {
	Question string            `bson:"question" json:"question"`
	Answer   string            `bson:"answer" json:"answer"`
	Options  map[string]string `bson:"options" json:"options"`
}

// StudySet is the full generated artifact for one (owner, document, kind).
// Regeneration replaces the item list wholesale.
type StudySet struct {
	OwnerID     string      `bson:"owner_id" json:"owner_id"`
	DocumentID  string      `bson:"document_id" json:"document_id"`
	Kind        string      `bson:"kind" json:"kind"`
	Flashcards  []Flashcard `bson:"flashcards,omitempty" json:"flashcards,omitempty"`
	QuizItems   []QuizItem  `bson:"quiz_items,omitempty" json:"quiz_items,omitempty"`
	GeneratedAt time.Time   `bson:"generated_at" json:"generated_at"`
}
