package models

// SimilarityCandidate is an ephemeral cross-owner match computed on demand.
// Scores are cosine similarities, so they lie in [-1, 1].
type SimilarityCandidate struct {
	DocumentID string  `json:"document_id"`
	OwnerID    string  `json:"owner_id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// SuggestedSet pairs a candidate document with its shared study material
type SuggestedSet struct {
	DocumentID   string      `json:"document_id"`
	DocumentName string      `json:"document_name"`
	OwnerID      string      `json:"owner_id"`
	Score        float64     `json:"score"`
	Flashcards   []Flashcard `json:"flashcards,omitempty"`
	QuizItems    []QuizItem  `json:"quiz_items,omitempty"`
}

// SuggestionResponse groups suggested material by kind
type SuggestionResponse struct {
	Flashcards []SuggestedSet `json:"flashcards"`
	Quizzes    []SuggestedSet `json:"quizzes"`
}
