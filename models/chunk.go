package models

import "time"

// DocumentChunk is a paragraph-respecting slice of a document's extracted
// text. Chunks are immutable once written and keyed by (document_id, index).
type DocumentChunk struct {
	DocumentID string    `bson:"document_id" json:"document_id"`
	OwnerID    string    `bson:"owner_id" json:"owner_id"`
	Index      int       `bson:"index" json:"index"`
	Text       string    `bson:"text" json:"text"`
	CharCount  int       `bson:"char_count" json:"char_count"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
