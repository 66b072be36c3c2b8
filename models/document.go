package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document represents an uploaded source document and its ingestion state
type Document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      string             `bson:"owner_id" json:"owner_id"`
	Name         string             `bson:"name" json:"name"`
	ObjectKey    string             `bson:"object_key" json:"-"` // S3 key of the raw upload
	Visibility   string             `bson:"visibility" json:"visibility"`
	Status       string             `bson:"status" json:"status"`
	Ready        bool               `bson:"ready" json:"ready"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ChunkCount   int                `bson:"chunk_count" json:"chunk_count"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt  *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// Document processing status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Visibility constants
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// UploadResponse is the acknowledgment returned before ingestion completes
type UploadResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	TaskID   string `json:"task_id,omitempty"`
	Uploaded string `json:"uploaded_at"`
}
