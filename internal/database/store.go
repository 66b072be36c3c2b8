package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studymate-platform/models"
)

// ErrNotFound is returned for missing documents, sessions, and study sets.
var ErrNotFound = errors.New("not found")

// Store is the metadata layer over MongoDB. Tenant isolation is by owner_id
// on every record; the backing store's atomic upsert/append operations are
// what make concurrent writers safe.
type Store struct {
	documents *mongo.Collection
	chunks    *mongo.Collection
	sessions  *mongo.Collection
	studySets *mongo.Collection
}

func NewStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		documents: db.Collection("documents"),
		chunks:    db.Collection("chunks"),
		sessions:  db.Collection("chat_sessions"),
		studySets: db.Collection("study_sets"),
	}
}

// CreateDocument inserts a new document record and returns its hex id.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) (string, error) {
	doc.ID = primitive.NewObjectID()
	doc.UploadedAt = time.Now()
	doc.Status = models.StatusPending
	doc.Ready = false

	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) GetDocument(ctx context.Context, ownerID, documentID string) (*models.Document, error) {
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc models.Document
	err = s.documents.FindOne(ctx, bson.M{"_id": objID, "owner_id": ownerID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocumentAnyOwner looks a document up without the owner filter. Used by
// the similarity engine, which reads cross-tenant candidates.
func (s *Store) GetDocumentAnyOwner(ctx context.Context, documentID string) (*models.Document, error) {
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc models.Document
	err = s.documents.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	cursor, err := s.documents.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListCandidateDocuments returns ready public documents owned by anyone
// except the given owner. These are the similarity engine's candidates.
func (s *Store) ListCandidateDocuments(ctx context.Context, excludeOwnerID string) ([]models.Document, error) {
	cursor, err := s.documents.Find(ctx, bson.M{
		"owner_id":   bson.M{"$ne": excludeOwnerID},
		"ready":      true,
		"visibility": models.VisibilityPublic,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) SetDocumentStatus(ctx context.Context, documentID, status, errorMessage string) error {
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"status": status}
	if errorMessage != "" {
		update["error_message"] = errorMessage
	}

	_, err = s.documents.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	return err
}

// MarkDocumentReady flips the monotonic ready flag. It never unsets it.
func (s *Store) MarkDocumentReady(ctx context.Context, documentID string, chunkCount int) error {
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return ErrNotFound
	}

	now := time.Now()
	_, err = s.documents.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"ready":        true,
			"status":       models.StatusReady,
			"chunk_count":  chunkCount,
			"processed_at": now,
		},
	})
	return err
}

// DeleteDocument removes the document record and cascades its chunks and
// study sets. The caller is responsible for vector-store and object cleanup.
func (s *Store) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.documents.DeleteOne(ctx, bson.M{"_id": objID, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return err
	}
	_, err = s.studySets.DeleteMany(ctx, bson.M{"document_id": documentID})
	return err
}

// ReplaceChunks swaps a document's chunk set wholesale, keeping re-ingestion
// idempotent at the storage layer.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []models.DocumentChunk) error {
	if _, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, len(chunks))
	for i := range chunks {
		docs[i] = chunks[i]
	}
	_, err := s.chunks.InsertMany(ctx, docs)
	return err
}

// GetDocumentText concatenates a document's chunks in index order. The chunk
// count is returned alongside so callers can key caches on it.
func (s *Store) GetDocumentText(ctx context.Context, documentID string) (string, int, error) {
	cursor, err := s.chunks.Find(ctx, bson.M{"document_id": documentID},
		options.Find().SetSort(bson.D{{Key: "index", Value: 1}}))
	if err != nil {
		return "", 0, err
	}
	defer cursor.Close(ctx)

	var chunks []models.DocumentChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return "", 0, err
	}
	if len(chunks) == 0 {
		return "", 0, nil
	}

	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Text
	}
	return strings.Join(parts, "\n\n"), len(chunks), nil
}

// ListStuckDocuments finds documents sitting in processing longer than the
// threshold. The sweep only reports them; failures stay sticky.
func (s *Store) ListStuckDocuments(ctx context.Context, threshold time.Duration) ([]models.Document, error) {
	cutoff := time.Now().Add(-threshold)
	cursor, err := s.documents.Find(ctx, bson.M{
		"status":      models.StatusProcessing,
		"uploaded_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
