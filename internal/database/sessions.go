package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studymate-platform/models"
)

// EnsureSession creates the owner's session with the seed message if absent.
// The upsert is a no-op when the session already exists, so calling it on
// every chat turn is safe.
func (s *Store) EnsureSession(ctx context.Context, ownerID string, seed models.ChatMessage) error {
	now := time.Now()
	_, err := s.sessions.UpdateOne(ctx,
		bson.M{"owner_id": ownerID},
		bson.M{"$setOnInsert": bson.M{
			"owner_id":   ownerID,
			"messages":   []models.ChatMessage{seed},
			"metadata":   bson.M{},
			"created_at": now,
			"updated_at": now,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, ownerID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.sessions.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendMessages pushes messages onto the session's history in one atomic
// update. Interleaving safety under concurrent senders comes from Mongo's
// single-document atomicity, not from any in-process lock.
func (s *Store) AppendMessages(ctx context.Context, ownerID string, messages ...models.ChatMessage) error {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"owner_id": ownerID},
		bson.M{
			"$push": bson.M{"messages": bson.M{"$each": messages}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetSession replaces the history with a single fresh seed message,
// creating the session if absent. The session record itself is never deleted.
func (s *Store) ResetSession(ctx context.Context, ownerID string, seed models.ChatMessage) error {
	now := time.Now()
	_, err := s.sessions.UpdateOne(ctx,
		bson.M{"owner_id": ownerID},
		bson.M{
			"$set": bson.M{
				"messages":   []models.ChatMessage{seed},
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"owner_id":   ownerID,
				"metadata":   bson.M{},
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
