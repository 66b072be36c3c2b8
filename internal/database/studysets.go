package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studymate-platform/models"
)

// UpsertStudySet replaces the full item list for (owner, document, kind).
// Regeneration is always wholesale; there is no incremental update.
func (s *Store) UpsertStudySet(ctx context.Context, set *models.StudySet) error {
	set.GeneratedAt = time.Now()
	_, err := s.studySets.ReplaceOne(ctx,
		bson.M{
			"owner_id":    set.OwnerID,
			"document_id": set.DocumentID,
			"kind":        set.Kind,
		},
		set,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *Store) GetStudySet(ctx context.Context, ownerID, documentID, kind string) (*models.StudySet, error) {
	var set models.StudySet
	err := s.studySets.FindOne(ctx, bson.M{
		"owner_id":    ownerID,
		"document_id": documentID,
		"kind":        kind,
	}).Decode(&set)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// GetStudySetAnyOwner fetches a candidate's shared study set for the
// suggestion response, without the owner filter.
func (s *Store) GetStudySetAnyOwner(ctx context.Context, documentID, kind string) (*models.StudySet, error) {
	var set models.StudySet
	err := s.studySets.FindOne(ctx, bson.M{
		"document_id": documentID,
		"kind":        kind,
	}).Decode(&set)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

