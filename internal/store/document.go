package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"approval-console/internal/model"
)

type DocumentStore struct {
	coll *mongo.Collection
}

func NewDocumentStore(ctx context.Context, db *MongoDB) (*DocumentStore, error) {
	coll := db.Collection(model.DocumentsCollection)

	if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create documents indexes: %w", err)
	}

	return &DocumentStore{coll: coll}, nil
}

// List returns documents in insertion order, optionally filtered by status.
func (s *DocumentStore) List(ctx context.Context, status model.DocumentStatus) ([]*model.Document, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	results := []*model.Document{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return results, nil
}

// DecidePending moves the PENDING documents among ids to status with reason and
// returns how many changed. Documents already decided are left alone.
func (s *DocumentStore) DecidePending(ctx context.Context, ids []bson.ObjectID, status model.DocumentStatus, reason string, at time.Time) (int64, error) {
	filter := bson.M{
		"_id":    bson.M{"$in": ids},
		"status": model.StatusPending,
	}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"reason":     reason,
		"updated_at": at,
	}}
	res, err := s.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("update documents: %w", err)
	}
	return res.ModifiedCount, nil
}

// InsertMany inserts docs and sets their IDs.
func (s *DocumentStore) InsertMany(ctx context.Context, docs []*model.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert documents: %w", err)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(bson.ObjectID); ok {
			docs[i].ID = oid
		}
	}
	return len(res.InsertedIDs), nil
}

func (s *DocumentStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}
