package repository

import (
	"context"
	"fmt"
	"time"

	"flightsurety-ledger/internal/domain/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	eventCollection   = "ledger_events"
	indexSetupTimeout = 10 * time.Second
)

// eventDocument is the stored form of an event. Seq is an ObjectID assigned
// in append order and is the listing order; OccurredAt only keeps
// millisecond precision in Mongo.
type eventDocument struct {
	entity.Event `bson:",inline"`
	Seq          primitive.ObjectID `bson:"seq"`
}

func newEventDocuments(events []entity.Event) []interface{} {
	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		docs = append(docs, eventDocument{Event: e, Seq: primitive.NewObjectID()})
	}
	return docs
}

// MongoEventRepository implements EventRepository
type MongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates the event log repository and its indexes
func NewMongoEventRepository(ctx context.Context, db *mongo.Database) (*MongoEventRepository, error) {
	collection := db.Collection(eventCollection)

	ctx, cancel := context.WithTimeout(ctx, indexSetupTimeout)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Newest-first listing
		{Keys: bson.D{{Key: "seq", Value: -1}}},
		// Filtering by event kind
		{Keys: bson.D{{Key: "type", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event indexes: %w", err)
	}

	return &MongoEventRepository{
		collection: collection,
	}, nil
}

// Append stores events in order
func (r *MongoEventRepository) Append(ctx context.Context, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	_, err := r.collection.InsertMany(ctx, newEventDocuments(events), options.InsertMany().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to insert events: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first
func (r *MongoEventRepository) ListRecent(ctx context.Context, limit int) ([]entity.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	events := make([]entity.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.Event)
	}
	return events, nil
}
