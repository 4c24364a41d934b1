package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"risewith9-sales-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVisitRepository implements VisitRepository using MongoDB. Visit
// events are append-only documents; stats are computed with an aggregation.
type MongoVisitRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoVisitRepository creates a new MongoDB visit repository.
func NewMongoVisitRepository(uri, database, collection string) (*MongoVisitRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "visited_at", Value: -1}},
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("[MongoDB] Warning: failed to create index: %v", err)
	}

	log.Printf("[MongoDB] Visit log connected to %s/%s", database, collection)
	return &MongoVisitRepository{client: client, collection: coll}, nil
}

type visitDocument struct {
	SessionID string    `bson:"session_id"`
	BuyerID   string    `bson:"buyer_id"`
	UnitID    string    `bson:"unit_id"`
	Room      string    `bson:"room"`
	Minutes   float64   `bson:"minutes"`
	VisitedAt time.Time `bson:"visited_at"`
}

// BatchInsertVisits inserts multiple visit events efficiently.
func (r *MongoVisitRepository) BatchInsertVisits(ctx context.Context, events []model.VisitEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, len(events))
	for i, e := range events {
		docs[i] = visitDocument{
			SessionID: e.SessionID,
			BuyerID:   e.BuyerID,
			UnitID:    e.UnitID,
			Room:      e.Room,
			Minutes:   e.Minutes,
			VisitedAt: e.VisitedAt,
		}
	}

	opts := options.InsertMany().SetOrdered(false)
	if _, err := r.collection.InsertMany(ctx, docs, opts); err != nil {
		return fmt.Errorf("failed to insert visits: %w", err)
	}
	return nil
}

// GetRoomStats returns per-room visit counts and average times.
func (r *MongoVisitRepository) GetRoomStats(ctx context.Context) ([]model.VisitData, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      "$room",
			"visits":   bson.M{"$sum": 1},
			"avg_time": bson.M{"$avg": "$minutes"},
		}}},
		{{Key: "$sort", Value: bson.M{"visits": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate room stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []model.VisitData
	for cursor.Next(ctx) {
		var row struct {
			ID      string  `bson:"_id"`
			Visits  int64   `bson:"visits"`
			AvgTime float64 `bson:"avg_time"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode room stats: %w", err)
		}
		stats = append(stats, model.VisitData{Name: row.ID, Visits: row.Visits, AvgTime: row.AvgTime})
	}
	return stats, cursor.Err()
}

// Close disconnects from MongoDB.
func (r *MongoVisitRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ensure MongoVisitRepository implements VisitRepository
var _ VisitRepository = (*MongoVisitRepository)(nil)
