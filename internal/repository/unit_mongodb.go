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

// MongoUnitRepository implements UnitRepository using MongoDB.
type MongoUnitRepository struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoUnitRepository creates a new MongoDB unit repository.
func NewMongoUnitRepository(uri, database, collection string) (*MongoUnitRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "unit_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("[MongoDB] Warning: failed to create index: %v", err)
	}

	log.Printf("[MongoDB] Connected to %s/%s", database, collection)
	return &MongoUnitRepository{
		client:     client,
		db:         db,
		collection: coll,
	}, nil
}

// unitDocument represents a unit document in MongoDB.
type unitDocument struct {
	UnitID string `bson:"unit_id"`
	Tower  string `bson:"tower"`
	Floor  int    `bson:"floor"`
	Number string `bson:"number"`
	Type   string `bson:"unit_type"`
	Sqft   int    `bson:"sqft"`
	Price  string `bson:"price"`
	Status string `bson:"status"`
}

func (d unitDocument) toModel() model.Unit {
	return model.Unit{
		ID:     d.UnitID,
		Tower:  d.Tower,
		Floor:  d.Floor,
		Number: d.Number,
		Type:   d.Type,
		Sqft:   d.Sqft,
		Price:  d.Price,
		Status: model.UnitStatus(d.Status),
	}
}

// ListUnits returns every unit, ordered by tower, floor, home.
func (r *MongoUnitRepository) ListUnits(ctx context.Context) ([]model.Unit, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "tower", Value: 1},
		{Key: "floor", Value: 1},
		{Key: "number", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer cursor.Close(ctx)

	var units []model.Unit
	for cursor.Next(ctx) {
		var doc unitDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode unit: %w", err)
		}
		units = append(units, doc.toModel())
	}
	return units, cursor.Err()
}

// GetUnit retrieves a single unit by ID.
func (r *MongoUnitRepository) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var doc unitDocument
	err := r.collection.FindOne(ctx, bson.M{"unit_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	u := doc.toModel()
	return &u, nil
}

// SetUnitStatus sets a unit's status unconditionally.
func (r *MongoUnitRepository) SetUnitStatus(ctx context.Context, id string, status model.UnitStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"unit_id": id},
		bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("failed to set unit status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnits returns the number of units in the inventory.
func (r *MongoUnitRepository) CountUnits(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

// SeedUnits loads the initial inventory, skipping units that already exist.
func (r *MongoUnitRepository) SeedUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(units))
	for _, u := range units {
		doc := unitDocument{
			UnitID: u.ID,
			Tower:  u.Tower,
			Floor:  u.Floor,
			Number: u.Number,
			Type:   u.Type,
			Sqft:   u.Sqft,
			Price:  u.Price,
			Status: string(u.Status),
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"unit_id": u.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to seed units: %w", err)
	}
	return nil
}

// Stats returns statistics about the unit inventory store.
func (r *MongoUnitRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats["total_units"] = total

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	byStatus := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		byStatus[row.ID] = row.Count
	}
	stats["by_status"] = byStatus

	return stats, nil
}

// Close disconnects from MongoDB.
func (r *MongoUnitRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ensure MongoUnitRepository implements UnitRepository
var _ UnitRepository = (*MongoUnitRepository)(nil)
