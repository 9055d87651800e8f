package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	kverrors "github.com/carecost/carecost/errors"
	"github.com/carecost/carecost/estimate"
	"github.com/carecost/carecost/session"
)

// MongoStore persists session records in MongoDB, one document per session.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB settings.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "carecost",
		Collection: "sessions",
	}
}

// mongoRecord is the document shape stored in MongoDB.
type mongoRecord struct {
	ID             string                `bson:"_id"`
	InsuranceInput string                `bson:"insurance_input"`
	Plan           *estimate.PlanDetails `bson:"plan_details,omitempty"`
	CareHistory    []string              `bson:"care_history"`
	ZipCode        string                `bson:"zip_code"`
	UpdatedAt      time.Time             `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and prepares the sessions collection.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (s *MongoStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: session record must have an ID", kverrors.ErrInvalidInput)
	}

	doc := mongoRecord{
		ID:             record.ID,
		InsuranceInput: record.InsuranceInput,
		Plan:           record.Plan,
		CareHistory:    record.CareHistory,
		ZipCode:        record.ZipCode,
		UpdatedAt:      record.UpdatedAt,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*session.Record, error) {
	var doc mongoRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: session %s", kverrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &session.Record{
		ID:             doc.ID,
		InsuranceInput: doc.InsuranceInput,
		Plan:           doc.Plan,
		CareHistory:    doc.CareHistory,
		ZipCode:        doc.ZipCode,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode session id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
