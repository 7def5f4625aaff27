package mongo

import (
	"context"
	"errors"
	"time"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const decisionCollectionName = "decisions"

// mongoDecisionRepository implements repository.DecisionRepository
type mongoDecisionRepository struct {
	collection *mongo.Collection
}

// NewMongoDecisionRepository creates a new Decision repository backed by MongoDB.
func NewMongoDecisionRepository(db *mongo.Database) repository.DecisionRepository {
	return &mongoDecisionRepository{
		collection: db.Collection(decisionCollectionName),
	}
}

// Create appends a decision record. Records are never updated or deleted.
func (r *mongoDecisionRepository) Create(ctx context.Context, record *domain.DecisionRecord) (primitive.ObjectID, error) {
	if record.Scenario == "" || record.Decision == "" {
		return primitive.NilObjectID, errors.New("decision scenario and decision text are required")
	}
	if record.Trigger == "" {
		record.Trigger = domain.TriggerManual
	}

	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetRecent retrieves the newest decision records, most recent first.
func (r *mongoDecisionRepository) GetRecent(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []domain.DecisionRecord
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// EnsureDecisionIndexes creates necessary indexes for the decisions collection.
func EnsureDecisionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
