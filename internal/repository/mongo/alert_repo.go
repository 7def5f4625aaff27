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

const alertCollectionName = "alerts"

// mongoAlertRepository implements repository.AlertRepository
type mongoAlertRepository struct {
	collection *mongo.Collection
}

// NewMongoAlertRepository creates a new Alert repository backed by MongoDB.
func NewMongoAlertRepository(db *mongo.Database) repository.AlertRepository {
	return &mongoAlertRepository{
		collection: db.Collection(alertCollectionName),
	}
}

// Create appends an alert. Alerts are append-only from the engine's side.
func (r *mongoAlertRepository) Create(ctx context.Context, alert *domain.Alert) (primitive.ObjectID, error) {
	if alert.Message == "" {
		return primitive.NilObjectID, errors.New("alert message is required")
	}

	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, alert)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetBySessionID retrieves all alerts for a session, newest first.
func (r *mongoAlertRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Alert, error) {
	var alerts []domain.Alert
	filter := bson.M{"sessionId": sessionID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}

// EnsureAlertIndexes creates necessary indexes for the alerts collection.
func EnsureAlertIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
