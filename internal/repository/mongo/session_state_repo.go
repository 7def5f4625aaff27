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

const sessionStateCollectionName = "session_states"

// mongoSessionStateRepository implements repository.SessionStateRepository
type mongoSessionStateRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionStateRepository creates a new SessionState repository backed by MongoDB.
func NewMongoSessionStateRepository(db *mongo.Database) repository.SessionStateRepository {
	return &mongoSessionStateRepository{
		collection: db.Collection(sessionStateCollectionName),
	}
}

// Create inserts a new session state row for one participant.
func (r *mongoSessionStateRepository) Create(ctx context.Context, state *domain.SessionState) (primitive.ObjectID, error) {
	if state.SessionID == primitive.NilObjectID || state.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session ID and client ID are required")
	}

	state.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	state.CreatedAt = now
	state.UpdatedAt = now
	if state.EquipmentInUse == nil {
		state.EquipmentInUse = []string{}
	}

	result, err := r.collection.InsertOne(ctx, state)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a session state by its ID.
func (r *mongoSessionStateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SessionState, error) {
	var state domain.SessionState
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// GetBySessionID retrieves all participant states for one session.
func (r *mongoSessionStateRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionState, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

// GetBySessionAndStatuses retrieves one session's states filtered by status
// membership. Used by the equipment ledger to compute occupancy.
func (r *mongoSessionStateRepository) GetBySessionAndStatuses(ctx context.Context, sessionID primitive.ObjectID, statuses []domain.ClientStatus) ([]domain.SessionState, error) {
	filter := bson.M{
		"sessionId": sessionID,
		"status":    bson.M{"$in": statuses},
	}
	return r.find(ctx, filter)
}

func (r *mongoSessionStateRepository) find(ctx context.Context, filter bson.M) ([]domain.SessionState, error) {
	var states []domain.SessionState
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &states); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return states, nil
}

// Update replaces the mutable fields of a session state in one write.
// The transition function computes the whole next state before calling
// this, so the commit is all-or-nothing.
func (r *mongoSessionStateRepository) Update(ctx context.Context, state *domain.SessionState) error {
	if state.ID == primitive.NilObjectID {
		return errors.New("session state ID is required for update")
	}

	equipment := state.EquipmentInUse
	if equipment == nil {
		equipment = []string{}
	}

	filter := bson.M{"_id": state.ID}
	update := bson.M{
		"$set": bson.M{
			"currentExerciseIndex": state.CurrentExerciseIndex,
			"currentSet":           state.CurrentSet,
			"status":               state.Status,
			"equipmentInUse":       equipment,
			"restRemainingSeconds": state.RestRemainingSeconds,
			"lastRpe":              state.LastRPE,
			"updatedAt":            time.Now().UTC(),
			// sessionId, clientId and programId are immutable
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionStateIndexes creates necessary indexes for the session_states collection.
func EnsureSessionStateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Ledger occupancy scan filters by session and status
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			// One state row per client per session
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
