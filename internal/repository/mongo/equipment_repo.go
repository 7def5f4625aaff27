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

const equipmentCollectionName = "equipment"

// mongoEquipmentRepository implements repository.EquipmentRepository
type mongoEquipmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEquipmentRepository creates a new Equipment repository backed by MongoDB.
func NewMongoEquipmentRepository(db *mongo.Database) repository.EquipmentRepository {
	return &mongoEquipmentRepository{
		collection: db.Collection(equipmentCollectionName),
	}
}

// Upsert inserts an equipment item or updates its quantity by name.
// The catalog is seeded rather than edited, so name is the natural key.
func (r *mongoEquipmentRepository) Upsert(ctx context.Context, item *domain.EquipmentItem) (primitive.ObjectID, error) {
	if item.Name == "" {
		return primitive.NilObjectID, errors.New("equipment name is required")
	}
	if item.Quantity < 0 {
		return primitive.NilObjectID, errors.New("equipment quantity cannot be negative")
	}

	now := time.Now().UTC()
	filter := bson.M{"name": item.Name}
	update := bson.M{
		"$set": bson.M{
			"quantity":  item.Quantity,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"name":      item.Name,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated domain.EquipmentItem
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return primitive.NilObjectID, err
	}

	item.ID = updated.ID
	return updated.ID, nil
}

// GetByName retrieves an equipment item by its unique name.
func (r *mongoEquipmentRepository) GetByName(ctx context.Context, name string) (*domain.EquipmentItem, error) {
	var item domain.EquipmentItem
	filter := bson.M{"name": name}

	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetAll retrieves the full equipment catalog, sorted by name.
func (r *mongoEquipmentRepository) GetAll(ctx context.Context) ([]domain.EquipmentItem, error) {
	var items []domain.EquipmentItem
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// EnsureEquipmentIndexes creates necessary indexes for the equipment collection.
func EnsureEquipmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
