package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client represents a training client participating in sessions.
type Client struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	InjuryHistory string             `bson:"injuryHistory,omitempty" json:"injuryHistory,omitempty"`
	CurrentInjuries string           `bson:"currentInjuries,omitempty" json:"currentInjuries,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
