package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise represents a single exercise definition in the library.
type Exercise struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`

	// MovementPattern is the coarse category (e.g. "hip hinge", "lunge")
	// used to find equivalent substitutes.
	MovementPattern string `bson:"movementPattern" json:"movementPattern"`

	// RequiredEquipment names the equipment items the exercise needs.
	// Empty for bodyweight exercises.
	RequiredEquipment []string `bson:"requiredEquipment" json:"requiredEquipment"`

	// Substitutions lists declared alternative exercises in priority order.
	// The resolver consults these before widening to the movement pattern.
	Substitutions []primitive.ObjectID `bson:"substitutions,omitempty" json:"substitutions,omitempty"`

	// DemoObjectKey points at an optional demonstration video in object
	// storage. Empty when no demo has been uploaded.
	DemoObjectKey string `bson:"demoObjectKey,omitempty" json:"demoObjectKey,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsBodyweight reports whether the exercise needs no equipment at all.
func (e *Exercise) IsBodyweight() bool {
	return len(e.RequiredEquipment) == 0
}
