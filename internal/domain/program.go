package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramEntry is one ordered slot in a program: which exercise, how many
// sets and reps, and the prescribed rest between sets.
type ProgramEntry struct {
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets        int                `bson:"sets" json:"sets"`
	Reps        int                `bson:"reps" json:"reps"`
	RestSeconds int                `bson:"restSeconds" json:"restSeconds"`
}

// Program is an ordered sequence of program entries assigned to a single
// client. Immutable once a session using it starts.
type Program struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Name      string             `bson:"name" json:"name"`
	Entries   []ProgramEntry     `bson:"entries" json:"entries"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
