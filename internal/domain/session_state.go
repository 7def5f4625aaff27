package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientStatus type for a participant's position in the session state machine.
type ClientStatus string

const (
	StatusReady    ClientStatus = "ready"    // Checked in, has not started the first exercise
	StatusActive   ClientStatus = "active"   // Performing a set, holding equipment
	StatusResting  ClientStatus = "resting"  // Between sets, equipment released
	StatusWaiting  ClientStatus = "waiting"  // Blocked on equipment, no substitute found
	StatusComplete ClientStatus = "complete" // Program finished
)

// SessionState is the per-client mutable progress record within a session.
// It is created once at session start and mutated exclusively by the
// session engine's transition function.
type SessionState struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`

	// Position in the client's program. 0 <= index <= len(program.Entries).
	CurrentExerciseIndex int `bson:"currentExerciseIndex" json:"currentExerciseIndex"`
	// 1-based set counter within the current exercise.
	CurrentSet int `bson:"currentSet" json:"currentSet"`

	Status ClientStatus `bson:"status" json:"status"`

	// Equipment names currently held by this client. Always a subset of the
	// current exercise's required equipment; empty while resting, waiting
	// or complete.
	EquipmentInUse []string `bson:"equipmentInUse" json:"equipmentInUse"`

	// Advisory rest countdown, decremented by an external clock.
	RestRemainingSeconds int `bson:"restRemainingSeconds" json:"restRemainingSeconds"`

	// Last reported RPE. Nil once the client advances to a new set or exercise.
	LastRPE *int `bson:"lastRpe,omitempty" json:"lastRpe,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HoldsEquipment reports whether the state currently reserves any equipment.
func (s *SessionState) HoldsEquipment() bool {
	return len(s.EquipmentInUse) > 0
}
