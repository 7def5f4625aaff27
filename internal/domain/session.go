package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus type for the session lifecycle
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// MaxParticipants is the hard cap on clients sharing one session's
// equipment pool.
const MaxParticipants = 6

// Session represents one timed small-group training occurrence.
// Equipment quantities are scoped per session: participants of the same
// session contend for the facility pool, sessions never contend with
// each other.
type Session struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	StartTime       time.Time            `bson:"startTime" json:"startTime"`
	DurationMinutes int                  `bson:"durationMinutes" json:"durationMinutes"`
	Coach           string               `bson:"coach,omitempty" json:"coach,omitempty"`
	ClientIDs       []primitive.ObjectID `bson:"clientIds" json:"clientIds"` // At most MaxParticipants
	Status          SessionStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}
