package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertType classifies operator-facing alerts.
type AlertType string

const (
	AlertEquipmentConflict AlertType = "equipment_conflict"
	AlertHighRPE           AlertType = "high_rpe"
	AlertPain              AlertType = "pain"
)

// Alert is an operator-facing notification raised by the engine.
// Append-only; dismissal happens outside this core.
type Alert struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`

	Type    AlertType `bson:"alertType" json:"alertType"`
	Message string    `bson:"message" json:"message"`

	// RequiresAction marks alerts the coach must act on (unresolved
	// conflict, pain report) as opposed to informational ones.
	RequiresAction bool `bson:"requiresAction" json:"requiresAction"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
