package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TriggerType classifies what prompted a coaching decision.
type TriggerType string

const (
	TriggerEquipmentConflict TriggerType = "equipment_conflict"
	TriggerManual            TriggerType = "manual"
	TriggerHighRPE           TriggerType = "high_rpe"
	TriggerPain              TriggerType = "pain"
)

// DecisionRecord is an immutable audit entry for any automatic or manual
// coaching decision. Append-only; never updated or deleted.
type DecisionRecord struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SessionID *primitive.ObjectID `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	ClientID  *primitive.ObjectID `bson:"clientId,omitempty" json:"clientId,omitempty"`

	Trigger  TriggerType `bson:"triggerType" json:"triggerType"`
	Scenario string      `bson:"scenario" json:"scenario"` // Human-readable situation description
	Decision string      `bson:"decision" json:"decision"` // What the engine (or coach) decided

	RequiresApproval bool `bson:"requiresApproval" json:"requiresApproval"`
	Approved         bool `bson:"approved" json:"approved"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
