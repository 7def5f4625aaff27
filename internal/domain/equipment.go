package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EquipmentItem is one named piece of facility equipment and the total
// number of units available. Quantity is fixed for the duration of a
// session; the engine never mutates it.
type EquipmentItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // Unique key
	Quantity  int                `bson:"quantity" json:"quantity"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EquipmentAvailability is the computed dashboard view of one item's
// occupancy within a session.
type EquipmentAvailability struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	InUse     int    `json:"inUse"`
	Available int    `json:"available"`
}
