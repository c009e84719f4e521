package models

import (
	"time"
)

type TransactionKind string

const (
	TransactionPostCreation      TransactionKind = "Post_Creation"
	TransactionPostInteraction   TransactionKind = "Post_Interaction"
	TransactionPickupCompletion  TransactionKind = "Pickup_Completion"
	TransactionInitiativeSupport TransactionKind = "Initiative_Support"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionPostCreation, TransactionPostInteraction, TransactionPickupCompletion, TransactionInitiativeSupport:
		return true
	}
	return false
}

// Point is one row of the append-only points ledger.
type Point struct {
	PointID      string          `json:"pointID" bson:"_id"`
	UserID       string          `json:"userID" bson:"userID"`
	PointsEarned int             `json:"pointsEarned" bson:"pointsEarned"`
	Transaction  TransactionKind `json:"transaction" bson:"transaction"`
	ReferenceID  string          `json:"referenceID,omitempty" bson:"referenceID,omitempty"`
	ReceivedAt   time.Time       `json:"receivedAt" bson:"receivedAt"`
}
