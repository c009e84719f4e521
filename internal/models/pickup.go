package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type PickupStatus string

const (
	PickupStatusProposed  PickupStatus = "Proposed"
	PickupStatusConfirmed PickupStatus = "Confirmed"
	PickupStatusCompleted PickupStatus = "Completed"
	PickupStatusCancelled PickupStatus = "Cancelled"
)

func (s PickupStatus) Valid() bool {
	switch s {
	case PickupStatusProposed, PickupStatusConfirmed, PickupStatusCompleted, PickupStatusCancelled:
		return true
	}
	return false
}

func (s PickupStatus) Terminal() bool {
	return s == PickupStatusCompleted || s == PickupStatusCancelled
}

// Open reports whether the pickup still holds its post.
func (s PickupStatus) Open() bool {
	return s == PickupStatusProposed || s == PickupStatusConfirmed
}

var pickupTransitions = map[PickupStatus][]PickupStatus{
	PickupStatusProposed:  {PickupStatusConfirmed, PickupStatusCancelled},
	PickupStatusConfirmed: {PickupStatusCompleted, PickupStatusCancelled},
}

// CanTransition reports whether a pickup in status from may move to status to.
func CanTransition(from, to PickupStatus) bool {
	for _, next := range pickupTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid pickup transition")

// FinalWaste is the snapshot recorded when a pickup completes.
type FinalWaste struct {
	ItemName    string   `json:"itemName" bson:"itemName"`
	MaterialIDs []string `json:"materialIDs" bson:"materialIDs"`
	Price       float64  `json:"price" bson:"price"`
	Kg          float64  `json:"kg" bson:"kg"`
}

// UnmarshalJSON rejects a finalWaste that omits price or kg; zero is a valid
// amount, absence is not.
func (f *FinalWaste) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemName    string   `json:"itemName"`
		MaterialIDs []string `json:"materialIDs"`
		Price       *float64 `json:"price"`
		Kg          *float64 `json:"kg"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Price == nil {
		return errors.New("finalWaste: price is required")
	}
	if raw.Kg == nil {
		return errors.New("finalWaste: kg is required")
	}
	*f = FinalWaste{
		ItemName:    raw.ItemName,
		MaterialIDs: raw.MaterialIDs,
		Price:       *raw.Price,
		Kg:          *raw.Kg,
	}
	return nil
}

func (f *FinalWaste) Validate() error {
	if f == nil {
		return errors.New("finalWaste is required")
	}
	if f.Kg < 0 {
		return errors.New("finalWaste.kg must not be negative")
	}
	if f.Price < 0 {
		return errors.New("finalWaste.price must not be negative")
	}
	if len(f.MaterialIDs) == 0 {
		return errors.New("finalWaste.materialIDs must not be empty")
	}
	for _, id := range f.MaterialIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("finalWaste.materialIDs must not contain empty ids")
		}
	}
	return nil
}

type Pickup struct {
	PickupID       string       `json:"pickupID" bson:"_id"`
	PostID         string       `json:"postID" bson:"postID"`
	GiverID        string       `json:"giverID" bson:"giverID"`
	CollectorID    string       `json:"collectorID" bson:"collectorID"`
	PickupTime     time.Time    `json:"pickupTime" bson:"pickupTime"`
	PickupLocation string       `json:"pickupLocation" bson:"pickupLocation"`
	Status         PickupStatus `json:"status" bson:"status"`
	FinalWaste     *FinalWaste  `json:"finalWaste,omitempty" bson:"finalWaste,omitempty"`
	ProofOfPickup  string       `json:"proofOfPickup,omitempty" bson:"proofOfPickup,omitempty"`

	ProposedAt  *time.Time `json:"proposedAt,omitempty" bson:"proposedAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty" bson:"confirmedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (p *Pickup) IsParty(userID string) bool {
	return userID != "" && (userID == p.GiverID || userID == p.CollectorID)
}

// Counterparty returns the other party of the pickup, or "" when userID is
// not a party.
func (p *Pickup) Counterparty(userID string) string {
	switch userID {
	case p.GiverID:
		return p.CollectorID
	case p.CollectorID:
		return p.GiverID
	}
	return ""
}

// Advance returns a copy of p moved to status to, stamping the timestamp that
// belongs to that transition. The receiver is left untouched.
func (p Pickup) Advance(to PickupStatus, at time.Time) (Pickup, error) {
	if !CanTransition(p.Status, to) {
		return p, ErrInvalidTransition
	}
	ts := at
	switch to {
	case PickupStatusConfirmed:
		p.ConfirmedAt = &ts
	case PickupStatusCompleted:
		p.CompletedAt = &ts
	case PickupStatusCancelled:
		p.CancelledAt = &ts
	}
	p.Status = to
	p.UpdatedAt = at
	return p, nil
}
