package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypePickup      NotificationType = "Pickup"
	NotificationTypeApplication NotificationType = "Application"
	NotificationTypeMessage     NotificationType = "Message"
	NotificationTypeComment     NotificationType = "Comment"
	NotificationTypeBadge       NotificationType = "Badge"
	NotificationTypeAlert       NotificationType = "Alert"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypePickup, NotificationTypeApplication, NotificationTypeMessage,
		NotificationTypeComment, NotificationTypeBadge, NotificationTypeAlert:
		return true
	}
	return false
}

// Notification is immutable once stored except for IsRead. ReferenceID
// points at whatever entity caused it and is not checked.
type Notification struct {
	NotificationID string           `json:"notificationID" bson:"_id"`
	UserID         string           `json:"userID" bson:"userID"` // Receiver
	ActorID        string           `json:"actorID,omitempty" bson:"actorID,omitempty"`
	ReferenceID    string           `json:"referenceID" bson:"referenceID"`
	Type           NotificationType `json:"type" bson:"type"`
	Message        string           `json:"message" bson:"message"`
	IsRead         bool             `json:"isRead" bson:"isRead"`
	CreatedAt      time.Time        `json:"createdAt" bson:"createdAt"`
}
