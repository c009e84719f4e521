package models

import (
	"time"
)

// Conversation is a two-party thread about one post. Participants is kept
// sorted so a pair has a single canonical form.
type Conversation struct {
	ConversationID string    `json:"conversationID" bson:"_id"`
	PostID         string    `json:"postID" bson:"postID"`
	Participants   []string  `json:"participants" bson:"participants"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	LastMessageAt  time.Time `json:"lastMessageAt" bson:"lastMessageAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ParticipantPair orders two user ids canonically.
func ParticipantPair(a, b string) []string {
	if a > b {
		a, b = b, a
	}
	return []string{a, b}
}

type Message struct {
	MessageID      string    `json:"messageID" bson:"_id"`
	ConversationID string    `json:"conversationID" bson:"conversationID"`
	SenderID       string    `json:"senderID" bson:"senderID"`
	Body           string    `json:"body" bson:"body"`
	IsRead         bool      `json:"isRead" bson:"isRead"`
	SentAt         time.Time `json:"sentAt" bson:"sentAt"`
}
