package models

import (
	"time"
)

type Comment struct {
	CommentID string    `json:"commentID" bson:"_id"`
	PostID    string    `json:"postID" bson:"postID"`
	UserID    string    `json:"userID" bson:"userID"`
	Body      string    `json:"body" bson:"body"` // markdown source
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Support is a user's application to back an Initiative post.
type Support struct {
	SupportID string    `json:"supportID" bson:"_id"`
	PostID    string    `json:"postID" bson:"postID"`
	UserID    string    `json:"userID" bson:"userID"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
