package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID       string    `json:"userID" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"` // user, admin
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
