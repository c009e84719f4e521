// Package store declares the persistence contract shared by the postgres,
// mongodb and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"ecoloop/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrConflict  = errors.New("store: stale write")
	ErrDuplicate = errors.New("store: duplicate key")
)

type PostFilter struct {
	PostType models.PostType
	Status   models.PostStatus
	UserID   string
	Limit    int
	Offset   int
}

type PickupFilter struct {
	PostID string
	// UserID matches either party.
	UserID      string
	GiverID     string
	CollectorID string
	Status      models.PickupStatus
	Limit       int
}

type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Posts interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error)
	// UpdatePost replaces the mutable fields of an existing post.
	UpdatePost(ctx context.Context, p *models.Post) error
	SetPostStatus(ctx context.Context, id string, status models.PostStatus, at time.Time) error
	DeletePost(ctx context.Context, id string) error
}

type Pickups interface {
	CreatePickup(ctx context.Context, p *models.Pickup) error
	GetPickup(ctx context.Context, id string) (*models.Pickup, error)
	ListPickups(ctx context.Context, f PickupFilter) ([]models.Pickup, error)
	// SwapPickup stores p only if the stored status is still from, and
	// returns ErrConflict otherwise.
	SwapPickup(ctx context.Context, p *models.Pickup, from models.PickupStatus) error
}

type Points interface {
	AppendPoint(ctx context.Context, p *models.Point) error
	SumPoints(ctx context.Context, userID string) (int, error)
	CountPoints(ctx context.Context, userID string, kind models.TransactionKind, since time.Time) (int64, error)
	ListPoints(ctx context.Context, userID string, limit int) ([]models.Point, error)
}

type Materials interface {
	// CreateMaterial returns ErrDuplicate when the type is already present.
	CreateMaterial(ctx context.Context, m *models.Material) error
	GetMaterial(ctx context.Context, id string) (*models.Material, error)
	ListMaterials(ctx context.Context) ([]models.Material, error)
	// AppendMaterialPrice adds e to the history and recomputes the average
	// as one atomic step, returning the updated material.
	AppendMaterialPrice(ctx context.Context, id string, e models.PriceEntry, at time.Time) (*models.Material, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error)
	// MarkNotificationRead returns ErrNotFound unless id belongs to userID.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type Conversations interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// FindConversation looks a conversation up by post and canonical pair.
	FindConversation(ctx context.Context, postID string, participants []string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// MarkMessagesRead flags every message not sent by readerID as read.
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error)
}

type Interactions interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	// CreateSupport returns ErrDuplicate for a second support by the same user.
	CreateSupport(ctx context.Context, s *models.Support) error
	ListSupports(ctx context.Context, postID string) ([]models.Support, error)
}

// Store is the full persistence surface.
type Store interface {
	Users
	Posts
	Pickups
	Points
	Materials
	Notifications
	Conversations
	Interactions

	// WithinTx runs fn against a Store whose writes commit or roll back
	// together where the backend supports it.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
