package db

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"ecoloop/internal/models"
)

// Timestamps come from the service clock, so gorm's auto time tracking is
// switched off on every row.

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:20;default:'user';not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
}

func (userRow) TableName() string { return "users" }

func toUserRow(u *models.User) userRow {
	return userRow{ID: u.UserID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash, Role: u.Role, CreatedAt: u.CreatedAt}
}

func (r userRow) model() *models.User {
	return &models.User{UserID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash, Role: r.Role, CreatedAt: r.CreatedAt.UTC()}
}

// postRow keeps the variant payload in one JSON column selected by PostType.
type postRow struct {
	ID          string         `gorm:"primaryKey;size:36"`
	UserID      string         `gorm:"size:36;not null;index"`
	PostType    string         `gorm:"size:20;not null;index"`
	Title       string         `gorm:"size:200;not null"`
	Description string         `gorm:"type:text"`
	Location    string         `gorm:"size:255"`
	Status      string         `gorm:"size:20;not null;index"`
	Payload     datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime:false;index"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime:false"`
}

func (postRow) TableName() string { return "posts" }

func toPostRow(p *models.Post) (postRow, error) {
	var payload any
	switch p.PostType {
	case models.PostTypeWaste:
		payload = p.Waste
	case models.PostTypeInitiative:
		payload = p.Initiative
	case models.PostTypeForum:
		payload = p.Forum
	default:
		return postRow{}, fmt.Errorf("unknown post type %q", p.PostType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return postRow{}, err
	}
	return postRow{
		ID:          p.PostID,
		UserID:      p.UserID,
		PostType:    string(p.PostType),
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Status:      string(p.Status),
		Payload:     datatypes.JSON(raw),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (r postRow) model() (*models.Post, error) {
	p := &models.Post{
		PostID:      r.ID,
		UserID:      r.UserID,
		PostType:    models.PostType(r.PostType),
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Status:      models.PostStatus(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	var err error
	switch p.PostType {
	case models.PostTypeWaste:
		p.Waste = new(models.WasteDetails)
		err = json.Unmarshal(r.Payload, p.Waste)
	case models.PostTypeInitiative:
		p.Initiative = new(models.InitiativeDetails)
		err = json.Unmarshal(r.Payload, p.Initiative)
		if err == nil && p.Initiative.ProjectDeadline != nil {
			d := p.Initiative.ProjectDeadline.UTC()
			p.Initiative.ProjectDeadline = &d
		}
	case models.PostTypeForum:
		p.Forum = new(models.ForumDetails)
		err = json.Unmarshal(r.Payload, p.Forum)
	default:
		err = fmt.Errorf("unknown post type %q", r.PostType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode post %s payload: %w", r.ID, err)
	}
	return p, nil
}

type pickupRow struct {
	ID             string         `gorm:"primaryKey;size:36"`
	PostID         string         `gorm:"size:36;not null;index"`
	GiverID        string         `gorm:"size:36;not null;index"`
	CollectorID    string         `gorm:"size:36;not null;index"`
	PickupTime     time.Time      `gorm:"not null"`
	PickupLocation string         `gorm:"size:255;not null"`
	Status         string         `gorm:"size:20;not null;index"`
	FinalWaste     datatypes.JSON
	ProofOfPickup  string         `gorm:"size:500"`
	ProposedAt     *time.Time
	ConfirmedAt    *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (pickupRow) TableName() string { return "pickups" }

func toPickupRow(p *models.Pickup) (pickupRow, error) {
	r := pickupRow{
		ID:             p.PickupID,
		PostID:         p.PostID,
		GiverID:        p.GiverID,
		CollectorID:    p.CollectorID,
		PickupTime:     p.PickupTime,
		PickupLocation: p.PickupLocation,
		Status:         string(p.Status),
		ProofOfPickup:  p.ProofOfPickup,
		ProposedAt:     p.ProposedAt,
		ConfirmedAt:    p.ConfirmedAt,
		CompletedAt:    p.CompletedAt,
		CancelledAt:    p.CancelledAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.FinalWaste != nil {
		raw, err := json.Marshal(p.FinalWaste)
		if err != nil {
			return r, err
		}
		r.FinalWaste = datatypes.JSON(raw)
	}
	return r, nil
}

func (r pickupRow) model() (*models.Pickup, error) {
	p := &models.Pickup{
		PickupID:       r.ID,
		PostID:         r.PostID,
		GiverID:        r.GiverID,
		CollectorID:    r.CollectorID,
		PickupTime:     r.PickupTime.UTC(),
		PickupLocation: r.PickupLocation,
		Status:         models.PickupStatus(r.Status),
		ProofOfPickup:  r.ProofOfPickup,
		ProposedAt:     utcPtr(r.ProposedAt),
		ConfirmedAt:    utcPtr(r.ConfirmedAt),
		CompletedAt:    utcPtr(r.CompletedAt),
		CancelledAt:    utcPtr(r.CancelledAt),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if len(r.FinalWaste) > 0 && string(r.FinalWaste) != "null" {
		p.FinalWaste = new(models.FinalWaste)
		if err := json.Unmarshal(r.FinalWaste, p.FinalWaste); err != nil {
			return nil, fmt.Errorf("decode pickup %s finalWaste: %w", r.ID, err)
		}
	}
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type pointRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserID       string    `gorm:"size:36;not null;index"`
	PointsEarned int       `gorm:"not null"`
	Transaction  string    `gorm:"column:transaction_kind;size:32;not null;index"`
	ReferenceID  string    `gorm:"size:36"`
	ReceivedAt   time.Time `gorm:"not null;index"`
}

func (pointRow) TableName() string { return "points" }

func (r pointRow) model() models.Point {
	return models.Point{
		PointID:      r.ID,
		UserID:       r.UserID,
		PointsEarned: r.PointsEarned,
		Transaction:  models.TransactionKind(r.Transaction),
		ReferenceID:  r.ReferenceID,
		ReceivedAt:   r.ReceivedAt.UTC(),
	}
}

type materialRow struct {
	ID                string             `gorm:"primaryKey;size:36"`
	Type              string             `gorm:"size:32;uniqueIndex;not null"`
	AveragePricePerKg float64            `gorm:"not null;default:0"`
	Prices            []materialPriceRow `gorm:"foreignKey:MaterialID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt         time.Time          `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime:false"`
}

func (materialRow) TableName() string { return "materials" }

// materialPriceRow is one append-only pricing history entry.
type materialPriceRow struct {
	ID         uint      `gorm:"primaryKey"`
	MaterialID string    `gorm:"size:36;not null;index"`
	Price      float64   `gorm:"not null"`
	Date       time.Time `gorm:"not null"`
}

func (materialPriceRow) TableName() string { return "material_prices" }

func (r materialRow) model() *models.Material {
	m := &models.Material{
		MaterialID:        r.ID,
		Type:              models.MaterialType(r.Type),
		AveragePricePerKg: r.AveragePricePerKg,
		PricingHistory:    make([]models.PriceEntry, 0, len(r.Prices)),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
	for _, p := range r.Prices {
		m.PricingHistory = append(m.PricingHistory, models.PriceEntry{Price: p.Price, Date: p.Date.UTC()})
	}
	return m
}

type notificationRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;not null;index"` // Receiver
	ActorID     string    `gorm:"size:36"`
	ReferenceID string    `gorm:"size:36;index"`
	Type        string    `gorm:"type:varchar(20);not null"`
	Message     string    `gorm:"type:text"`
	IsRead      bool      `gorm:"default:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index"`
}

func (notificationRow) TableName() string { return "notifications" }

func (r notificationRow) model() models.Notification {
	return models.Notification{
		NotificationID: r.ID,
		UserID:         r.UserID,
		ActorID:        r.ActorID,
		ReferenceID:    r.ReferenceID,
		Type:           models.NotificationType(r.Type),
		Message:        r.Message,
		IsRead:         r.IsRead,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

// conversationRow stores the canonical pair as two columns so a unique
// index can cover (post, pair).
type conversationRow struct {
	ID            string    `gorm:"primaryKey;size:36"`
	PostID        string    `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair"`
	ParticipantA  string    `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair;index"`
	ParticipantB  string    `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	LastMessageAt time.Time `gorm:"index"`
}

func (conversationRow) TableName() string { return "conversations" }

func toConversationRow(c *models.Conversation) conversationRow {
	pair := models.ParticipantPair(c.Participants[0], c.Participants[1])
	return conversationRow{
		ID:            c.ConversationID,
		PostID:        c.PostID,
		ParticipantA:  pair[0],
		ParticipantB:  pair[1],
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}

func (r conversationRow) model() models.Conversation {
	return models.Conversation{
		ConversationID: r.ID,
		PostID:         r.PostID,
		Participants:   []string{r.ParticipantA, r.ParticipantB},
		CreatedAt:      r.CreatedAt.UTC(),
		LastMessageAt:  r.LastMessageAt.UTC(),
	}
}

type messageRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ConversationID string    `gorm:"size:36;not null;index"`
	SenderID       string    `gorm:"size:36;not null"`
	Body           string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"default:false"`
	SentAt         time.Time `gorm:"not null;index"`
}

func (messageRow) TableName() string { return "messages" }

func (r messageRow) model() models.Message {
	return models.Message{
		MessageID:      r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Body:           r.Body,
		IsRead:         r.IsRead,
		SentAt:         r.SentAt.UTC(),
	}
}

type commentRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	PostID    string    `gorm:"size:36;not null;index"`
	UserID    string    `gorm:"size:36;not null;index"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (commentRow) TableName() string { return "comments" }

func (r commentRow) model() models.Comment {
	return models.Comment{CommentID: r.ID, PostID: r.PostID, UserID: r.UserID, Body: r.Body, CreatedAt: r.CreatedAt.UTC()}
}

type supportRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_support_post_user"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_support_post_user"`
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (supportRow) TableName() string { return "supports" }

func (r supportRow) model() models.Support {
	return models.Support{SupportID: r.ID, PostID: r.PostID, UserID: r.UserID, Message: r.Message, CreatedAt: r.CreatedAt.UTC()}
}
