package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type PostType string

const (
	PostTypeWaste      PostType = "Waste"
	PostTypeInitiative PostType = "Initiative"
	PostTypeForum      PostType = "Forum"
)

func (t PostType) Valid() bool {
	switch t {
	case PostTypeWaste, PostTypeInitiative, PostTypeForum:
		return true
	}
	return false
}

// Collectable reports whether posts of this type can be picked up.
func (t PostType) Collectable() bool {
	return t == PostTypeWaste || t == PostTypeInitiative
}

type PostStatus string

const (
	PostStatusActive    PostStatus = "Active"
	PostStatusWaiting   PostStatus = "Waiting"
	PostStatusScheduled PostStatus = "Scheduled"
	PostStatusCollected PostStatus = "Collected"
	PostStatusInactive  PostStatus = "Inactive"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusActive, PostStatusWaiting, PostStatusScheduled, PostStatusCollected, PostStatusInactive:
		return true
	}
	return false
}

type ForumCategory string

const (
	ForumCategoryGeneral   ForumCategory = "General"
	ForumCategoryTips      ForumCategory = "Tips"
	ForumCategoryNews      ForumCategory = "News"
	ForumCategoryQuestions ForumCategory = "Questions"
)

func (c ForumCategory) Valid() bool {
	switch c {
	case ForumCategoryGeneral, ForumCategoryTips, ForumCategoryNews, ForumCategoryQuestions:
		return true
	}
	return false
}

const MaxTitleLength = 200

// WasteItem is one line of a waste listing.
type WasteItem struct {
	ItemName     string  `json:"itemName" bson:"itemName"`
	MaterialID   string  `json:"materialID" bson:"materialID"`
	SellingPrice float64 `json:"sellingPrice" bson:"sellingPrice"`
	Kg           float64 `json:"kg" bson:"kg"`
}

// UnmarshalJSON rejects items that omit sellingPrice or kg; a zero value is
// allowed, an absent one is not.
func (w *WasteItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemName     string   `json:"itemName"`
		MaterialID   string   `json:"materialID"`
		SellingPrice *float64 `json:"sellingPrice"`
		Kg           *float64 `json:"kg"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SellingPrice == nil {
		return errors.New("waste item: sellingPrice is required")
	}
	if raw.Kg == nil {
		return errors.New("waste item: kg is required")
	}
	*w = WasteItem{
		ItemName:     raw.ItemName,
		MaterialID:   raw.MaterialID,
		SellingPrice: *raw.SellingPrice,
		Kg:           *raw.Kg,
	}
	return nil
}

type WasteDetails struct {
	Items []WasteItem `json:"items" bson:"items"`
}

type InitiativeItem struct {
	ItemName   string  `json:"itemName" bson:"itemName"`
	MaterialID string  `json:"materialID" bson:"materialID"`
	Kg         float64 `json:"kg" bson:"kg"`
}

type InitiativeDetails struct {
	Items           []InitiativeItem `json:"items" bson:"items"`
	ProjectDeadline *time.Time       `json:"projectDeadline,omitempty" bson:"projectDeadline,omitempty"`
}

type ForumDetails struct {
	Category ForumCategory `json:"category" bson:"category"`
}

// Post is the base record shared by every post type. Exactly one of Waste,
// Initiative or Forum is set and it always matches PostType.
type Post struct {
	PostID      string     `json:"postID" bson:"_id"`
	UserID      string     `json:"userID" bson:"userID"`
	PostType    PostType   `json:"postType" bson:"postType"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Location    string     `json:"location" bson:"location"`
	Status      PostStatus `json:"status" bson:"status"`

	Waste      *WasteDetails      `json:"waste,omitempty" bson:"waste,omitempty"`
	Initiative *InitiativeDetails `json:"initiative,omitempty" bson:"initiative,omitempty"`
	Forum      *ForumDetails      `json:"forum,omitempty" bson:"forum,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the common fields and that the populated payload matches
// PostType.
func (p *Post) Validate() error {
	if !p.PostType.Valid() {
		return fmt.Errorf("unknown postType %q", p.PostType)
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return errors.New("title is required")
	}
	if len([]rune(title)) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if err := p.checkPayloadShape(); err != nil {
		return err
	}

	switch p.PostType {
	case PostTypeWaste:
		return p.Waste.validate()
	case PostTypeInitiative:
		return p.Initiative.validate()
	default:
		return p.Forum.validate()
	}
}

func (p *Post) checkPayloadShape() error {
	present := map[PostType]bool{
		PostTypeWaste:      p.Waste != nil,
		PostTypeInitiative: p.Initiative != nil,
		PostTypeForum:      p.Forum != nil,
	}
	if !present[p.PostType] {
		return fmt.Errorf("%s post requires a %s payload", p.PostType, strings.ToLower(string(p.PostType)))
	}
	for t, ok := range present {
		if ok && t != p.PostType {
			return fmt.Errorf("%s post must not carry a %s payload", p.PostType, strings.ToLower(string(t)))
		}
	}
	return nil
}

func (d *WasteDetails) validate() error {
	if len(d.Items) == 0 {
		return errors.New("waste post requires at least one item")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.ItemName) == "" {
			return fmt.Errorf("items[%d]: itemName is required", i)
		}
		if it.MaterialID == "" {
			return fmt.Errorf("items[%d]: materialID is required", i)
		}
		if it.SellingPrice < 0 {
			return fmt.Errorf("items[%d]: sellingPrice must not be negative", i)
		}
		if it.Kg <= 0 {
			return fmt.Errorf("items[%d]: kg must be positive", i)
		}
	}
	return nil
}

func (d *InitiativeDetails) validate() error {
	if len(d.Items) == 0 {
		return errors.New("initiative post requires at least one item")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.ItemName) == "" {
			return fmt.Errorf("items[%d]: itemName is required", i)
		}
		if it.MaterialID == "" {
			return fmt.Errorf("items[%d]: materialID is required", i)
		}
		if it.Kg <= 0 {
			return fmt.Errorf("items[%d]: kg must be positive", i)
		}
	}
	return nil
}

func (d *ForumDetails) validate() error {
	if !d.Category.Valid() {
		return fmt.Errorf("unknown forum category %q", d.Category)
	}
	return nil
}

// MaterialIDs returns the distinct material ids referenced by the payload.
func (p *Post) MaterialIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if p.Waste != nil {
		for _, it := range p.Waste.Items {
			add(it.MaterialID)
		}
	}
	if p.Initiative != nil {
		for _, it := range p.Initiative.Items {
			add(it.MaterialID)
		}
	}
	return ids
}
