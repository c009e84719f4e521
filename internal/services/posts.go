package services

import (
	"context"
	"fmt"
	"strings"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// PostDraft is the input for a new post. Exactly one payload must be set and
// it must match PostType.
type PostDraft struct {
	PostType    models.PostType
	Title       string
	Description string
	Location    string
	Waste       *models.WasteDetails
	Initiative  *models.InitiativeDetails
	Forum       *models.ForumDetails
}

// PostPatch changes an existing post. Nil fields are left alone. PostType,
// when set, must equal the stored type.
type PostPatch struct {
	PostType    models.PostType
	Title       *string
	Description *string
	Location    *string
	Waste       *models.WasteDetails
	Initiative  *models.InitiativeDetails
	Forum       *models.ForumDetails
}

type Posts struct {
	deps    Deps
	ledger  *Ledger
	catalog *Catalog
}

func NewPosts(d Deps, ledger *Ledger, catalog *Catalog) *Posts {
	return &Posts{deps: d.withDefaults(), ledger: ledger, catalog: catalog}
}

// Create validates the variant payload and stores the post in one write. The
// author then earns Post_Creation points within the daily limit.
func (s *Posts) Create(ctx context.Context, actor Identity, draft PostDraft) (*models.Post, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	now := s.deps.Now()
	p := &models.Post{
		PostID:      s.deps.NewID(),
		UserID:      actor.UserID,
		PostType:    draft.PostType,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Location:    strings.TrimSpace(draft.Location),
		Status:      models.PostStatusActive,
		Waste:       draft.Waste,
		Initiative:  draft.Initiative,
		Forum:       draft.Forum,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, apperr.ValidationErr(err)
	}
	if err := s.catalog.Resolve(ctx, p.MaterialIDs()); err != nil {
		return nil, err
	}
	if err := s.deps.Store.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	_, err := s.ledger.awardPostCreation(ctx, actor.UserID, p.PostID)
	logFailure(ctx, err, "award post creation points")
	return p, nil
}

func (s *Posts) Get(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.deps.Store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr(err, "post", id)
	}
	return p, nil
}

func (s *Posts) List(ctx context.Context, f store.PostFilter) ([]models.Post, error) {
	if f.PostType != "" && !f.PostType.Valid() {
		return nil, apperr.Validation("unknown postType %q", f.PostType)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	posts, err := s.deps.Store.ListPosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *Posts) owned(ctx context.Context, actor Identity, id string) (*models.Post, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID {
		return nil, apperr.Forbidden("only the author may change post %q", id)
	}
	return p, nil
}

// Update edits the common fields and the payload of the stored variant. The
// post type and the payload shape it selects never change.
func (s *Posts) Update(ctx context.Context, actor Identity, id string, patch PostPatch) (*models.Post, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.PostType != "" && patch.PostType != p.PostType {
		return nil, apperr.Validation("postType cannot change from %s to %s", p.PostType, patch.PostType)
	}
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Location != nil {
		p.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Waste != nil {
		p.Waste = patch.Waste
	}
	if patch.Initiative != nil {
		p.Initiative = patch.Initiative
	}
	if patch.Forum != nil {
		p.Forum = patch.Forum
	}
	if err := p.Validate(); err != nil {
		return nil, apperr.ValidationErr(err)
	}
	if err := s.catalog.Resolve(ctx, p.MaterialIDs()); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.UpdatePost(ctx, p); err != nil {
		return nil, storeErr(err, "post", id)
	}
	return p, nil
}

// SetStatus lets the author hide or re-list a post that is not part of a
// pickup.
func (s *Posts) SetStatus(ctx context.Context, actor Identity, id string, status models.PostStatus) (*models.Post, error) {
	if status != models.PostStatusActive && status != models.PostStatusInactive {
		return nil, apperr.Validation("status must be %s or %s", models.PostStatusActive, models.PostStatusInactive)
	}
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PostStatusActive && p.Status != models.PostStatusInactive {
		return nil, apperr.InvalidTransition("post %q is %s", id, p.Status)
	}
	now := s.deps.Now()
	if err := s.deps.Store.SetPostStatus(ctx, id, status, now); err != nil {
		return nil, storeErr(err, "post", id)
	}
	p.Status = status
	p.UpdatedAt = now
	return p, nil
}

// Delete removes a post unless a pickup on it is still open.
func (s *Posts) Delete(ctx context.Context, actor Identity, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	pickups, err := s.deps.Store.ListPickups(ctx, store.PickupFilter{PostID: id})
	if err != nil {
		return fmt.Errorf("list pickups: %w", err)
	}
	for _, pk := range pickups {
		if pk.Status.Open() {
			return apperr.InvalidTransition("post %q has an open pickup", id)
		}
	}
	if err := s.deps.Store.DeletePost(ctx, id); err != nil {
		return storeErr(err, "post", id)
	}
	return nil
}
