package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

const MaxCommentLength = 5000

// Interactions covers comments on any post and support pledges on
// initiatives.
type Interactions struct {
	deps   Deps
	ledger *Ledger
}

func NewInteractions(d Deps, ledger *Ledger) *Interactions {
	return &Interactions{deps: d.withDefaults(), ledger: ledger}
}

// Comment stores a markdown comment. A comment from someone other than the
// author earns the author Post_Interaction points.
func (s *Interactions) Comment(ctx context.Context, actor Identity, postID, body string) (*models.Comment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	post, err := s.deps.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "post", postID)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("comment body is required")
	}
	if len([]rune(body)) > MaxCommentLength {
		return nil, apperr.Validation("comment body must be at most %d characters", MaxCommentLength)
	}

	c := &models.Comment{
		CommentID: s.deps.NewID(),
		PostID:    postID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if post.UserID != actor.UserID {
		_, err := s.ledger.Award(ctx, post.UserID, PointsPostInteraction, models.TransactionPostInteraction, c.CommentID)
		logFailure(ctx, err, "award post interaction points")
		s.deps.notify(post.UserID, actor.UserID, postID, models.NotificationTypeComment,
			fmt.Sprintf("New comment on %q: %s", post.Title, utils.Excerpt(utils.PlainText(utils.RenderMarkdown(body)), 80)))
	}
	return c, nil
}

func (s *Interactions) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.deps.Store.GetPost(ctx, postID); err != nil {
		return nil, storeErr(err, "post", postID)
	}
	list, err := s.deps.Store.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return list, nil
}

// Support pledges the caller to an initiative, once per user. The supporter
// earns Initiative_Support points and the author is told.
func (s *Interactions) Support(ctx context.Context, actor Identity, postID, message string) (*models.Support, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	post, err := s.deps.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "post", postID)
	}
	if post.PostType != models.PostTypeInitiative {
		return nil, apperr.Validation("only Initiative posts accept support")
	}
	if post.UserID == actor.UserID {
		return nil, apperr.Validation("cannot support your own initiative")
	}

	sup := &models.Support{
		SupportID: s.deps.NewID(),
		PostID:    postID,
		UserID:    actor.UserID,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Store.CreateSupport(ctx, sup); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("already supporting post %q", postID)
		}
		return nil, fmt.Errorf("create support: %w", err)
	}

	_, err = s.ledger.Award(ctx, actor.UserID, PointsInitiativeSupport, models.TransactionInitiativeSupport, postID)
	logFailure(ctx, err, "award initiative support points")
	s.deps.notify(post.UserID, actor.UserID, postID, models.NotificationTypeApplication,
		fmt.Sprintf("Someone wants to join %q", post.Title))
	return sup, nil
}

func (s *Interactions) Supports(ctx context.Context, postID string) ([]models.Support, error) {
	if _, err := s.deps.Store.GetPost(ctx, postID); err != nil {
		return nil, storeErr(err, "post", postID)
	}
	list, err := s.deps.Store.ListSupports(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list supports: %w", err)
	}
	return list, nil
}
