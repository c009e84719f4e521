package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// ProposeInput carries the time and place a collector suggests.
type ProposeInput struct {
	PickupTime     time.Time
	PickupLocation string
}

// CompleteInput is what the parties agree was actually handed over.
// DecodeErr carries a request body that could not be read; it is reported as
// a payload failure once the pickup itself has been checked.
type CompleteInput struct {
	FinalWaste    *models.FinalWaste
	ProofOfPickup string
	DecodeErr     error
}

// PickupRole narrows ListForUser to one side of the pickups.
type PickupRole string

const (
	PickupRoleAny       PickupRole = ""
	PickupRoleGiver     PickupRole = "giver"
	PickupRoleCollector PickupRole = "collector"
)

// Pickups drives the pickup state machine. Every transition is a
// compare-and-swap on the stored status; a lost race surfaces as Conflict
// and is never retried here.
type Pickups struct {
	deps   Deps
	ledger *Ledger
}

func NewPickups(d Deps, ledger *Ledger) *Pickups {
	return &Pickups{deps: d.withDefaults(), ledger: ledger}
}

// Propose opens a pickup on a Waste or Initiative post. The caller becomes
// the collector and the post author the giver.
func (s *Pickups) Propose(ctx context.Context, actor Identity, postID string, in ProposeInput) (*models.Pickup, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	post, err := s.deps.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "post", postID)
	}
	if !post.PostType.Collectable() {
		return nil, apperr.Validation("%s posts cannot be picked up", post.PostType)
	}
	if post.UserID == actor.UserID {
		return nil, apperr.Validation("cannot propose a pickup on your own post")
	}
	if post.Status != models.PostStatusActive && post.Status != models.PostStatusWaiting {
		return nil, apperr.InvalidTransition("post %q is %s", postID, post.Status)
	}
	location := strings.TrimSpace(in.PickupLocation)
	if location == "" {
		location = post.Location
	}
	if in.PickupTime.IsZero() {
		return nil, apperr.Validation("pickupTime is required")
	}
	if location == "" {
		return nil, apperr.Validation("pickupLocation is required")
	}

	now := s.deps.Now()
	proposedAt := now
	p := &models.Pickup{
		PickupID:       s.deps.NewID(),
		PostID:         postID,
		GiverID:        post.UserID,
		CollectorID:    actor.UserID,
		PickupTime:     in.PickupTime.UTC(),
		PickupLocation: location,
		Status:         models.PickupStatusProposed,
		ProposedAt:     &proposedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.deps.Store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.CreatePickup(ctx, p); err != nil {
			return err
		}
		return tx.SetPostStatus(ctx, postID, models.PostStatusWaiting, now)
	})
	if err != nil {
		return nil, storeErr(err, "pickup", p.PickupID)
	}

	s.deps.notify(p.GiverID, actor.UserID, p.PickupID, models.NotificationTypePickup,
		fmt.Sprintf("New pickup proposed for %q", post.Title))
	return p, nil
}

func (s *Pickups) Confirm(ctx context.Context, actor Identity, id string) (*models.Pickup, error) {
	return s.transition(ctx, actor, id, models.PickupStatusConfirmed, nil)
}

// Complete records the final waste and awards Pickup_Completion points to
// both parties inside the same transaction as the status swap. Only the
// postgres store makes that transaction atomic; on mongo each write commits
// on its own, so a failed award after the swap leaves the pickup Completed
// without its points.
func (s *Pickups) Complete(ctx context.Context, actor Identity, id string, in CompleteInput) (*models.Pickup, error) {
	return s.transition(ctx, actor, id, models.PickupStatusCompleted, func(p *models.Pickup) error {
		if in.DecodeErr != nil {
			return apperr.Validation("invalid request body: %v", in.DecodeErr)
		}
		if err := in.FinalWaste.Validate(); err != nil {
			return apperr.ValidationErr(err)
		}
		fw := *in.FinalWaste
		fw.MaterialIDs = append([]string(nil), fw.MaterialIDs...)
		p.FinalWaste = &fw
		p.ProofOfPickup = strings.TrimSpace(in.ProofOfPickup)
		return nil
	})
}

func (s *Pickups) Cancel(ctx context.Context, actor Identity, id string) (*models.Pickup, error) {
	return s.transition(ctx, actor, id, models.PickupStatusCancelled, nil)
}

var transitionVerb = map[models.PickupStatus]string{
	models.PickupStatusConfirmed: "confirmed",
	models.PickupStatusCompleted: "completed",
	models.PickupStatusCancelled: "cancelled",
}

// transition checks NotFound, Forbidden, InvalidTransition and then the
// payload, in that order, before anything is written.
func (s *Pickups) transition(ctx context.Context, actor Identity, id string, to models.PickupStatus, prepare func(p *models.Pickup) error) (*models.Pickup, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	current, err := s.deps.Store.GetPickup(ctx, id)
	if err != nil {
		return nil, storeErr(err, "pickup", id)
	}
	if !current.IsParty(actor.UserID) {
		return nil, apperr.Forbidden("only the giver or collector may change pickup %q", id)
	}
	now := s.deps.Now()
	next, err := current.Advance(to, now)
	if errors.Is(err, models.ErrInvalidTransition) {
		return nil, apperr.InvalidTransition("pickup %q cannot move from %s to %s", id, current.Status, to)
	}
	if to == models.PickupStatusConfirmed {
		if _, err := s.confirmable(ctx, s.deps.Store, current); err != nil {
			return nil, storeErr(err, "post", current.PostID)
		}
	}
	if prepare != nil {
		if err := prepare(&next); err != nil {
			return nil, err
		}
	}

	var (
		crossings []*badgeCrossing
		displaced []models.Pickup
	)
	err = s.deps.Store.WithinTx(ctx, func(tx store.Store) error {
		crossings = crossings[:0]
		displaced = displaced[:0]
		if to == models.PickupStatusConfirmed {
			rivals, err := s.confirmable(ctx, tx, current)
			if err != nil {
				return err
			}
			// Rivals are cancelled before this pickup is confirmed, so two
			// confirms racing on one post can never both win their swap.
			for _, r := range rivals {
				cancelled, err := r.Advance(models.PickupStatusCancelled, now)
				if err != nil {
					return err
				}
				if err := tx.SwapPickup(ctx, &cancelled, models.PickupStatusProposed); err != nil {
					return err
				}
				displaced = append(displaced, cancelled)
			}
		}
		if err := tx.SwapPickup(ctx, &next, current.Status); err != nil {
			return err
		}
		if err := s.syncPostStatus(ctx, tx, &next, now); err != nil {
			return err
		}
		if to != models.PickupStatusCompleted {
			return nil
		}
		for _, userID := range []string{next.GiverID, next.CollectorID} {
			_, crossed, err := s.ledger.award(ctx, tx, userID, PointsPickupCompletion, models.TransactionPickupCompletion, next.PickupID)
			if err != nil {
				return err
			}
			crossings = append(crossings, crossed)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "pickup", id)
	}

	s.ledger.announce(crossings...)
	s.deps.notify(next.Counterparty(actor.UserID), actor.UserID, next.PickupID, models.NotificationTypePickup,
		fmt.Sprintf("Pickup %s was %s", next.PickupID, transitionVerb[to]))
	for _, d := range displaced {
		s.deps.notify(d.CollectorID, actor.UserID, d.PickupID, models.NotificationTypePickup,
			fmt.Sprintf("Pickup %s was cancelled because another pickup was confirmed", d.PickupID))
	}
	return &next, nil
}

// confirmable checks that p's post is still waiting for a collector and that
// no other pickup on it is confirmed. It returns the other proposals, which
// lose the post once p is confirmed.
func (s *Pickups) confirmable(ctx context.Context, st store.Store, p *models.Pickup) ([]models.Pickup, error) {
	post, err := st.GetPost(ctx, p.PostID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusWaiting {
		return nil, apperr.InvalidTransition("post %q is %s", post.PostID, post.Status)
	}
	others, err := st.ListPickups(ctx, store.PickupFilter{PostID: p.PostID})
	if err != nil {
		return nil, err
	}
	var rivals []models.Pickup
	for _, o := range others {
		if o.PickupID == p.PickupID {
			continue
		}
		switch o.Status {
		case models.PickupStatusConfirmed:
			return nil, apperr.InvalidTransition("pickup %q is already confirmed for post %q", o.PickupID, p.PostID)
		case models.PickupStatusProposed:
			rivals = append(rivals, o)
		}
	}
	return rivals, nil
}

// syncPostStatus moves the post to the status implied by its pickups after
// p changed. Other open pickups on the same post keep it reserved, and a
// Collected post never moves again.
func (s *Pickups) syncPostStatus(ctx context.Context, tx store.Store, p *models.Pickup, now time.Time) error {
	var status models.PostStatus
	switch p.Status {
	case models.PickupStatusConfirmed:
		status = models.PostStatusScheduled
	case models.PickupStatusCompleted:
		status = models.PostStatusCollected
	case models.PickupStatusCancelled:
		post, err := tx.GetPost(ctx, p.PostID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if post.Status == models.PostStatusCollected {
			return nil
		}
		status = models.PostStatusActive
		others, err := tx.ListPickups(ctx, store.PickupFilter{PostID: p.PostID})
		if err != nil {
			return err
		}
		for _, o := range others {
			if o.PickupID == p.PickupID {
				continue
			}
			if o.Status == models.PickupStatusConfirmed {
				status = models.PostStatusScheduled
				break
			}
			if o.Status == models.PickupStatusProposed {
				status = models.PostStatusWaiting
			}
		}
	default:
		return nil
	}
	err := tx.SetPostStatus(ctx, p.PostID, status, now)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Get returns a pickup to one of its parties or an admin.
func (s *Pickups) Get(ctx context.Context, actor Identity, id string) (*models.Pickup, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p, err := s.deps.Store.GetPickup(ctx, id)
	if err != nil {
		return nil, storeErr(err, "pickup", id)
	}
	if !p.IsParty(actor.UserID) && !actor.IsAdmin() {
		return nil, apperr.Forbidden("not a party to pickup %q", id)
	}
	return p, nil
}

// ListForUser lists the pickups the caller is party to.
func (s *Pickups) ListForUser(ctx context.Context, actor Identity, role PickupRole, status models.PickupStatus, limit int) ([]models.Pickup, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("unknown pickup status %q", status)
	}
	f := store.PickupFilter{Status: status, Limit: limit}
	switch role {
	case PickupRoleAny:
		f.UserID = actor.UserID
	case PickupRoleGiver:
		f.GiverID = actor.UserID
	case PickupRoleCollector:
		f.CollectorID = actor.UserID
	default:
		return nil, apperr.Validation("unknown role %q", role)
	}
	pickups, err := s.deps.Store.ListPickups(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}
