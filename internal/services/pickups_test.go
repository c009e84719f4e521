package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
)

func TestPickupBottlesScenario(t *testing.T) {
	f := newFixture(t)
	post, pk := f.proposed(t)
	assert.Equal(t, models.PickupStatusProposed, pk.Status)
	assert.Equal(t, giver.UserID, pk.GiverID)
	assert.Equal(t, collector.UserID, pk.CollectorID)

	pk, err := f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusConfirmed, pk.Status)
	require.NotNil(t, pk.ConfirmedAt)

	f.clock.Advance(time.Hour)
	pk, err = f.svc.Pickups.Complete(f.ctx, collector, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusCompleted, pk.Status)
	require.NotNil(t, pk.CompletedAt)
	assert.True(t, pk.CompletedAt.Equal(f.clock.Now()))

	stored, err := f.store.GetPickup(f.ctx, pk.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusCompleted, stored.Status)
	assert.Equal(t, 100.0, stored.FinalWaste.Price)

	for _, userID := range []string{giver.UserID, collector.UserID} {
		rows := f.pointsOf(t, userID, models.TransactionPickupCompletion)
		require.Len(t, rows, 1, userID)
		assert.Equal(t, PointsPickupCompletion, rows[0].PointsEarned)
		assert.Equal(t, pk.PickupID, rows[0].ReferenceID)
	}

	p, err := f.svc.Posts.Get(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCollected, p.Status)
}

func TestCompleteTwiceAwardsOnce(t *testing.T) {
	f := newFixture(t)
	_, pk := f.confirmed(t)

	_, err := f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	require.NoError(t, err)
	_, err = f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	assert.Len(t, f.pointsOf(t, giver.UserID, models.TransactionPickupCompletion), 1)
	assert.Len(t, f.pointsOf(t, collector.UserID, models.TransactionPickupCompletion), 1)
}

func TestCancelConfirmedThenComplete(t *testing.T) {
	f := newFixture(t)
	post, pk := f.confirmed(t)

	pk, err := f.svc.Pickups.Cancel(f.ctx, collector, pk.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusCancelled, pk.Status)
	assert.NotNil(t, pk.CancelledAt)

	_, err = f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Empty(t, f.pointsOf(t, giver.UserID, models.TransactionPickupCompletion))
	assert.Empty(t, f.pointsOf(t, collector.UserID, models.TransactionPickupCompletion))

	p, err := f.svc.Posts.Get(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusActive, p.Status, "cancelling frees the post")
}

func TestConfirmByStrangerForbidden(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)

	_, err := f.svc.Pickups.Confirm(f.ctx, stranger, pk.PickupID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	stored, err := f.store.GetPickup(f.ctx, pk.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusProposed, stored.Status)
	assert.Nil(t, stored.ConfirmedAt)
}

func TestTransitionsOutsideTableAreRejected(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)

	_, err := f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "Proposed cannot jump to Completed")

	_, err = f.svc.Pickups.Cancel(f.ctx, giver, pk.PickupID)
	require.NoError(t, err)
	_, err = f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.svc.Pickups.Cancel(f.ctx, giver, pk.PickupID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTransitionCheckOrder(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)

	_, err := f.svc.Pickups.Confirm(f.ctx, giver, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Forbidden wins over an impossible transition.
	_, err = f.svc.Pickups.Complete(f.ctx, stranger, pk.PickupID, CompleteInput{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// InvalidTransition wins over a malformed payload.
	_, err = f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Pickups.Confirm(f.ctx, collector, pk.PickupID)
	require.NoError(t, err)

	tests := []struct {
		name string
		fw   *models.FinalWaste
	}{
		{"missing", nil},
		{"negative kg", &models.FinalWaste{MaterialIDs: []string{"m1"}, Kg: -1}},
		{"negative price", &models.FinalWaste{MaterialIDs: []string{"m1"}, Price: -1}},
		{"no materials", &models.FinalWaste{Kg: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, CompleteInput{FinalWaste: tt.fw})
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	stored, err := f.store.GetPickup(f.ctx, pk.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusConfirmed, stored.Status, "rejected payloads never write")
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for i := 0; i < workers; i++ {
		actor := giver
		if i%2 == 1 {
			actor = collector
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Pickups.Confirm(f.ctx, actor, pk.PickupID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, err := range errs {
		kind := apperr.KindOf(err)
		assert.True(t, kind == apperr.KindConflict || kind == apperr.KindInvalidTransition, "unexpected %v", err)
	}
}

func TestProposeRules(t *testing.T) {
	f := newFixture(t)
	post, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)
	when := f.clock.Now().Add(time.Hour)

	_, err = f.svc.Pickups.Propose(f.ctx, giver, post.PostID, ProposeInput{PickupTime: when})
	assert.ErrorIs(t, err, apperr.ErrValidation, "own post")

	_, err = f.svc.Pickups.Propose(f.ctx, collector, post.PostID, ProposeInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation, "missing time")

	_, err = f.svc.Pickups.Propose(f.ctx, collector, "missing", ProposeInput{PickupTime: when})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	forum, err := f.svc.Posts.Create(f.ctx, giver, PostDraft{
		PostType: models.PostTypeForum, Title: "Tips",
		Forum: &models.ForumDetails{Category: models.ForumCategoryTips},
	})
	require.NoError(t, err)
	_, err = f.svc.Pickups.Propose(f.ctx, collector, forum.PostID, ProposeInput{PickupTime: when})
	assert.ErrorIs(t, err, apperr.ErrValidation, "forum posts are not collectable")

	first, err := f.svc.Pickups.Propose(f.ctx, collector, post.PostID, ProposeInput{PickupTime: when})
	require.NoError(t, err)
	assert.Equal(t, "Depot 4", first.PickupLocation, "defaults to the post location")
	second, err := f.svc.Pickups.Propose(f.ctx, stranger, post.PostID, ProposeInput{PickupTime: when})
	require.NoError(t, err)

	_, err = f.svc.Pickups.Cancel(f.ctx, collector, first.PickupID)
	require.NoError(t, err)
	p, err := f.svc.Posts.Get(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusWaiting, p.Status, "the other proposal still holds the post")

	_, err = f.svc.Pickups.Confirm(f.ctx, giver, second.PickupID)
	require.NoError(t, err)
	_, err = f.svc.Pickups.Propose(f.ctx, collector, post.PostID, ProposeInput{PickupTime: when})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "scheduled posts take no new proposals")
}

func TestPickupNotifiesCounterparty(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)
	assert.Len(t, f.notes.to(giver.UserID, models.NotificationTypePickup), 1)

	_, err := f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
	require.NoError(t, err)
	got := f.notes.to(collector.UserID, models.NotificationTypePickup)
	require.Len(t, got, 1)
	assert.Equal(t, pk.PickupID, got[0].ReferenceID)
	assert.Equal(t, giver.UserID, got[0].ActorID)
}

func TestPickupVisibility(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)

	_, err := f.svc.Pickups.Get(f.ctx, stranger, pk.PickupID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Pickups.Get(f.ctx, admin, pk.PickupID)
	assert.NoError(t, err)

	mine, err := f.svc.Pickups.ListForUser(f.ctx, collector, PickupRoleCollector, "", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	asGiver, err := f.svc.Pickups.ListForUser(f.ctx, collector, PickupRoleGiver, "", 0)
	require.NoError(t, err)
	assert.Empty(t, asGiver)
	none, err := f.svc.Pickups.ListForUser(f.ctx, stranger, PickupRoleAny, "", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Pickups.ListForUser(f.ctx, collector, "owner", "", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConfirmCancelsRivalProposals(t *testing.T) {
	f := newFixture(t)
	post, first := f.proposed(t)
	second, err := f.svc.Pickups.Propose(f.ctx, stranger, post.PostID, ProposeInput{PickupTime: f.clock.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = f.svc.Pickups.Confirm(f.ctx, giver, first.PickupID)
	require.NoError(t, err)

	rival, err := f.store.GetPickup(f.ctx, second.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusCancelled, rival.Status)
	assert.NotNil(t, rival.CancelledAt)
	assert.Len(t, f.notes.to(stranger.UserID, models.NotificationTypePickup), 1)

	_, err = f.svc.Pickups.Confirm(f.ctx, giver, second.PickupID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Pickups.Complete(f.ctx, collector, first.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	require.NoError(t, err)

	_, err = f.svc.Pickups.Cancel(f.ctx, stranger, second.PickupID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	p, err := f.svc.Posts.Get(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCollected, p.Status)

	_, err = f.svc.Pickups.Propose(f.ctx, stranger, post.PostID, ProposeInput{PickupTime: f.clock.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "collected posts take no new proposals")

	assert.Len(t, f.pointsOf(t, giver.UserID, models.TransactionPickupCompletion), 1)
	assert.Len(t, f.pointsOf(t, collector.UserID, models.TransactionPickupCompletion), 1)
	assert.Empty(t, f.pointsOf(t, stranger.UserID, models.TransactionPickupCompletion))
}

// seedPickup stores a pickup directly, bypassing the state machine, to set
// up states the services would not produce on their own.
func (f *fixture) seedPickup(t *testing.T, postID string, status models.PickupStatus) *models.Pickup {
	t.Helper()
	now := f.clock.Now()
	pk := &models.Pickup{
		PickupID:       f.deps.NewID(),
		PostID:         postID,
		GiverID:        giver.UserID,
		CollectorID:    stranger.UserID,
		PickupTime:     now.Add(time.Hour),
		PickupLocation: "Depot 4",
		Status:         status,
		ProposedAt:     &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == models.PickupStatusConfirmed {
		pk.ConfirmedAt = &now
	}
	require.NoError(t, f.store.CreatePickup(f.ctx, pk))
	return pk
}

func TestConfirmRequiresWaitingPost(t *testing.T) {
	t.Run("another pickup already confirmed", func(t *testing.T) {
		f := newFixture(t)
		post, pk := f.proposed(t)
		f.seedPickup(t, post.PostID, models.PickupStatusConfirmed)

		_, err := f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		stored, err := f.store.GetPickup(f.ctx, pk.PickupID)
		require.NoError(t, err)
		assert.Equal(t, models.PickupStatusProposed, stored.Status)
	})

	t.Run("post already collected", func(t *testing.T) {
		f := newFixture(t)
		post, pk := f.confirmed(t)
		_, err := f.svc.Pickups.Complete(f.ctx, collector, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
		require.NoError(t, err)
		late := f.seedPickup(t, post.PostID, models.PickupStatusProposed)

		_, err = f.svc.Pickups.Confirm(f.ctx, giver, late.PickupID)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	})
}

func TestCancelLeavesCollectedPost(t *testing.T) {
	f := newFixture(t)
	post, pk := f.confirmed(t)
	_, err := f.svc.Pickups.Complete(f.ctx, collector, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	require.NoError(t, err)
	late := f.seedPickup(t, post.PostID, models.PickupStatusProposed)

	_, err = f.svc.Pickups.Cancel(f.ctx, stranger, late.PickupID)
	require.NoError(t, err)

	p, err := f.svc.Posts.Get(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCollected, p.Status)
}

func TestCompleteReportsUnreadableBodyLast(t *testing.T) {
	f := newFixture(t)
	_, pk := f.proposed(t)
	bad := CompleteInput{DecodeErr: errors.New("EOF")}

	_, err := f.svc.Pickups.Complete(f.ctx, giver, "missing", bad)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Pickups.Complete(f.ctx, stranger, pk.PickupID, bad)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, bad)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
	require.NoError(t, err)
	_, err = f.svc.Pickups.Complete(f.ctx, giver, pk.PickupID, bad)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
