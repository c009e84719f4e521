// Package storetest is a conformance suite every store.Store backend runs.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// base is millisecond-aligned so every backend round-trips it exactly.
var base = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("Pickups", func(t *testing.T) { testPickups(t, newStore(t)) })
	t.Run("PickupSwapRace", func(t *testing.T) { testPickupSwapRace(t, newStore(t)) })
	t.Run("Points", func(t *testing.T) { testPoints(t, newStore(t)) })
	t.Run("Materials", func(t *testing.T) { testMaterials(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("Conversations", func(t *testing.T) { testConversations(t, newStore(t)) })
	t.Run("Interactions", func(t *testing.T) { testInteractions(t, newStore(t)) })
}

func id() string { return uuid.NewString() }

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &models.User{UserID: id(), Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: models.RoleUser, CreatedAt: base}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := &models.User{UserID: id(), Name: "Other", Email: "ada@example.com", PasswordHash: "y", Role: models.RoleUser, CreatedAt: base}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
	assert.Equal(t, "x", got.PasswordHash)

	_, err = s.GetUser(ctx, id())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func newWastePost(owner string, at time.Time) *models.Post {
	return &models.Post{
		PostID:   id(),
		UserID:   owner,
		PostType: models.PostTypeWaste,
		Title:    "Bottles",
		Location: "Depot 4",
		Status:   models.PostStatusActive,
		Waste: &models.WasteDetails{Items: []models.WasteItem{
			{ItemName: "Bottles", MaterialID: "m1", SellingPrice: 50, Kg: 2},
		}},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func testPosts(t *testing.T, s store.Store) {
	ctx := context.Background()
	deadline := base.Add(30 * 24 * time.Hour)

	waste := newWastePost("giver", base)
	initiative := &models.Post{
		PostID: id(), UserID: "giver", PostType: models.PostTypeInitiative, Title: "Beach cleanup",
		Status: models.PostStatusActive,
		Initiative: &models.InitiativeDetails{
			Items:           []models.InitiativeItem{{ItemName: "Cans", MaterialID: "m2", Kg: 40}},
			ProjectDeadline: &deadline,
		},
		CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	forum := &models.Post{
		PostID: id(), UserID: "other", PostType: models.PostTypeForum, Title: "Sorting tips",
		Status: models.PostStatusActive, Forum: &models.ForumDetails{Category: models.ForumCategoryTips},
		CreatedAt: base.Add(2 * time.Minute), UpdatedAt: base.Add(2 * time.Minute),
	}
	for _, p := range []*models.Post{waste, initiative, forum} {
		require.NoError(t, s.CreatePost(ctx, p))
	}

	got, err := s.GetPost(ctx, initiative.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostTypeInitiative, got.PostType)
	require.NotNil(t, got.Initiative)
	assert.Nil(t, got.Waste)
	assert.Nil(t, got.Forum)
	require.NotNil(t, got.Initiative.ProjectDeadline)
	assert.True(t, deadline.Equal(*got.Initiative.ProjectDeadline))
	assert.Equal(t, initiative.Initiative.Items, got.Initiative.Items)

	all, err := s.ListPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, forum.PostID, all[0].PostID, "newest first")

	mine, err := s.ListPosts(ctx, store.PostFilter{UserID: "giver", PostType: models.PostTypeWaste})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, waste.PostID, mine[0].PostID)

	paged, err := s.ListPosts(ctx, store.PostFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, initiative.PostID, paged[0].PostID)

	waste.Title = "Green bottles"
	waste.Waste.Items[0].Kg = 3
	waste.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdatePost(ctx, waste))
	got, err = s.GetPost(ctx, waste.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Green bottles", got.Title)
	assert.Equal(t, 3.0, got.Waste.Items[0].Kg)

	require.NoError(t, s.SetPostStatus(ctx, waste.PostID, models.PostStatusWaiting, base.Add(2*time.Hour)))
	waiting, err := s.ListPosts(ctx, store.PostFilter{Status: models.PostStatusWaiting})
	require.NoError(t, err)
	require.Len(t, waiting, 1)

	assert.ErrorIs(t, s.SetPostStatus(ctx, id(), models.PostStatusActive, base), store.ErrNotFound)

	require.NoError(t, s.DeletePost(ctx, forum.PostID))
	_, err = s.GetPost(ctx, forum.PostID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, forum.PostID), store.ErrNotFound)
}

func newPickup(postID string, at time.Time) *models.Pickup {
	proposed := at
	return &models.Pickup{
		PickupID:       id(),
		PostID:         postID,
		GiverID:        "giver",
		CollectorID:    "collector",
		PickupTime:     at.Add(24 * time.Hour),
		PickupLocation: "Depot 4",
		Status:         models.PickupStatusProposed,
		ProposedAt:     &proposed,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func testPickups(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newPickup("post-1", base)
	require.NoError(t, s.CreatePickup(ctx, p))
	other := newPickup("post-2", base.Add(time.Minute))
	other.CollectorID = "someone"
	require.NoError(t, s.CreatePickup(ctx, other))

	confirmed, err := p.Advance(models.PickupStatusConfirmed, base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.SwapPickup(ctx, &confirmed, models.PickupStatusProposed))

	// stale expectation
	assert.ErrorIs(t, s.SwapPickup(ctx, &confirmed, models.PickupStatusProposed), store.ErrConflict)

	completed, err := confirmed.Advance(models.PickupStatusCompleted, base.Add(2*time.Hour))
	require.NoError(t, err)
	completed.FinalWaste = &models.FinalWaste{ItemName: "Bottles", MaterialIDs: []string{"m1"}, Price: 100, Kg: 2}
	completed.ProofOfPickup = "https://img.example/proof.jpg"
	require.NoError(t, s.SwapPickup(ctx, &completed, models.PickupStatusConfirmed))

	got, err := s.GetPickup(ctx, p.PickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.ConfirmedAt)
	assert.Nil(t, got.CancelledAt)
	require.NotNil(t, got.FinalWaste)
	assert.Equal(t, []string{"m1"}, got.FinalWaste.MaterialIDs)
	assert.Equal(t, "https://img.example/proof.jpg", got.ProofOfPickup)

	missing := newPickup("post-3", base)
	assert.ErrorIs(t, s.SwapPickup(ctx, missing, models.PickupStatusProposed), store.ErrNotFound)

	byUser, err := s.ListPickups(ctx, store.PickupFilter{UserID: "collector"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, p.PickupID, byUser[0].PickupID)

	byGiver, err := s.ListPickups(ctx, store.PickupFilter{GiverID: "giver"})
	require.NoError(t, err)
	assert.Len(t, byGiver, 2)

	completedOnly, err := s.ListPickups(ctx, store.PickupFilter{Status: models.PickupStatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completedOnly, 1)

	forPost, err := s.ListPickups(ctx, store.PickupFilter{PostID: "post-2"})
	require.NoError(t, err)
	require.Len(t, forPost, 1)
	assert.Equal(t, other.PickupID, forPost[0].PickupID)
}

func testPickupSwapRace(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newPickup("post-race", base)
	require.NoError(t, s.CreatePickup(ctx, p))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next, _ := p.Advance(models.PickupStatusConfirmed, base.Add(time.Duration(i+1)*time.Second))
			errs[i] = s.SwapPickup(ctx, &next, models.PickupStatusProposed)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, store.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func testPoints(t *testing.T, s store.Store) {
	ctx := context.Background()
	kinds := []models.TransactionKind{
		models.TransactionPostCreation,
		models.TransactionPickupCompletion,
		models.TransactionPostCreation,
	}
	for i, k := range kinds {
		require.NoError(t, s.AppendPoint(ctx, &models.Point{
			PointID: id(), UserID: "u1", PointsEarned: 5 * (i + 1), Transaction: k,
			ReceivedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.AppendPoint(ctx, &models.Point{
		PointID: id(), UserID: "u2", PointsEarned: 7, Transaction: models.TransactionPostInteraction, ReceivedAt: base,
	}))

	sum, err := s.SumPoints(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, sum)

	empty, err := s.SumPoints(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, empty)

	n, err := s.CountPoints(ctx, "u1", models.TransactionPostCreation, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err := s.ListPoints(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 15, history[0].PointsEarned, "newest first")
	assert.Equal(t, 10, history[1].PointsEarned)
}

func testMaterials(t *testing.T, s store.Store) {
	ctx := context.Background()
	plastic := &models.Material{
		MaterialID: id(), Type: models.MaterialPlastic, AveragePricePerKg: 10,
		PricingHistory: []models.PriceEntry{{Price: 10, Date: base}},
		CreatedAt:      base, UpdatedAt: base,
	}
	require.NoError(t, s.CreateMaterial(ctx, plastic))
	require.NoError(t, s.CreateMaterial(ctx, &models.Material{
		MaterialID: id(), Type: models.MaterialGlass, CreatedAt: base, UpdatedAt: base,
	}))

	dup := &models.Material{MaterialID: id(), Type: models.MaterialPlastic, CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, s.CreateMaterial(ctx, dup), store.ErrDuplicate)

	updated, err := s.AppendMaterialPrice(ctx, plastic.MaterialID, models.PriceEntry{Price: 20, Date: base.Add(time.Hour)}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, updated.AveragePricePerKg, 1e-9)
	require.Len(t, updated.PricingHistory, 2)
	assert.True(t, updated.UpdatedAt.Equal(base.Add(time.Hour)))

	got, err := s.GetMaterial(ctx, plastic.MaterialID)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got.AveragePricePerKg, 1e-9)
	assert.Equal(t, 20.0, got.PricingHistory[1].Price)

	_, err = s.AppendMaterialPrice(ctx, id(), models.PriceEntry{Price: 1, Date: base}, base)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListMaterials(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.MaterialGlass, list[0].Type)
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			NotificationID: id(), UserID: "u1", ReferenceID: "p1", Type: models.NotificationTypePickup,
			Message: "pickup update", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.CreateNotification(ctx, n))
		ids = append(ids, n.NotificationID)
	}
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{
		NotificationID: id(), UserID: "u2", Type: models.NotificationTypeAlert, CreatedAt: base,
	}))

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, ids[0], "u2"), store.ErrNotFound)
	require.NoError(t, s.MarkNotificationRead(ctx, ids[0], "u1"))

	unread, err := s.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	list, err := s.ListNotifications(ctx, store.NotificationFilter{UserID: "u1", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].NotificationID)

	n, err := s.MarkAllNotificationsRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = s.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)

	others, err := s.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), others)
}

func testConversations(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := &models.Conversation{
		ConversationID: id(), PostID: "p1", Participants: models.ParticipantPair("bob", "amy"),
		CreatedAt: base, LastMessageAt: base,
	}
	require.NoError(t, s.CreateConversation(ctx, c))

	found, err := s.FindConversation(ctx, "p1", models.ParticipantPair("amy", "bob"))
	require.NoError(t, err)
	assert.Equal(t, c.ConversationID, found.ConversationID)

	_, err = s.FindConversation(ctx, "p2", models.ParticipantPair("amy", "bob"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	for i, sender := range []string{"amy", "bob", "amy"} {
		require.NoError(t, s.AppendMessage(ctx, &models.Message{
			MessageID: id(), ConversationID: c.ConversationID, SenderID: sender, Body: "hi",
			SentAt: base.Add(time.Duration(i+1) * time.Minute),
		}))
	}

	got, err := s.GetConversation(ctx, c.ConversationID)
	require.NoError(t, err)
	assert.True(t, got.LastMessageAt.Equal(base.Add(3*time.Minute)))

	msgs, err := s.ListMessages(ctx, c.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "bob", msgs[1].SenderID, "oldest first")

	read, err := s.MarkMessagesRead(ctx, c.ConversationID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), read)

	list, err := s.ListConversations(ctx, "amy")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	none, err := s.ListConversations(ctx, "carl")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testInteractions(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, s.CreateComment(ctx, &models.Comment{
			CommentID: id(), PostID: "p1", UserID: "u1", Body: "nice", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	comments, err := s.ListComments(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	sup := &models.Support{SupportID: id(), PostID: "p1", UserID: "u2", Message: "count me in", CreatedAt: base}
	require.NoError(t, s.CreateSupport(ctx, sup))
	again := &models.Support{SupportID: id(), PostID: "p1", UserID: "u2", CreatedAt: base}
	assert.ErrorIs(t, s.CreateSupport(ctx, again), store.ErrDuplicate)

	supports, err := s.ListSupports(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, supports, 1)
	assert.Equal(t, "count me in", supports[0].Message)
}
