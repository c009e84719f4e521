package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

var (
	giver     = Identity{UserID: "giver", Role: models.RoleUser}
	collector = Identity{UserID: "collector", Role: models.RoleUser}
	stranger  = Identity{UserID: "stranger", Role: models.RoleUser}
	admin     = Identity{UserID: "admin", Role: models.RoleAdmin}
)

type recorder struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recorder) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) to(userID string, typ models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.got {
		if n.UserID == userID && n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx   context.Context
	store *store.Memory
	svc   *Services
	notes *recorder
	clock *testClock
	deps  Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	clock := &testClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	notes := &recorder{}
	var seq atomic.Int64
	deps := Deps{
		Store:    st,
		Notifier: notes,
		Now:      clock.Now,
		NewID:    func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}
	f := &fixture{
		ctx:   context.Background(),
		store: st,
		svc:   New(deps, time.Minute),
		notes: notes,
		clock: clock,
		deps:  deps,
	}
	require.NoError(t, st.CreateMaterial(f.ctx, &models.Material{
		MaterialID: "m1", Type: models.MaterialPlastic, PricingHistory: []models.PriceEntry{},
		CreatedAt: clock.Now(), UpdatedAt: clock.Now(),
	}))
	return f
}

func bottlesDraft() PostDraft {
	return PostDraft{
		PostType: models.PostTypeWaste,
		Title:    "Bottles",
		Location: "Depot 4",
		Waste: &models.WasteDetails{Items: []models.WasteItem{
			{ItemName: "Bottles", MaterialID: "m1", SellingPrice: 50, Kg: 2},
		}},
	}
}

func bottlesFinalWaste() *models.FinalWaste {
	return &models.FinalWaste{ItemName: "Bottles", MaterialIDs: []string{"m1"}, Price: 100, Kg: 2}
}

// proposed creates the Bottles post as giver and a pickup on it proposed by
// collector.
func (f *fixture) proposed(t *testing.T) (*models.Post, *models.Pickup) {
	t.Helper()
	post, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)
	pk, err := f.svc.Pickups.Propose(f.ctx, collector, post.PostID, ProposeInput{
		PickupTime:     f.clock.Now().Add(24 * time.Hour),
		PickupLocation: "Depot 4, gate B",
	})
	require.NoError(t, err)
	return post, pk
}

func (f *fixture) confirmed(t *testing.T) (*models.Post, *models.Pickup) {
	t.Helper()
	post, pk := f.proposed(t)
	pk, err := f.svc.Pickups.Confirm(f.ctx, giver, pk.PickupID)
	require.NoError(t, err)
	return post, pk
}

func (f *fixture) pointsOf(t *testing.T, userID string, kind models.TransactionKind) []models.Point {
	t.Helper()
	rows, err := f.store.ListPoints(f.ctx, userID, 0)
	require.NoError(t, err)
	var out []models.Point
	for _, r := range rows {
		if r.Transaction == kind {
			out = append(out, r)
		}
	}
	return out
}
