package services

import (
	"context"
	"fmt"
	"sort"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

type Analytics struct {
	deps    Deps
	ledger  *Ledger
	catalog *Catalog
}

func NewAnalytics(d Deps, ledger *Ledger, catalog *Catalog) *Analytics {
	return &Analytics{deps: d.withDefaults(), ledger: ledger, catalog: catalog}
}

type UserSummary struct {
	UserID             string                      `json:"userID"`
	Balance            int                         `json:"balance"`
	Badge              utils.Badge                 `json:"badge"`
	PostsByType        map[models.PostType]int     `json:"postsByType"`
	CompletedAsGiver   int                         `json:"completedAsGiver"`
	CompletedAsCollect int                         `json:"completedAsCollector"`
	KgMoved            float64                     `json:"kgMoved"`
	ValueMoved         float64                     `json:"valueMoved"`
	OpenPickups        map[models.PickupStatus]int `json:"openPickups"`
}

// UserSummary gathers the caller's activity across posts, pickups and the
// ledger.
func (a *Analytics) UserSummary(ctx context.Context, actor Identity) (*UserSummary, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	standing, err := a.ledger.Standing(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	sum := &UserSummary{
		UserID:      actor.UserID,
		Balance:     standing.Balance,
		Badge:       standing.Badge,
		PostsByType: map[models.PostType]int{},
		OpenPickups: map[models.PickupStatus]int{},
	}

	posts, err := a.deps.Store.ListPosts(ctx, store.PostFilter{UserID: actor.UserID})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	for _, p := range posts {
		sum.PostsByType[p.PostType]++
	}

	pickups, err := a.deps.Store.ListPickups(ctx, store.PickupFilter{UserID: actor.UserID})
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	for _, p := range pickups {
		if p.Status.Open() {
			sum.OpenPickups[p.Status]++
			continue
		}
		if p.Status != models.PickupStatusCompleted {
			continue
		}
		if p.GiverID == actor.UserID {
			sum.CompletedAsGiver++
		} else {
			sum.CompletedAsCollect++
		}
		if p.FinalWaste != nil {
			sum.KgMoved += p.FinalWaste.Kg
			sum.ValueMoved += p.FinalWaste.Price
		}
	}
	return sum, nil
}

type MaterialTotal struct {
	MaterialID string              `json:"materialID"`
	Type       models.MaterialType `json:"type,omitempty"`
	Kg         float64             `json:"kg"`
	Value      float64             `json:"value"`
	Pickups    int                 `json:"pickups"`
}

// MaterialTotals sums completed pickups per material. A final waste naming
// several materials splits its kg and price evenly between them.
func (a *Analytics) MaterialTotals(ctx context.Context, actor Identity) ([]MaterialTotal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	pickups, err := a.deps.Store.ListPickups(ctx, store.PickupFilter{Status: models.PickupStatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}

	totals := map[string]*MaterialTotal{}
	for _, p := range pickups {
		fw := p.FinalWaste
		if fw == nil || len(fw.MaterialIDs) == 0 {
			continue
		}
		share := float64(len(fw.MaterialIDs))
		for _, id := range fw.MaterialIDs {
			t, ok := totals[id]
			if !ok {
				t = &MaterialTotal{MaterialID: id}
				totals[id] = t
			}
			t.Kg += fw.Kg / share
			t.Value += fw.Price / share
			t.Pickups++
		}
	}

	out := make([]MaterialTotal, 0, len(totals))
	for id, t := range totals {
		if m, err := a.catalog.Get(ctx, id); err == nil {
			t.Type = m.Type
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kg == out[j].Kg {
			return out[i].MaterialID < out[j].MaterialID
		}
		return out[i].Kg > out[j].Kg
	})
	return out, nil
}
