package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

const catalogListKey = "materials:all"

// Catalog owns the material list and its pricing history. Reads go through
// an LRU with TTL that every write clears.
type Catalog struct {
	deps  Deps
	byID  *utils.Cache[string, models.Material]
	lists *utils.Cache[string, []models.Material]
}

func NewCatalog(d Deps, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{
		deps:  d.withDefaults(),
		byID:  utils.NewCache[string, models.Material](256, ttl),
		lists: utils.NewCache[string, []models.Material](4, ttl),
	}
}

func (c *Catalog) invalidate() {
	c.byID.Purge()
	c.lists.Purge()
}

// Create adds a material of a known type. initialPrice, when set, becomes
// the first history entry.
func (c *Catalog) Create(ctx context.Context, actor Identity, typ models.MaterialType, initialPrice *float64) (*models.Material, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, apperr.Validation("unknown material type %q", typ)
	}
	now := c.deps.Now()
	m := &models.Material{
		MaterialID:     c.deps.NewID(),
		Type:           typ,
		PricingHistory: []models.PriceEntry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if initialPrice != nil {
		if *initialPrice < 0 {
			return nil, apperr.Validation("price must not be negative")
		}
		m.PricingHistory = append(m.PricingHistory, models.PriceEntry{Price: *initialPrice, Date: now})
		m.AveragePricePerKg = models.MeanPrice(m.PricingHistory)
	}
	if err := c.deps.Store.CreateMaterial(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("material type %q already exists", typ)
		}
		return nil, fmt.Errorf("create material: %w", err)
	}
	c.invalidate()
	return m, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Material, error) {
	if m, ok := c.byID.Get(id); ok {
		return &m, nil
	}
	m, err := c.deps.Store.GetMaterial(ctx, id)
	if err != nil {
		return nil, storeErr(err, "material", id)
	}
	c.byID.Set(id, *m)
	return m, nil
}

func (c *Catalog) List(ctx context.Context) ([]models.Material, error) {
	if list, ok := c.lists.Get(catalogListKey); ok {
		return list, nil
	}
	list, err := c.deps.Store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	c.lists.Set(catalogListKey, list)
	return list, nil
}

// RecordPrice appends a price and recomputes the average over the whole
// history. A zero date means now.
func (c *Catalog) RecordPrice(ctx context.Context, actor Identity, id string, price float64, date time.Time) (*models.Material, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	now := c.deps.Now()
	if date.IsZero() {
		date = now
	}
	m, err := c.deps.Store.AppendMaterialPrice(ctx, id, models.PriceEntry{Price: price, Date: date.UTC()}, now)
	if err != nil {
		return nil, storeErr(err, "material", id)
	}
	c.invalidate()
	return m, nil
}

// Seed creates one material per known type that is still missing and
// reports how many were added. Running it twice adds nothing.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	existing, err := c.deps.Store.ListMaterials(ctx)
	if err != nil {
		return 0, fmt.Errorf("list materials: %w", err)
	}
	have := make(map[models.MaterialType]bool, len(existing))
	for _, m := range existing {
		have[m.Type] = true
	}

	created := 0
	for _, typ := range models.MaterialTypes {
		if have[typ] {
			continue
		}
		now := c.deps.Now()
		m := &models.Material{
			MaterialID:     c.deps.NewID(),
			Type:           typ,
			PricingHistory: []models.PriceEntry{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := c.deps.Store.CreateMaterial(ctx, m)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed material %s: %w", typ, err)
		}
		created++
	}
	if created > 0 {
		c.invalidate()
		log.Info().Int("created", created).Msg("Material catalog seeded")
	}
	return created, nil
}

// Resolve checks that every id names a catalog material.
func (c *Catalog) Resolve(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := c.Get(ctx, id); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.Validation("unknown materialID %q", id)
			}
			return err
		}
	}
	return nil
}
