package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ecoloop/internal/models"
)

func (s *Store) CreateMaterial(ctx context.Context, m *models.Material) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		row := materialRow{
			ID:                m.MaterialID,
			Type:              string(m.Type),
			AveragePricePerKg: m.AveragePricePerKg,
			CreatedAt:         m.CreatedAt,
			UpdatedAt:         m.UpdatedAt,
		}
		if err := tx.Omit("Prices").Create(&row).Error; err != nil {
			return err
		}
		for _, e := range m.PricingHistory {
			price := materialPriceRow{MaterialID: m.MaterialID, Price: e.Price, Date: e.Date}
			if err := tx.Create(&price).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func preloadPrices(db *gorm.DB) *gorm.DB {
	return db.Order("material_prices.id ASC")
}

func (s *Store) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	var row materialRow
	err := s.conn(ctx).Preload("Prices", preloadPrices).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var rows []materialRow
	if err := s.conn(ctx).Preload("Prices", preloadPrices).Order("type ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Material, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.model())
	}
	return out, nil
}

// AppendMaterialPrice locks the material row, appends the entry and sets the
// average to the mean of the full history.
func (s *Store) AppendMaterialPrice(ctx context.Context, id string, e models.PriceEntry, at time.Time) (*models.Material, error) {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var row materialRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		price := materialPriceRow{MaterialID: id, Price: e.Price, Date: e.Date}
		if err := tx.Create(&price).Error; err != nil {
			return err
		}
		var avg float64
		if err := tx.Model(&materialPriceRow{}).
			Where("material_id = ?", id).
			Select("COALESCE(AVG(price), 0)").
			Scan(&avg).Error; err != nil {
			return err
		}
		return tx.Model(&materialRow{}).
			Where("id = ?", id).
			Updates(map[string]any{"average_price_per_kg": avg, "updated_at": at}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetMaterial(ctx, id)
}
