package db

import (
	"context"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreatePickup(ctx context.Context, p *models.Pickup) error {
	row, err := toPickupRow(p)
	if err != nil {
		return err
	}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) GetPickup(ctx context.Context, id string) (*models.Pickup, error) {
	var row pickupRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model()
}

func (s *Store) ListPickups(ctx context.Context, f store.PickupFilter) ([]models.Pickup, error) {
	query := s.conn(ctx).Model(&pickupRow{})
	if f.PostID != "" {
		query = query.Where("post_id = ?", f.PostID)
	}
	if f.UserID != "" {
		query = query.Where("giver_id = ? OR collector_id = ?", f.UserID, f.UserID)
	}
	if f.GiverID != "" {
		query = query.Where("giver_id = ?", f.GiverID)
	}
	if f.CollectorID != "" {
		query = query.Where("collector_id = ?", f.CollectorID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", string(f.Status))
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var rows []pickupRow
	if err := query.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Pickup, 0, len(rows))
	for _, r := range rows {
		p, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// SwapPickup is a conditional UPDATE on the stored status; zero affected
// rows means either the pickup is gone or another writer got there first.
func (s *Store) SwapPickup(ctx context.Context, p *models.Pickup, from models.PickupStatus) error {
	row, err := toPickupRow(p)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Model(&pickupRow{}).
		Where("id = ? AND status = ?", row.ID, string(from)).
		Updates(map[string]any{
			"status":          row.Status,
			"pickup_time":     row.PickupTime,
			"pickup_location": row.PickupLocation,
			"final_waste":     row.FinalWaste,
			"proof_of_pickup": row.ProofOfPickup,
			"confirmed_at":    row.ConfirmedAt,
			"completed_at":    row.CompletedAt,
			"cancelled_at":    row.CancelledAt,
			"updated_at":      row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := s.conn(ctx).Model(&pickupRow{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
