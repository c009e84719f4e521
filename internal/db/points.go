package db

import (
	"context"
	"time"

	"ecoloop/internal/models"
)

// AppendPoint only ever inserts; ledger rows are never updated.
func (s *Store) AppendPoint(ctx context.Context, p *models.Point) error {
	row := pointRow{
		ID:           p.PointID,
		UserID:       p.UserID,
		PointsEarned: p.PointsEarned,
		Transaction:  string(p.Transaction),
		ReferenceID:  p.ReferenceID,
		ReceivedAt:   p.ReceivedAt,
	}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) SumPoints(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.conn(ctx).Model(&pointRow{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&total).Error
	return total, err
}

func (s *Store) CountPoints(ctx context.Context, userID string, kind models.TransactionKind, since time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&pointRow{}).
		Where("user_id = ? AND transaction_kind = ? AND received_at >= ?", userID, string(kind), since).
		Count(&count).Error
	return count, err
}

func (s *Store) ListPoints(ctx context.Context, userID string, limit int) ([]models.Point, error) {
	query := s.conn(ctx).Where("user_id = ?", userID).Order("received_at DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []pointRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
