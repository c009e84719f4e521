package db

import (
	"context"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	row := notificationRow{
		ID:          n.NotificationID,
		UserID:      n.UserID,
		ActorID:     n.ActorID,
		ReferenceID: n.ReferenceID,
		Type:        string(n.Type),
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) ListNotifications(ctx context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	query := s.conn(ctx).Where("user_id = ?", f.UserID)
	if f.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	var rows []notificationRow
	if err := query.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	var row notificationRow
	if err := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return translate(err)
	}
	return s.conn(ctx).Model(&row).Update("is_read", true).Error
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := s.conn(ctx).Model(&notificationRow{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&notificationRow{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
