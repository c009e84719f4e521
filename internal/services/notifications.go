package services

import (
	"context"
	"fmt"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

type Notifications struct {
	deps Deps
}

func NewNotifications(d Deps) *Notifications {
	return &Notifications{deps: d.withDefaults()}
}

func (s *Notifications) List(ctx context.Context, actor Identity, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	list, err := s.deps.Store.ListNotifications(ctx, store.NotificationFilter{
		UserID:     actor.UserID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkRead reports NotFound for ids that belong to someone else.
func (s *Notifications) MarkRead(ctx context.Context, actor Identity, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if err := s.deps.Store.MarkNotificationRead(ctx, id, actor.UserID); err != nil {
		return storeErr(err, "notification", id)
	}
	return nil
}

func (s *Notifications) MarkAllRead(ctx context.Context, actor Identity) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	n, err := s.deps.Store.MarkAllNotificationsRead(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

func (s *Notifications) UnreadCount(ctx context.Context, actor Identity) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	n, err := s.deps.Store.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
