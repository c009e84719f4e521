package db

import (
	"context"

	"ecoloop/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	row := commentRow{ID: c.CommentID, PostID: c.PostID, UserID: c.UserID, Body: c.Body, CreatedAt: c.CreatedAt}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var rows []commentRow
	if err := s.conn(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) CreateSupport(ctx context.Context, sup *models.Support) error {
	row := supportRow{ID: sup.SupportID, PostID: sup.PostID, UserID: sup.UserID, Message: sup.Message, CreatedAt: sup.CreatedAt}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) ListSupports(ctx context.Context, postID string) ([]models.Support, error) {
	var rows []supportRow
	if err := s.conn(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Support, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
