package db

import (
	"context"
	"time"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	row, err := toPostRow(p)
	if err != nil {
		return err
	}
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var row postRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model()
}

func (s *Store) ListPosts(ctx context.Context, f store.PostFilter) ([]models.Post, error) {
	query := s.conn(ctx).Model(&postRow{})
	if f.PostType != "" {
		query = query.Where("post_type = ?", string(f.PostType))
	}
	if f.Status != "" {
		query = query.Where("status = ?", string(f.Status))
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var rows []postRow
	if err := query.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(rows))
	for _, r := range rows {
		p, err := r.model()
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

// UpdatePost never touches user_id, post_type or created_at.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	row, err := toPostRow(p)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Model(&postRow{}).
		Where("id = ? AND post_type = ?", row.ID, row.PostType).
		Updates(map[string]any{
			"title":       row.Title,
			"description": row.Description,
			"location":    row.Location,
			"status":      row.Status,
			"payload":     row.Payload,
			"updated_at":  row.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetPostStatus(ctx context.Context, id string, status models.PostStatus, at time.Time) error {
	res := s.conn(ctx).Model(&postRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&postRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
