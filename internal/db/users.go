package db

import (
	"context"
	"strings"

	"ecoloop/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := toUserRow(u)
	row.Email = strings.ToLower(row.Email)
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := s.conn(ctx).Where("email = ?", strings.ToLower(email)).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}
