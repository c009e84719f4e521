package mongodb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"ecoloop/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	doc := *u
	doc.Email = strings.ToLower(doc.Email)
	_, err := s.c(colUsers).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.c(colUsers), bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.c(colUsers), bson.M{"email": strings.ToLower(email)})
}
