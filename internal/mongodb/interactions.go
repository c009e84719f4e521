package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := s.c(colComments).InsertOne(ctx, c)
	return translate(err)
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.Comment](ctx, s.c(colComments), bson.M{"postID": postID}, opts)
}

func (s *Store) CreateSupport(ctx context.Context, sup *models.Support) error {
	_, err := s.c(colSupports).InsertOne(ctx, sup)
	return translate(err)
}

func (s *Store) ListSupports(ctx context.Context, postID string) ([]models.Support, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.Support](ctx, s.c(colSupports), bson.M{"postID": postID}, opts)
}
