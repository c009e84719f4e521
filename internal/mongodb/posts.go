package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	_, err := s.c(colPosts).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return findOne[models.Post](ctx, s.c(colPosts), bson.M{"_id": id})
}

func (s *Store) ListPosts(ctx context.Context, f store.PostFilter) ([]models.Post, error) {
	filter := bson.M{}
	if f.PostType != "" {
		filter["postType"] = f.PostType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.UserID != "" {
		filter["userID"] = f.UserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	return findAll[models.Post](ctx, s.c(colPosts), filter, opts)
}

// UpdatePost never touches userID, postType or createdAt.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	set := bson.M{
		"title":       p.Title,
		"description": p.Description,
		"location":    p.Location,
		"status":      p.Status,
		"updatedAt":   p.UpdatedAt,
	}
	switch p.PostType {
	case models.PostTypeWaste:
		set["waste"] = p.Waste
	case models.PostTypeInitiative:
		set["initiative"] = p.Initiative
	case models.PostTypeForum:
		set["forum"] = p.Forum
	}
	res, err := s.c(colPosts).UpdateOne(ctx,
		bson.M{"_id": p.PostID, "postType": p.PostType},
		bson.M{"$set": set})
	return requireMatch(res, err)
}

func (s *Store) SetPostStatus(ctx context.Context, id string, status models.PostStatus, at time.Time) error {
	res, err := s.c(colPosts).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}})
	return requireMatch(res, err)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.c(colPosts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
