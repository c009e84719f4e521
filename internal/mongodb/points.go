package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
)

func (s *Store) AppendPoint(ctx context.Context, p *models.Point) error {
	_, err := s.c(colPoints).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) SumPoints(ctx context.Context, userID string) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userID", Value: userID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$pointsEarned"}}},
		}}},
	}
	cursor, err := s.c(colPoints).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *Store) CountPoints(ctx context.Context, userID string, kind models.TransactionKind, since time.Time) (int64, error) {
	return s.c(colPoints).CountDocuments(ctx, bson.M{
		"userID":      userID,
		"transaction": kind,
		"receivedAt":  bson.M{"$gte": since},
	})
}

func (s *Store) ListPoints(ctx context.Context, userID string, limit int) ([]models.Point, error) {
	opts := options.Find().SetSort(bson.D{{Key: "receivedAt", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[models.Point](ctx, s.c(colPoints), bson.M{"userID": userID}, opts)
}
