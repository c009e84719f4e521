package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.c(colNotifications).InsertOne(ctx, n)
	return translate(err)
}

func (s *Store) ListNotifications(ctx context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	filter := bson.M{"userID": f.UserID}
	if f.UnreadOnly {
		filter["isRead"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.Notification](ctx, s.c(colNotifications), filter, opts)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.c(colNotifications).UpdateOne(ctx,
		bson.M{"_id": id, "userID": userID},
		bson.M{"$set": bson.M{"isRead": true}})
	return requireMatch(res, err)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.c(colNotifications).UpdateMany(ctx,
		bson.M{"userID": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.c(colNotifications).CountDocuments(ctx, bson.M{"userID": userID, "isRead": false})
}
