package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreatePickup(ctx context.Context, p *models.Pickup) error {
	_, err := s.c(colPickups).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) GetPickup(ctx context.Context, id string) (*models.Pickup, error) {
	return findOne[models.Pickup](ctx, s.c(colPickups), bson.M{"_id": id})
}

func (s *Store) ListPickups(ctx context.Context, f store.PickupFilter) ([]models.Pickup, error) {
	filter := bson.M{}
	if f.PostID != "" {
		filter["postID"] = f.PostID
	}
	if f.UserID != "" {
		filter["$or"] = bson.A{bson.M{"giverID": f.UserID}, bson.M{"collectorID": f.UserID}}
	}
	if f.GiverID != "" {
		filter["giverID"] = f.GiverID
	}
	if f.CollectorID != "" {
		filter["collectorID"] = f.CollectorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.Pickup](ctx, s.c(colPickups), filter, opts)
}

// SwapPickup replaces the document only while its stored status is still
// from; the filter and the write are one atomic server-side step.
func (s *Store) SwapPickup(ctx context.Context, p *models.Pickup, from models.PickupStatus) error {
	res, err := s.c(colPickups).ReplaceOne(ctx, bson.M{"_id": p.PickupID, "status": from}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.c(colPickups).CountDocuments(ctx, bson.M{"_id": p.PickupID})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
