package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
)

func (s *Store) CreateMaterial(ctx context.Context, m *models.Material) error {
	doc := *m
	if doc.PricingHistory == nil {
		doc.PricingHistory = []models.PriceEntry{}
	}
	_, err := s.c(colMaterials).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	return findOne[models.Material](ctx, s.c(colMaterials), bson.M{"_id": id})
}

func (s *Store) ListMaterials(ctx context.Context) ([]models.Material, error) {
	opts := options.Find().SetSort(bson.D{{Key: "type", Value: 1}})
	return findAll[models.Material](ctx, s.c(colMaterials), bson.M{}, opts)
}

// AppendMaterialPrice uses an update pipeline so the push and the average
// are computed in the same single-document write.
func (s *Store) AppendMaterialPrice(ctx context.Context, id string, e models.PriceEntry, at time.Time) (*models.Material, error) {
	entry := bson.D{{Key: "price", Value: e.Price}, {Key: "date", Value: e.Date}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "pricingHistory", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$pricingHistory", bson.A{}}}},
				bson.A{entry},
			}}}},
			{Key: "updatedAt", Value: at},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "averagePricePerKg", Value: bson.D{{Key: "$avg", Value: "$pricingHistory.price"}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.Material
	err := s.c(colMaterials).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}
