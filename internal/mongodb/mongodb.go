// Package mongodb is the document-store implementation of store.Store built
// on the official mongo-driver.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/store"
)

const (
	colUsers         = "users"
	colPosts         = "posts"
	colPickups       = "pickups"
	colPoints        = "points"
	colMaterials     = "materials"
	colNotifications = "notifications"
	colConversations = "conversations"
	colMessages      = "messages"
	colComments      = "comments"
	colSupports      = "supports"
)

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info().Msg("Connected to MongoDB successfully")
	return client, nil
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

func NewStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) c(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique and lookup indexes every query relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colPosts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userID", Value: 1}}},
		},
		colPickups: {
			{Keys: bson.D{{Key: "postID", Value: 1}}},
			{Keys: bson.D{{Key: "giverID", Value: 1}}},
			{Keys: bson.D{{Key: "collectorID", Value: 1}}},
		},
		colPoints: {
			{Keys: bson.D{{Key: "userID", Value: 1}, {Key: "receivedAt", Value: -1}}},
		},
		colMaterials: {
			{Keys: bson.D{{Key: "type", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "userID", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colConversations: {
			{Keys: bson.D{{Key: "postID", Value: 1}, {Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		colMessages: {
			{Keys: bson.D{{Key: "conversationID", Value: 1}, {Key: "sentAt", Value: 1}}},
		},
		colComments: {
			{Keys: bson.D{{Key: "postID", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		colSupports: {
			{Keys: bson.D{{Key: "postID", Value: 1}, {Key: "userID", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, specs := range indexes {
		if _, err := s.c(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	log.Info().Msg("MongoDB indexes ensured")
	return nil
}

// WithinTx runs fn directly; each write here is a single-document atomic
// operation and standalone servers have no multi-document transactions.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Info().Msg("Disconnected from MongoDB")
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// requireMatch turns a zero match count into ErrNotFound.
func requireMatch(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
