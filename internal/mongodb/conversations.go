package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// conversationDoc adds a scalar pair key so a unique index can cover
// (post, pair); a multikey index on the array would not.
type conversationDoc struct {
	models.Conversation `bson:",inline"`
	PairKey             string `bson:"pairKey"`
}

func pairKey(a, b string) string {
	pair := models.ParticipantPair(a, b)
	return pair[0] + "|" + pair[1]
}

func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	doc := conversationDoc{Conversation: *c, PairKey: pairKey(c.Participants[0], c.Participants[1])}
	doc.Participants = models.ParticipantPair(c.Participants[0], c.Participants[1])
	_, err := s.c(colConversations).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	doc, err := findOne[conversationDoc](ctx, s.c(colConversations), bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return &doc.Conversation, nil
}

func (s *Store) FindConversation(ctx context.Context, postID string, participants []string) (*models.Conversation, error) {
	if len(participants) != 2 {
		return nil, store.ErrNotFound
	}
	doc, err := findOne[conversationDoc](ctx, s.c(colConversations), bson.M{
		"postID":  postID,
		"pairKey": pairKey(participants[0], participants[1]),
	})
	if err != nil {
		return nil, err
	}
	return &doc.Conversation, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}})
	docs, err := findAll[conversationDoc](ctx, s.c(colConversations), bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.Conversation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Conversation)
	}
	return out, nil
}

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	n, err := s.c(colConversations).CountDocuments(ctx, bson.M{"_id": m.ConversationID})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	if _, err := s.c(colMessages).InsertOne(ctx, m); err != nil {
		return translate(err)
	}
	_, err = s.c(colConversations).UpdateOne(ctx,
		bson.M{"_id": m.ConversationID},
		bson.M{"$max": bson.M{"lastMessageAt": m.SentAt}})
	return err
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.Message](ctx, s.c(colMessages), bson.M{"conversationID": conversationID}, opts)
}

func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res, err := s.c(colMessages).UpdateMany(ctx,
		bson.M{"conversationID": conversationID, "senderID": bson.M{"$ne": readerID}, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
