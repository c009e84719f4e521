package db

import (
	"context"

	"gorm.io/gorm"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	row := toConversationRow(c)
	return translate(s.conn(ctx).Create(&row).Error)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var row conversationRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	c := row.model()
	return &c, nil
}

func (s *Store) FindConversation(ctx context.Context, postID string, participants []string) (*models.Conversation, error) {
	if len(participants) != 2 {
		return nil, store.ErrNotFound
	}
	pair := models.ParticipantPair(participants[0], participants[1])
	var row conversationRow
	err := s.conn(ctx).
		Where("post_id = ? AND participant_a = ? AND participant_b = ?", postID, pair[0], pair[1]).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	c := row.model()
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var rows []conversationRow
	err := s.conn(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&conversationRow{}).
			Where("id = ? AND last_message_at < ?", m.ConversationID, m.SentAt).
			Update("last_message_at", m.SentAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&conversationRow{}).Where("id = ?", m.ConversationID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		row := messageRow{
			ID:             m.MessageID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Body:           m.Body,
			IsRead:         m.IsRead,
			SentAt:         m.SentAt,
		}
		return tx.Create(&row).Error
	}))
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rows []messageRow
	err := s.conn(ctx).Where("conversation_id = ?", conversationID).Order("sent_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res := s.conn(ctx).Model(&messageRow{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
