package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

const MaxMessageLength = 2000

type Messaging struct {
	deps Deps
}

func NewMessaging(d Deps) *Messaging {
	return &Messaging{deps: d.withDefaults()}
}

// StartConversation opens, or returns the existing, thread between the
// caller and recipientID about a post. An empty recipient means the author.
func (s *Messaging) StartConversation(ctx context.Context, actor Identity, postID, recipientID string) (*models.Conversation, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	post, err := s.deps.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "post", postID)
	}
	if recipientID == "" {
		recipientID = post.UserID
	}
	if recipientID == actor.UserID {
		return nil, apperr.Validation("cannot start a conversation with yourself")
	}

	pair := models.ParticipantPair(actor.UserID, recipientID)
	existing, err := s.deps.Store.FindConversation(ctx, postID, pair)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	now := s.deps.Now()
	c := &models.Conversation{
		ConversationID: s.deps.NewID(),
		PostID:         postID,
		Participants:   pair,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	err = s.deps.Store.CreateConversation(ctx, c)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with the other participant; theirs is the thread.
		existing, err = s.deps.Store.FindConversation(ctx, postID, pair)
		if err != nil {
			return nil, storeErr(err, "conversation", postID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *Messaging) participant(ctx context.Context, actor Identity, id string) (*models.Conversation, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	c, err := s.deps.Store.GetConversation(ctx, id)
	if err != nil {
		return nil, storeErr(err, "conversation", id)
	}
	if !c.HasParticipant(actor.UserID) {
		return nil, apperr.Forbidden("not a participant of conversation %q", id)
	}
	return c, nil
}

func (s *Messaging) Send(ctx context.Context, actor Identity, conversationID, body string) (*models.Message, error) {
	c, err := s.participant(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("message body is required")
	}
	if len([]rune(body)) > MaxMessageLength {
		return nil, apperr.Validation("message body must be at most %d characters", MaxMessageLength)
	}
	m := &models.Message{
		MessageID:      s.deps.NewID(),
		ConversationID: c.ConversationID,
		SenderID:       actor.UserID,
		Body:           body,
		SentAt:         s.deps.Now(),
	}
	if err := s.deps.Store.AppendMessage(ctx, m); err != nil {
		return nil, storeErr(err, "conversation", conversationID)
	}
	s.deps.notify(c.Other(actor.UserID), actor.UserID, c.ConversationID, models.NotificationTypeMessage,
		utils.Excerpt(body, 120))
	return m, nil
}

func (s *Messaging) ListConversations(ctx context.Context, actor Identity) ([]models.Conversation, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	list, err := s.deps.Store.ListConversations(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return list, nil
}

// Messages returns the thread oldest first.
func (s *Messaging) Messages(ctx context.Context, actor Identity, conversationID string) ([]models.Message, error) {
	if _, err := s.participant(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.deps.Store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead flags every message from the other participant as read.
func (s *Messaging) MarkRead(ctx context.Context, actor Identity, conversationID string) (int64, error) {
	if _, err := s.participant(ctx, actor, conversationID); err != nil {
		return 0, err
	}
	n, err := s.deps.Store.MarkMessagesRead(ctx, conversationID, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return n, nil
}
