package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
)

func TestConversationLifecycle(t *testing.T) {
	f := newFixture(t)
	post, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)

	_, err = f.svc.Messaging.StartConversation(f.ctx, giver, post.PostID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation, "author cannot message themselves")

	c, err := f.svc.Messaging.StartConversation(f.ctx, collector, post.PostID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantPair(giver.UserID, collector.UserID), c.Participants)

	again, err := f.svc.Messaging.StartConversation(f.ctx, giver, post.PostID, collector.UserID)
	require.NoError(t, err)
	assert.Equal(t, c.ConversationID, again.ConversationID, "same post and pair reuse the thread")

	_, err = f.svc.Messaging.Send(f.ctx, stranger, c.ConversationID, "hello")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Messaging.Send(f.ctx, collector, c.ConversationID, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Messaging.Send(f.ctx, collector, c.ConversationID, strings.Repeat("x", MaxMessageLength+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Messaging.Send(f.ctx, collector, c.ConversationID, "Is Saturday fine?")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.Messaging.Send(f.ctx, giver, c.ConversationID, "Yes")
	require.NoError(t, err)

	got := f.notes.to(giver.UserID, models.NotificationTypeMessage)
	require.Len(t, got, 1)
	assert.Equal(t, "Is Saturday fine?", got[0].Message)

	msgs, err := f.svc.Messaging.Messages(f.ctx, giver, c.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, collector.UserID, msgs[0].SenderID)

	read, err := f.svc.Messaging.MarkRead(f.ctx, giver, c.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read)

	list, err := f.svc.Messaging.ListConversations(f.ctx, collector)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].LastMessageAt.Equal(f.clock.Now()))

	_, err = f.svc.Messaging.Messages(f.ctx, stranger, c.ConversationID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
