package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
)

func initiativeDraft() PostDraft {
	deadline := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	return PostDraft{
		PostType: models.PostTypeInitiative,
		Title:    "Beach cleanup",
		Initiative: &models.InitiativeDetails{
			Items:           []models.InitiativeItem{{ItemName: "Cans", MaterialID: "m1", Kg: 40}},
			ProjectDeadline: &deadline,
		},
	}
}

func TestCommentAwardsAuthor(t *testing.T) {
	f := newFixture(t)
	post, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)

	_, err = f.svc.Interactions.Comment(f.ctx, collector, post.PostID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Interactions.Comment(f.ctx, collector, "missing", "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Interactions.Comment(f.ctx, collector, post.PostID, "Are these **rinsed**?")
	require.NoError(t, err)
	_, err = f.svc.Interactions.Comment(f.ctx, giver, post.PostID, "Yes")
	require.NoError(t, err)

	assert.Len(t, f.pointsOf(t, giver.UserID, models.TransactionPostInteraction), 1, "own comments earn nothing")
	got := f.notes.to(giver.UserID, models.NotificationTypeComment)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Are these rinsed?")

	comments, err := f.svc.Interactions.Comments(f.ctx, post.PostID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestSupportInitiative(t *testing.T) {
	f := newFixture(t)
	waste, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)
	initiative, err := f.svc.Posts.Create(f.ctx, giver, initiativeDraft())
	require.NoError(t, err)

	_, err = f.svc.Interactions.Support(f.ctx, collector, waste.PostID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Interactions.Support(f.ctx, giver, initiative.PostID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Interactions.Support(f.ctx, collector, initiative.PostID, "I can bring gloves")
	require.NoError(t, err)
	_, err = f.svc.Interactions.Support(f.ctx, collector, initiative.PostID, "again")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	rows := f.pointsOf(t, collector.UserID, models.TransactionInitiativeSupport)
	require.Len(t, rows, 1)
	assert.Equal(t, PointsInitiativeSupport, rows[0].PointsEarned)
	assert.Len(t, f.notes.to(giver.UserID, models.NotificationTypeApplication), 1)

	supports, err := f.svc.Interactions.Supports(f.ctx, initiative.PostID)
	require.NoError(t, err)
	assert.Len(t, supports, 1)
}
