package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
)

func TestAwardRejectsInvalidAmount(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []int{0, -5} {
		_, err := f.svc.Ledger.Award(f.ctx, "u1", amount, models.TransactionPostInteraction, "")
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	}
	_, err := f.svc.Ledger.Award(f.ctx, "u1", 5, "Daily_Login", "")
	assert.ErrorIs(t, err, apperr.ErrUnknownTransactionKind)

	rows, err := f.svc.Ledger.History(f.ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, rows, "rejected awards write nothing")
}

func TestBalanceEqualsSumOfRows(t *testing.T) {
	f := newFixture(t)
	kinds := []models.TransactionKind{
		models.TransactionPostCreation,
		models.TransactionPostInteraction,
		models.TransactionPickupCompletion,
		models.TransactionInitiativeSupport,
	}
	want := 0
	for i := 1; i <= 40; i++ {
		amount := i%7 + 1
		_, err := f.svc.Ledger.Award(f.ctx, "u1", amount, kinds[i%len(kinds)], "")
		require.NoError(t, err)
		want += amount

		balance, err := f.svc.Ledger.Balance(f.ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, balance)
	}

	rows, err := f.svc.Ledger.History(f.ctx, "u1", 0)
	require.NoError(t, err)
	sum := 0
	for _, r := range rows {
		sum += r.PointsEarned
	}
	assert.Equal(t, want, sum)
}

func TestBadgeNotificationOnTierCrossing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Ledger.Award(f.ctx, "u1", 49, models.TransactionPickupCompletion, "")
	require.NoError(t, err)
	assert.Empty(t, f.notes.to("u1", models.NotificationTypeBadge))

	_, err = f.svc.Ledger.Award(f.ctx, "u1", 1, models.TransactionPostInteraction, "")
	require.NoError(t, err)
	got := f.notes.to("u1", models.NotificationTypeBadge)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Sprout")

	badge, err := f.svc.Ledger.Badge(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sprout", badge.Name)
}

func TestPostCreationPointsDailyLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < DailyPostLimit+1; i++ {
		_, err := f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
		require.NoError(t, err)
	}
	balance, err := f.svc.Ledger.Balance(f.ctx, giver.UserID)
	require.NoError(t, err)
	assert.Equal(t, DailyPostLimit*PointsPostCreation, balance)

	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Posts.Create(f.ctx, giver, bottlesDraft())
	require.NoError(t, err)
	balance, err = f.svc.Ledger.Balance(f.ctx, giver.UserID)
	require.NoError(t, err)
	assert.Equal(t, (DailyPostLimit+1)*PointsPostCreation, balance)
}
