package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
)

func TestAnalyticsAfterCompletedPickup(t *testing.T) {
	f := newFixture(t)
	_, pk := f.confirmed(t)
	_, err := f.svc.Pickups.Complete(f.ctx, collector, pk.PickupID, CompleteInput{FinalWaste: bottlesFinalWaste()})
	require.NoError(t, err)

	sum, err := f.svc.Analytics.UserSummary(f.ctx, giver)
	require.NoError(t, err)
	assert.Equal(t, PointsPostCreation+PointsPickupCompletion, sum.Balance)
	assert.Equal(t, 1, sum.PostsByType[models.PostTypeWaste])
	assert.Equal(t, 1, sum.CompletedAsGiver)
	assert.Zero(t, sum.CompletedAsCollect)
	assert.Equal(t, 2.0, sum.KgMoved)
	assert.Equal(t, 100.0, sum.ValueMoved)

	_, err = f.svc.Analytics.MaterialTotals(f.ctx, giver)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	totals, err := f.svc.Analytics.MaterialTotals(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "m1", totals[0].MaterialID)
	assert.Equal(t, models.MaterialPlastic, totals[0].Type)
	assert.Equal(t, 2.0, totals[0].Kg)
	assert.Equal(t, 1, totals[0].Pickups)
}
