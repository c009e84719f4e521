package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestCanTransition(t *testing.T) {
	all := []PickupStatus{PickupStatusProposed, PickupStatusConfirmed, PickupStatusCompleted, PickupStatusCancelled}
	allowed := map[[2]PickupStatus]bool{
		{PickupStatusProposed, PickupStatusConfirmed}:  true,
		{PickupStatusProposed, PickupStatusCancelled}:  true,
		{PickupStatusConfirmed, PickupStatusCompleted}: true,
		{PickupStatusConfirmed, PickupStatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]PickupStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestAdvanceStampsMatchingTimestamp(t *testing.T) {
	at := mustTime(t, "2026-10-19T10:00:00Z")
	p := Pickup{Status: PickupStatusProposed}

	confirmed, err := p.Advance(PickupStatusConfirmed, at)
	require.NoError(t, err)
	assert.Equal(t, PickupStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Nil(t, confirmed.CompletedAt)
	assert.Nil(t, confirmed.CancelledAt)
	assert.Equal(t, PickupStatusProposed, p.Status, "receiver must not change")

	cancelled, err := confirmed.Advance(PickupStatusCancelled, at.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Nil(t, cancelled.CompletedAt)

	_, err = cancelled.Advance(PickupStatusCompleted, at)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFinalWasteValidate(t *testing.T) {
	ok := &FinalWaste{ItemName: "Bottles", MaterialIDs: []string{"m1"}, Price: 100, Kg: 2}
	assert.NoError(t, ok.Validate())

	var missing *FinalWaste
	assert.Error(t, missing.Validate())
	assert.Error(t, (&FinalWaste{MaterialIDs: []string{"m1"}, Kg: -1}).Validate())
	assert.Error(t, (&FinalWaste{MaterialIDs: []string{"m1"}, Price: -5}).Validate())
	assert.Error(t, (&FinalWaste{Kg: 1}).Validate())
	assert.Error(t, (&FinalWaste{MaterialIDs: []string{" "}}).Validate())
}

func TestCounterparty(t *testing.T) {
	p := Pickup{GiverID: "g", CollectorID: "c"}
	assert.Equal(t, "c", p.Counterparty("g"))
	assert.Equal(t, "g", p.Counterparty("c"))
	assert.Equal(t, "", p.Counterparty("x"))
	assert.True(t, p.IsParty("g"))
	assert.False(t, p.IsParty(""))
}

func TestFinalWasteRequiresPriceAndKg(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing price", `{"itemName":"Bottles","materialIDs":["m1"],"kg":2}`, "price is required"},
		{"missing kg", `{"itemName":"Bottles","materialIDs":["m1"],"price":10}`, "kg is required"},
		{"null price", `{"itemName":"Bottles","materialIDs":["m1"],"price":null,"kg":2}`, "price is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fw FinalWaste
			err := json.Unmarshal([]byte(tt.body), &fw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	var fw FinalWaste
	require.NoError(t, json.Unmarshal([]byte(`{"itemName":"Bottles","materialIDs":["m1"],"price":0,"kg":0}`), &fw))
	require.NoError(t, fw.Validate())
	assert.Equal(t, 0.0, fw.Price)
	assert.Equal(t, []string{"m1"}, fw.MaterialIDs)
}
