package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		points int64
		level  int
	}{
		{0, 1}, {99, 1}, {100, 2}, {399, 2}, {400, 3}, {899, 3}, {900, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, Level(tt.points), "points=%d", tt.points)
	}
}

func TestPointsForNextLevel(t *testing.T) {
	assert.Equal(t, int64(100), PointsForNextLevel(1))
	assert.Equal(t, int64(400), PointsForNextLevel(2))
	assert.Equal(t, int64(900), PointsForNextLevel(3))
	// Garbage input clamps to level 1.
	assert.Equal(t, int64(100), PointsForNextLevel(0))
}

func TestPriorityScore(t *testing.T) {
	assert.Equal(t, 50, PriorityScore(50, false, model.PinWalkIn))
	assert.Equal(t, 70, PriorityScore(50, true, model.PinWalkIn))
	assert.Equal(t, 85, PriorityScore(50, true, model.PinLeavingSoon))
	// 100 + 20 + 15 = 135 stays under the cap; cap applies beyond 150.
	assert.Equal(t, 135, PriorityScore(100, true, model.PinLeavingSoon))
	assert.Equal(t, model.MaxPriorityScore, PriorityScore(149, true, model.PinLeavingSoon))
	assert.Equal(t, 0, PriorityScore(-10, false, model.PinWalkIn))
}

func TestAwardPointsPremiumMultiplier(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	ctx := context.Background()

	granted, err := ledger.AwardPoints(ctx, "premium-user", 10, true, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(20), granted)

	granted, err = ledger.AwardPoints(ctx, "plain-user", 10, false, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), granted)

	a, err := store.Get(ctx, "premium-user")
	require.NoError(t, err)
	assert.Equal(t, int64(20), a.Points)

	b, err := store.Get(ctx, "plain-user")
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.Points)
}

func TestAwardPointsEventMultiplier(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	granted, err := ledger.AwardPoints(context.Background(), "u", 10, true, model.EventMultiplier)
	require.NoError(t, err)
	assert.Equal(t, int64(30), granted)
}

func TestAwardPointsRejectsNegativeBase(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	_, err := ledger.AwardPoints(context.Background(), "u", -1, false, 2)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAccountSyncsPremiumFromClaims(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	ctx := context.Background()

	require.NoError(t, store.Ensure(ctx, "u1", false))

	// The token now says premium; the stored flag follows.
	acct, err := ledger.Account(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, acct.IsPremium)

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, stored.IsPremium, "sync must persist, not just decorate the response")

	// And back again on downgrade.
	acct, err = ledger.Account(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, acct.IsPremium)
}

func TestAdjustReliabilityBounds(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	ctx := context.Background()

	// Failure on a fresh account floors at zero.
	require.NoError(t, ledger.AdjustReliability(ctx, "u", false))
	a, err := store.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 0, a.ReliabilityScore)

	// 51 successes would be 102; the score caps at 100.
	for i := 0; i < 51; i++ {
		require.NoError(t, ledger.AdjustReliability(ctx, "u", true))
	}
	a, err = store.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, model.MaxReliability, a.ReliabilityScore)
}

func TestApplyRewardEvent(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store, store)
	ctx := context.Background()

	// Owner is premium, confirmer is not.
	require.NoError(t, store.Ensure(ctx, "owner", true))
	store.history = append(store.history, model.HistoryRecord{
		ID: "h1", SpotID: "s1", ConfirmerID: "claimer", OwnerID: "owner",
	})

	ev := &model.RewardEvent{
		HistoryID: "h1", SpotID: "s1", OwnerID: "owner",
		ConfirmerID: "claimer", Multiplier: model.DefaultMultiplier,
	}
	require.NoError(t, ledger.ApplyRewardEvent(ctx, ev))

	claimer, err := store.Get(ctx, "claimer")
	require.NoError(t, err)
	assert.Equal(t, int64(model.ConfirmerBasePoints), claimer.Points)
	assert.True(t, claimer.HasBadge(model.BadgeFirstConfirm))

	owner, err := store.Get(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(model.OwnerBasePoints*model.DefaultMultiplier), owner.Points)
	assert.Equal(t, model.ReliabilitySuccess, owner.ReliabilityScore)
}
