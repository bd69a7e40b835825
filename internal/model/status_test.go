package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func spotAt(status Status, expiresAt int64) *Spot {
	return &Spot{Status: status, ExpiresAtMillis: expiresAt}
}

func TestEffectiveStatusExpiryWinsOverStoredStatus(t *testing.T) {
	tests := []struct {
		name   string
		stored Status
		expiry int64
		now    int64
		want   Status
	}{
		{"active before expiry", StatusLeavingSoonActive, 2000, 1000, StatusLeavingSoonActive},
		{"expires exactly now", StatusLeavingSoonActive, 1000, 1000, StatusExpired},
		{"expired in the past", StatusWalkInPending, 500, 1000, StatusExpired},
		{"verified stays verified", StatusVerified, 2000, 1000, StatusVerified},
		{"verified but timed out", StatusVerified, 999, 1000, StatusExpired},
		{"occupied before expiry", StatusOccupied, 2000, 1000, StatusOccupied},
		{"legacy potentially free", StatusPotentiallyFree, 2000, 1000, StatusPotentiallyFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveStatus(spotAt(tt.stored, tt.expiry), tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsClaimable(t *testing.T) {
	assert.True(t, IsClaimable(StatusPotentiallyFree))
	assert.True(t, IsClaimable(StatusVerified))
	assert.True(t, IsClaimable(StatusWalkInPending))
	assert.True(t, IsClaimable(StatusLeavingSoonActive))

	assert.False(t, IsClaimable(StatusOccupied))
	assert.False(t, IsClaimable(StatusExpired))
	assert.False(t, IsClaimable(StatusWalkInExpired))
	assert.False(t, IsClaimable(StatusLeavingSoonExpired))
}

func TestCreationStatus(t *testing.T) {
	assert.Equal(t, StatusWalkInPending, CreationStatus(PinWalkIn))
	assert.Equal(t, StatusLeavingSoonActive, CreationStatus(PinLeavingSoon))
}

func TestEffectivelyActive(t *testing.T) {
	assert.True(t, EffectivelyActive(spotAt(StatusWalkInPending, 2000), 1000))
	// Occupied is not claimable even while unexpired.
	assert.False(t, EffectivelyActive(spotAt(StatusOccupied, 2000), 1000))
	// Time always wins.
	assert.False(t, EffectivelyActive(spotAt(StatusWalkInPending, 1000), 1000))
}
