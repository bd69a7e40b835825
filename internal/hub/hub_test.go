package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-spot-exchange/internal/geo"
	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// memSource is a mutable spot set with the same filtering rules as the
// real query path: effective-status active and exact haversine radius.
type memSource struct {
	mu    sync.Mutex
	now   int64
	spots []model.Spot
}

func (m *memSource) setNow(ms int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = ms
}

func (m *memSource) add(s model.Spot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spots = append(m.spots, s)
}

func (m *memSource) query(_ context.Context, center geo.Point, radius float64) ([]model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Spot, 0)
	for _, s := range m.spots {
		if !model.EffectivelyActive(&s, m.now) {
			continue
		}
		if geo.Distance(center, geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}) <= radius {
			out = append(out, s)
		}
	}
	return out, nil
}

func activeSpotAt(id string, lat, lng float64) model.Spot {
	return model.Spot{
		ID:              id,
		Latitude:        lat,
		Longitude:       lng,
		Geohash:         geo.Encode(geo.Point{Latitude: lat, Longitude: lng}),
		Status:          model.StatusLeavingSoonActive,
		CreatedAtMillis: 1_000_000,
		ExpiresAtMillis: 1_900_000,
	}
}

func receive(t *testing.T, c <-chan []model.Spot) []model.Spot {
	t.Helper()
	select {
	case snap := <-c:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshotWithRadiusCut(t *testing.T) {
	src := &memSource{now: 1_200_000}
	center := geo.Point{Latitude: 40.0, Longitude: -74.0}
	// ~4999 m and ~5001 m north of center.
	src.add(activeSpotAt("near", 40.0+4999.0/111194.9, -74.0))
	src.add(activeSpotAt("far", 40.0+5001.0/111194.9, -74.0))

	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), center, 5000)
	require.NoError(t, err)
	defer sub.Cancel()

	snap := receive(t, sub.C)
	require.Len(t, snap, 1)
	assert.Equal(t, "near", snap[0].ID)
}

func TestSpotChangedRefreshesCoveredSubscribers(t *testing.T) {
	src := &memSource{now: 1_200_000}
	center := geo.Point{Latitude: 40.0, Longitude: -74.0}
	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), center, 5000)
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Empty(t, receive(t, sub.C))

	spot := activeSpotAt("s1", 40.01, -74.0)
	src.add(spot)
	h.SpotChanged(context.Background(), &spot)

	snap := receive(t, sub.C)
	require.Len(t, snap, 1)
	assert.Equal(t, "s1", snap[0].ID)
}

func TestSpotChangedOutsideCoverDoesNotDeliver(t *testing.T) {
	src := &memSource{now: 1_200_000}
	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), geo.Point{Latitude: 40.0, Longitude: -74.0}, 5000)
	require.NoError(t, err)
	defer sub.Cancel()
	receive(t, sub.C) // drain initial snapshot

	// A spot on the other side of the planet shares no cover cell.
	spot := activeSpotAt("antipode", -40.0, 106.0)
	src.add(spot)
	h.SpotChanged(context.Background(), &spot)

	select {
	case snap := <-sub.C:
		t.Fatalf("unexpected delivery: %v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSweepDropsTimeExpiredSpots(t *testing.T) {
	src := &memSource{now: 1_200_000}
	center := geo.Point{Latitude: 40.0, Longitude: -74.0}
	src.add(activeSpotAt("s1", 40.01, -74.0))

	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), center, 5000)
	require.NoError(t, err)
	defer sub.Cancel()
	require.Len(t, receive(t, sub.C), 1)

	// Time passes beyond the spot's expiry; no write happens anywhere.
	src.setNow(2_000_000)
	h.Sweep(context.Background())

	assert.Empty(t, receive(t, sub.C))
}

func TestCancelStopsDeliveries(t *testing.T) {
	src := &memSource{now: 1_200_000}
	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), geo.Point{Latitude: 40.0, Longitude: -74.0}, 5000)
	require.NoError(t, err)
	receive(t, sub.C)

	sub.Cancel()
	// Cancel twice is safe.
	sub.Cancel()

	spot := activeSpotAt("s1", 40.01, -74.0)
	src.add(spot)
	h.SpotChanged(context.Background(), &spot)
	h.Sweep(context.Background())

	// The channel is closed and never delivers again.
	snap, open := <-sub.C
	assert.False(t, open)
	assert.Nil(t, snap)
}

func TestLatestSnapshotWins(t *testing.T) {
	src := &memSource{now: 1_200_000}
	h := New(src.query)
	sub, err := h.Subscribe(context.Background(), geo.Point{Latitude: 40.0, Longitude: -74.0}, 5000)
	require.NoError(t, err)
	defer sub.Cancel()
	receive(t, sub.C)

	// Two changes land before the consumer reads: only the second
	// snapshot (with both spots) is pending.
	a := activeSpotAt("a", 40.01, -74.0)
	src.add(a)
	h.SpotChanged(context.Background(), &a)
	b := activeSpotAt("b", 40.02, -74.0)
	src.add(b)
	h.SpotChanged(context.Background(), &b)

	snap := receive(t, sub.C)
	assert.Len(t, snap, 2)
}
