// Package hub implements the realtime subscription fanout for nearby
// discovery.  Subscribers register a circle (center + radius) and receive
// a filtered snapshot of the effectively-active spots inside it whenever
// the underlying set may have changed.  Spots are bucketed by geohash
// cell: a mutation only refreshes subscriptions whose cell cover contains
// the mutated spot, not every subscriber.  A periodic sweep re-delivers
// so time-expired spots drop out of snapshots without any write.
package hub

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/parking-spot-exchange/internal/geo"
	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// QueryFunc produces the snapshot for one subscription: every
// effectively-active spot within radiusMeters of center.  Wired to
// SpotService.Nearby in production.
type QueryFunc func(ctx context.Context, center geo.Point, radiusMeters float64) ([]model.Spot, error)

// Subscription is one live nearby stream.  Snapshots arrive on C; the
// channel holds only the latest snapshot, so a slow consumer sees fresh
// state rather than a backlog.  Cancel stops deliveries immediately and
// closes C.  There is no server-side timeout: liveness is entirely the
// caller's responsibility.
type Subscription struct {
	C      <-chan []model.Spot
	Cancel func()
}

type subscriber struct {
	center geo.Point
	radius float64
	cells  []string
	ch     chan []model.Spot
	closed bool
}

// matches reports whether a spot in the given geohash falls under the
// subscriber's cell cover.
func (s *subscriber) matches(spotHash string) bool {
	for _, c := range s.cells {
		if strings.HasPrefix(spotHash, c) {
			return true
		}
	}
	return false
}

// Hub tracks live subscriptions and pushes snapshots to them.
type Hub struct {
	query QueryFunc

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
}

// New constructs a Hub over the given snapshot query.
func New(query QueryFunc) *Hub {
	if query == nil {
		panic("nil query passed to hub.New")
	}
	return &Hub{query: query, subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a nearby stream and immediately delivers the
// current snapshot.  Deliveries stop the moment Cancel is called.
func (h *Hub) Subscribe(ctx context.Context, center geo.Point, radiusMeters float64) (*Subscription, error) {
	sub := &subscriber{
		center: center,
		radius: radiusMeters,
		cells:  geo.CellCover(center, radiusMeters),
		ch:     make(chan []model.Spot, 1),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	h.refresh(ctx, sub)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			s.closed = true
			close(s.ch)
		}
	}
	return &Subscription{C: sub.ch, Cancel: cancel}, nil
}

// SpotChanged notifies the hub that a spot was created, edited, deleted
// or confirmed.  Only subscriptions whose cover contains the spot's cell
// are refreshed.
func (h *Hub) SpotChanged(ctx context.Context, spot *model.Spot) {
	h.mu.Lock()
	affected := make([]*subscriber, 0)
	for _, s := range h.subs {
		if s.matches(spot.Geohash) {
			affected = append(affected, s)
		}
	}
	h.mu.Unlock()

	for _, s := range affected {
		h.refresh(ctx, s)
	}
}

// Sweep refreshes every live subscription.  Called periodically so spots
// whose expiry instant passed fall out of snapshots.
func (h *Hub) Sweep(ctx context.Context) {
	h.mu.Lock()
	all := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		all = append(all, s)
	}
	h.mu.Unlock()

	for _, s := range all {
		h.refresh(ctx, s)
	}
}

// Run sweeps on the given interval until ctx is cancelled.  Intended to
// be started once from main.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// refresh recomputes one subscriber's snapshot and replaces whatever is
// pending on its channel.
func (h *Hub) refresh(ctx context.Context, s *subscriber) {
	snap, err := h.query(ctx, s.center, s.radius)
	if err != nil {
		log.Printf("hub: snapshot query failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	// Latest snapshot wins: drop the undelivered one, if any.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}
