package service

import (
	"context"
	"strings"
	"sync"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL store.  Each method is
// individually atomic, and MarkVerified performs the same version
// compare-and-swap as the SQL implementation, so optimistic-concurrency
// behavior matches production: overlapping claims race on the version,
// and exactly one swap succeeds.
type memStore struct {
	mu       sync.Mutex
	spots    map[string]*model.Spot
	history  []model.HistoryRecord
	accounts map[string]*model.PointsAccount
	events   map[string]*model.RewardEvent

	// afterClaimRead, when set, runs after SpotForClaim returns.  Tests
	// use it as a barrier so every racing goroutine reads the same
	// version before any swap happens.
	afterClaimRead func()
}

func newMemStore() *memStore {
	return &memStore{
		spots:    make(map[string]*model.Spot),
		accounts: make(map[string]*model.PointsAccount),
		events:   make(map[string]*model.RewardEvent),
	}
}

func copySpot(s *model.Spot) *model.Spot {
	c := *s
	return &c
}

// --- SpotStore ---

func (m *memStore) Insert(_ context.Context, s *model.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = 1
	m.spots[s.ID] = copySpot(s)
	return nil
}

func (m *memStore) InsertIfNoActiveLeavingSoon(_ context.Context, s *model.Spot, nowMillis int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.spots {
		if existing.OwnerID == s.OwnerID &&
			existing.PinType == model.PinLeavingSoon &&
			model.EffectivelyActive(existing, nowMillis) {
			return false, nil
		}
	}
	s.Version = 1
	m.spots[s.ID] = copySpot(s)
	return true, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copySpot(s), nil
}

func (m *memStore) Update(_ context.Context, s *model.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.spots[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Version = cur.Version + 1
	m.spots[s.ID] = copySpot(s)
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.spots, id)
	return nil
}

func (m *memStore) QueryActiveInCells(_ context.Context, cells []string, nowMillis int64) ([]model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Spot, 0)
	for _, s := range m.spots {
		if !model.EffectivelyActive(s, nowMillis) {
			continue
		}
		for _, c := range cells {
			if strings.HasPrefix(s.Geohash, c) {
				out = append(out, *copySpot(s))
				break
			}
		}
	}
	return out, nil
}

// --- AccountStore ---

func (m *memStore) Ensure(_ context.Context, userID string, isPremium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[userID]; !ok {
		m.accounts[userID] = &model.PointsAccount{UserID: userID, Badges: []string{}, IsPremium: isPremium}
	}
	return nil
}

func (m *memStore) Get(_ context.Context, userID string) (*model.PointsAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	c.Badges = append([]string{}, a.Badges...)
	return &c, nil
}

func (m *memStore) AddPoints(_ context.Context, userID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Points += delta
	return nil
}

func (m *memStore) AdjustReliability(_ context.Context, userID string, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if success {
		a.ReliabilityScore += model.ReliabilitySuccess
		if a.ReliabilityScore > model.MaxReliability {
			a.ReliabilityScore = model.MaxReliability
		}
	} else {
		a.ReliabilityScore -= model.ReliabilityFailure
		if a.ReliabilityScore < 0 {
			a.ReliabilityScore = 0
		}
	}
	return nil
}

func (m *memStore) AddBadge(_ context.Context, userID, badge string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if !a.HasBadge(badge) {
		a.Badges = append(a.Badges, badge)
	}
	return nil
}

func (m *memStore) SetPremium(_ context.Context, userID string, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsPremium = premium
	return nil
}

// --- ClaimCounter ---

func (m *memStore) CountByConfirmer(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, h := range m.history {
		if h.ConfirmerID == userID {
			n++
		}
	}
	return n, nil
}

// --- repository.Claimer ---

type memClaimTx struct{ m *memStore }

func (t *memClaimTx) SpotForClaim(ctx context.Context, spotID string) (*model.Spot, error) {
	s, err := t.m.GetByID(ctx, spotID)
	if err == nil && t.m.afterClaimRead != nil {
		t.m.afterClaimRead()
	}
	return s, err
}

func (t *memClaimTx) MarkVerified(_ context.Context, spotID string, version int64, nowMillis int64) (bool, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	s, ok := t.m.spots[spotID]
	if !ok || s.Version != version || s.ExpiresAtMillis <= nowMillis {
		return false, nil
	}
	s.Status = model.StatusVerified
	s.Version++
	return true, nil
}

func (t *memClaimTx) AppendHistory(_ context.Context, rec *model.HistoryRecord) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.m.history = append(t.m.history, *rec)
	return nil
}

func (t *memClaimTx) EnqueueReward(_ context.Context, ev *model.RewardEvent) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	c := *ev
	t.m.events[ev.HistoryID] = &c
	return nil
}

func (m *memStore) InClaimTx(_ context.Context, fn func(tx repository.ClaimTx) error) error {
	return fn(&memClaimTx{m: m})
}

// --- outbox reads used by worker-style tests ---

func (m *memStore) ListPending(_ context.Context, limit int) ([]model.RewardEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RewardEvent, 0)
	for _, ev := range m.events {
		if !ev.Applied {
			out = append(out, *ev)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) MarkApplied(_ context.Context, historyID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[historyID]
	if !ok || ev.Applied {
		return false, nil
	}
	ev.Applied = true
	return true, nil
}
