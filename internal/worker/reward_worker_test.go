package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// fakeOutbox is an in-memory Outbox keyed by history id.
type fakeOutbox struct {
	mu      sync.Mutex
	events  []model.RewardEvent
	listErr error
}

func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]model.RewardEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.RewardEvent
	for _, ev := range f.events {
		if !ev.Applied {
			out = append(out, ev)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkApplied(ctx context.Context, historyID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].HistoryID == historyID {
			if f.events[i].Applied {
				return false, nil
			}
			f.events[i].Applied = true
			return true, nil
		}
	}
	return false, nil
}

// fakeAccounts is a minimal service.AccountStore backed by maps.
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.PointsAccount
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: map[string]*model.PointsAccount{}}
}

func (f *fakeAccounts) Ensure(ctx context.Context, userID string, isPremium bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[userID]; !ok {
		f.accounts[userID] = &model.PointsAccount{UserID: userID, IsPremium: isPremium}
	}
	return nil
}

func (f *fakeAccounts) Get(ctx context.Context, userID string) (*model.PointsAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[userID]
	if !ok {
		return nil, errors.New("account missing")
	}
	cp := *acct
	return &cp, nil
}

func (f *fakeAccounts) AddPoints(ctx context.Context, userID string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[userID].Points += delta
	return nil
}

func (f *fakeAccounts) AdjustReliability(ctx context.Context, userID string, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[userID]
	if success {
		acct.ReliabilityScore += model.ReliabilitySuccess
		if acct.ReliabilityScore > model.MaxReliability {
			acct.ReliabilityScore = model.MaxReliability
		}
	} else {
		acct.ReliabilityScore -= model.ReliabilityFailure
		if acct.ReliabilityScore < 0 {
			acct.ReliabilityScore = 0
		}
	}
	return nil
}

func (f *fakeAccounts) SetPremium(ctx context.Context, userID string, premium bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[userID].IsPremium = premium
	return nil
}

func (f *fakeAccounts) AddBadge(ctx context.Context, userID, badge string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[userID]
	for _, b := range acct.Badges {
		if b == badge {
			return nil
		}
	}
	acct.Badges = append(acct.Badges, badge)
	return nil
}

type fakeClaims struct{ counts map[string]int64 }

func (f *fakeClaims) CountByConfirmer(ctx context.Context, userID string) (int64, error) {
	return f.counts[userID], nil
}

func TestDrainAppliesPendingEvents(t *testing.T) {
	outbox := &fakeOutbox{events: []model.RewardEvent{
		{HistoryID: "h1", SpotID: "s1", OwnerID: "owner", ConfirmerID: "claimer", Multiplier: model.DefaultMultiplier},
	}}
	accounts := newFakeAccounts()
	ledger := service.NewLedger(accounts, &fakeClaims{counts: map[string]int64{"claimer": 1}})
	w := New(outbox, ledger, 0)

	require.NoError(t, w.Drain(context.Background()))

	claimer, err := accounts.Get(context.Background(), "claimer")
	require.NoError(t, err)
	assert.Equal(t, int64(model.ConfirmerBasePoints), claimer.Points)
	assert.Contains(t, claimer.Badges, model.BadgeFirstConfirm)

	owner, err := accounts.Get(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(model.OwnerBasePoints), owner.Points)
	assert.Equal(t, model.ReliabilitySuccess, owner.ReliabilityScore)

	assert.True(t, outbox.events[0].Applied)
}

func TestDrainSkipsAlreadyAppliedEvents(t *testing.T) {
	outbox := &fakeOutbox{events: []model.RewardEvent{
		{HistoryID: "h1", OwnerID: "owner", ConfirmerID: "claimer", Multiplier: model.DefaultMultiplier},
	}}
	accounts := newFakeAccounts()
	ledger := service.NewLedger(accounts, &fakeClaims{counts: map[string]int64{}})
	w := New(outbox, ledger, 0)

	require.NoError(t, w.Drain(context.Background()))
	require.NoError(t, w.Drain(context.Background()))

	claimer, err := accounts.Get(context.Background(), "claimer")
	require.NoError(t, err)
	assert.Equal(t, int64(model.ConfirmerBasePoints), claimer.Points, "second drain must not double-award")
}

func TestConcurrentDrainsAwardOnce(t *testing.T) {
	outbox := &fakeOutbox{events: []model.RewardEvent{
		{HistoryID: "h1", OwnerID: "owner", ConfirmerID: "claimer", Multiplier: model.DefaultMultiplier},
	}}
	accounts := newFakeAccounts()
	ledger := service.NewLedger(accounts, &fakeClaims{counts: map[string]int64{}})
	w := New(outbox, ledger, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Drain(context.Background())
		}()
	}
	wg.Wait()

	claimer, err := accounts.Get(context.Background(), "claimer")
	require.NoError(t, err)
	assert.Equal(t, int64(model.ConfirmerBasePoints), claimer.Points)
}

func TestDrainReportsListError(t *testing.T) {
	outbox := &fakeOutbox{listErr: errors.New("db down")}
	ledger := service.NewLedger(newFakeAccounts(), &fakeClaims{counts: map[string]int64{}})
	w := New(outbox, ledger, 0)

	assert.Error(t, w.Drain(context.Background()))
}
