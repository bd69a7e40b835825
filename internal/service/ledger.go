package service

import (
	"context"
	"math"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// AccountStore is the persistence surface the ledger needs.  Implemented
// by *repository.PointsRepo.
type AccountStore interface {
	Ensure(ctx context.Context, userID string, isPremium bool) error
	Get(ctx context.Context, userID string) (*model.PointsAccount, error)
	AddPoints(ctx context.Context, userID string, delta int64) error
	AdjustReliability(ctx context.Context, userID string, success bool) error
	AddBadge(ctx context.Context, userID, badge string) error
	SetPremium(ctx context.Context, userID string, premium bool) error
}

// ClaimCounter reports how many confirmations a user has on record.
// Implemented by *repository.HistoryRepo.
type ClaimCounter interface {
	CountByConfirmer(ctx context.Context, userID string) (int64, error)
}

// Ledger owns all points, level, reliability and priority arithmetic.
// Balances only ever increase; reliability stays inside [0,100]; priority
// is capped at 150.
type Ledger struct {
	accounts AccountStore
	claims   ClaimCounter
}

// NewLedger constructs a Ledger over the given stores.
func NewLedger(accounts AccountStore, claims ClaimCounter) *Ledger {
	if accounts == nil || claims == nil {
		panic("nil store passed to NewLedger")
	}
	return &Ledger{accounts: accounts, claims: claims}
}

// Level derives a user's level from their balance:
// floor(sqrt(points/100)) + 1.
func Level(points int64) int {
	if points < 0 {
		return 1
	}
	return int(math.Sqrt(float64(points)/100)) + 1
}

// PointsForNextLevel returns the balance required to reach the given
// level: level^2 * 100.
func PointsForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(level) * int64(level) * 100
}

// PriorityScore combines reliability, premium status and pin type into a
// ranking value capped at 150.
func PriorityScore(reliability int, isPremium bool, pinType model.PinType) int {
	score := reliability
	if isPremium {
		score += 20
	}
	if pinType == model.PinLeavingSoon {
		score += 15
	}
	if score > model.MaxPriorityScore {
		return model.MaxPriorityScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// Granted computes the points actually credited for an award: the base
// amount, multiplied for premium accounts (floored, though with integer
// bases the floor is a no-op).
func Granted(basePoints int, isPremium bool, multiplier int) int64 {
	if isPremium {
		return int64(math.Floor(float64(basePoints) * float64(multiplier)))
	}
	return int64(basePoints)
}

// AwardPoints credits a user.  The account is created at zero when the
// user has never been seen before.  Returns the number of points actually
// granted.
func (l *Ledger) AwardPoints(ctx context.Context, userID string, basePoints int, isPremium bool, multiplier int) (int64, error) {
	if basePoints < 0 {
		return 0, invalid("base_points", "must be non-negative")
	}
	if multiplier < 1 {
		multiplier = model.DefaultMultiplier
	}
	if err := l.accounts.Ensure(ctx, userID, isPremium); err != nil {
		return 0, err
	}
	granted := Granted(basePoints, isPremium, multiplier)
	if err := l.accounts.AddPoints(ctx, userID, granted); err != nil {
		return 0, err
	}
	return granted, nil
}

// AdjustReliability moves a user's reliability score by the fixed deltas,
// creating the account first if needed.
func (l *Ledger) AdjustReliability(ctx context.Context, userID string, success bool) error {
	if err := l.accounts.Ensure(ctx, userID, false); err != nil {
		return err
	}
	return l.accounts.AdjustReliability(ctx, userID, success)
}

// Account returns the user's points account, creating it at zero on
// first sight so GetPoints never 404s for a legitimate caller.  The
// premium flag is owned by the billing collaborator and arrives via the
// token; when the stored copy disagrees it is re-synced here.
func (l *Ledger) Account(ctx context.Context, userID string, isPremium bool) (*model.PointsAccount, error) {
	if err := l.accounts.Ensure(ctx, userID, isPremium); err != nil {
		return nil, err
	}
	acct, err := l.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acct.IsPremium != isPremium {
		if err := l.accounts.SetPremium(ctx, userID, isPremium); err != nil {
			return nil, err
		}
		acct.IsPremium = isPremium
	}
	return acct, nil
}

// ApplyRewardEvent applies the rewards for one confirmation: base points
// to confirmer and owner (doubled or tripled for premium accounts per the
// event's multiplier), +2 reliability for the owner, and any badges the
// confirmer newly qualifies for.  Callers must have claimed the event
// first; this method itself is not idempotent.
func (l *Ledger) ApplyRewardEvent(ctx context.Context, ev *model.RewardEvent) error {
	if err := l.accounts.Ensure(ctx, ev.ConfirmerID, false); err != nil {
		return err
	}
	if err := l.accounts.Ensure(ctx, ev.OwnerID, false); err != nil {
		return err
	}
	confirmer, err := l.accounts.Get(ctx, ev.ConfirmerID)
	if err != nil {
		return err
	}
	owner, err := l.accounts.Get(ctx, ev.OwnerID)
	if err != nil {
		return err
	}

	if _, err := l.AwardPoints(ctx, ev.ConfirmerID, model.ConfirmerBasePoints, confirmer.IsPremium, ev.Multiplier); err != nil {
		return err
	}
	if _, err := l.AwardPoints(ctx, ev.OwnerID, model.OwnerBasePoints, owner.IsPremium, ev.Multiplier); err != nil {
		return err
	}
	if err := l.accounts.AdjustReliability(ctx, ev.OwnerID, true); err != nil {
		return err
	}
	return l.grantBadges(ctx, ev.ConfirmerID)
}

// grantBadges awards the milestone badges the user now qualifies for.
// AddBadge is a no-op when the badge is already held.
func (l *Ledger) grantBadges(ctx context.Context, userID string) error {
	claims, err := l.claims.CountByConfirmer(ctx, userID)
	if err != nil {
		return err
	}
	if claims >= 1 {
		if err := l.accounts.AddBadge(ctx, userID, model.BadgeFirstConfirm); err != nil {
			return err
		}
	}
	acct, err := l.accounts.Get(ctx, userID)
	if err != nil {
		return err
	}
	lvl := Level(acct.Points)
	if lvl >= 5 {
		if err := l.accounts.AddBadge(ctx, userID, model.BadgeLevel5); err != nil {
			return err
		}
	}
	if lvl >= 10 {
		if err := l.accounts.AddBadge(ctx, userID, model.BadgeLevel10); err != nil {
			return err
		}
	}
	return nil
}
