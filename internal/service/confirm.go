package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-spot-exchange/internal/clock"
	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/repository"
)

// Confirmer executes the atomic claim of a spot.  The status transition,
// the immutable history record and the reward outbox row commit as one
// transaction; of any number of concurrent confirmations on the same spot
// exactly one wins and the rest observe ErrConflict.  Losers are not
// retried here; retry after a fresh read is the caller's decision.
type Confirmer struct {
	store      repository.Claimer
	clk        clock.Clock
	multiplier int
}

// NewConfirmer constructs a Confirmer.  multiplier is the premium award
// multiplier carried into reward events; pass 0 for the default.
func NewConfirmer(store repository.Claimer, clk clock.Clock, multiplier int) *Confirmer {
	if store == nil || clk == nil {
		panic("nil dependency passed to NewConfirmer")
	}
	if multiplier < 1 {
		multiplier = model.DefaultMultiplier
	}
	return &Confirmer{store: store, clk: clk, multiplier: multiplier}
}

// Confirm claims the spot for confirmerID.
//
// Failure modes: ErrNotFound when the spot does not exist, ErrForbidden
// when the owner tries to confirm their own spot, ErrExpired when the
// spot's expiry instant has passed (even if the stored status still reads
// active), ErrConflict when the spot is already consumed or a concurrent
// confirmation won the race.
//
// Reward application is deliberately not part of the transaction: the
// outbox row written here is picked up by the reward worker after commit,
// so a lost reward never invalidates the claim itself.
func (c *Confirmer) Confirm(ctx context.Context, spotID, confirmerID string) (*model.HistoryRecord, error) {
	now := c.clk.NowMillis()
	var rec *model.HistoryRecord
	err := c.store.InClaimTx(ctx, func(tx repository.ClaimTx) error {
		spot, err := tx.SpotForClaim(ctx, spotID)
		if err != nil {
			return err
		}
		if spot.OwnerID == confirmerID {
			return repository.ErrForbidden
		}
		if model.EffectiveStatus(spot, now) == model.StatusExpired {
			return repository.ErrExpired
		}
		if !model.IsClaimable(spot.Status) {
			return repository.ErrConflict
		}
		ok, err := tx.MarkVerified(ctx, spotID, spot.Version, now)
		if err != nil {
			return err
		}
		if !ok {
			// The row changed between our read and the swap: a
			// concurrent confirmation or edit won.
			return repository.ErrConflict
		}
		rec = &model.HistoryRecord{
			ID:                uuid.NewString(),
			SpotID:            spotID,
			ConfirmerID:       confirmerID,
			OwnerID:           spot.OwnerID,
			ConfirmedAtMillis: now,
		}
		if err := tx.AppendHistory(ctx, rec); err != nil {
			return err
		}
		return tx.EnqueueReward(ctx, &model.RewardEvent{
			HistoryID:       rec.ID,
			SpotID:          spotID,
			OwnerID:         spot.OwnerID,
			ConfirmerID:     confirmerID,
			Multiplier:      c.multiplier,
			CreatedAtMillis: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
