// Package worker contains the background reward applier.  Confirmations
// enqueue reward events in the same transaction that claims the spot;
// this worker drains them afterwards, so a failed or crashed reward run
// never invalidates an already-committed claim.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// Outbox is the pending-event surface the worker drains.  Implemented by
// *repository.OutboxRepo.
type Outbox interface {
	ListPending(ctx context.Context, limit int) ([]model.RewardEvent, error)
	// MarkApplied claims an event; false means another worker already
	// took it.
	MarkApplied(ctx context.Context, historyID string) (bool, error)
}

// RewardWorker applies pending reward events: points to the confirmer and
// the owner, reliability to the owner, badges to the confirmer.  Events
// are claimed (marked applied) before the ledger writes run, so a racing
// second worker can never double-award; a crash mid-apply loses at most
// that one reward, which the design accepts instead of exactly-once
// delivery.
type RewardWorker struct {
	outbox    Outbox
	ledger    *service.Ledger
	interval  time.Duration
	batchSize int
}

// New constructs a RewardWorker polling on the given interval.
func New(outbox Outbox, ledger *service.Ledger, interval time.Duration) *RewardWorker {
	if outbox == nil || ledger == nil {
		panic("nil dependency passed to worker.New")
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &RewardWorker{outbox: outbox, ledger: ledger, interval: interval, batchSize: 100}
}

// Run drains the outbox on every tick until ctx is cancelled.
func (w *RewardWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				log.Printf("reward-worker: drain failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Drain applies one batch of pending events.  Individual event failures
// are logged and left for the next tick; they do not stop the batch.
func (w *RewardWorker) Drain(ctx context.Context) error {
	events, err := w.outbox.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for i := range events {
		ev := &events[i]
		ok, err := w.outbox.MarkApplied(ctx, ev.HistoryID)
		if err != nil {
			log.Printf("reward-worker: claim event %s: %v", ev.HistoryID, err)
			continue
		}
		if !ok {
			continue // another worker got it
		}
		if err := w.ledger.ApplyRewardEvent(ctx, ev); err != nil {
			// The claim on the spot stands regardless; only the reward
			// is lost.  Recorded here, never rolled back.
			log.Printf("reward-worker: apply event %s: %v", ev.HistoryID, err)
		}
	}
	return nil
}
