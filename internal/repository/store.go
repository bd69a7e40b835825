package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// ClaimTx is the set of writes available inside a confirmation
// transaction.  The service layer drives the claim algorithm through this
// interface; the MySQL implementation below backs it in production and
// tests substitute an in-memory one.
type ClaimTx interface {
	// SpotForClaim reads the target spot, ErrNotFound when missing.
	SpotForClaim(ctx context.Context, spotID string) (*model.Spot, error)
	// MarkVerified transitions the spot to VERIFIED by compare-and-swap
	// on the version read via SpotForClaim.  False means a concurrent
	// writer got there first.
	MarkVerified(ctx context.Context, spotID string, version int64, nowMillis int64) (bool, error)
	// AppendHistory writes the immutable claim record.
	AppendHistory(ctx context.Context, rec *model.HistoryRecord) error
	// EnqueueReward writes the reward outbox row.
	EnqueueReward(ctx context.Context, ev *model.RewardEvent) error
}

// Claimer opens a transaction scope for a confirmation.  The whole
// callback commits or rolls back as one unit.
type Claimer interface {
	InClaimTx(ctx context.Context, fn func(tx ClaimTx) error) error
}

// Store aggregates the per-table repositories and owns cross-repository
// transactions.  It is the production implementation of the seams the
// service layer consumes.
type Store struct {
	db      *sql.DB
	Spots   *SpotRepo
	History *HistoryRepo
	Points  *PointsRepo
	Outbox  *OutboxRepo
}

// NewStore wires the repositories onto a shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		Spots:   NewSpotRepo(db),
		History: NewHistoryRepo(db),
		Points:  NewPointsRepo(db),
		Outbox:  NewOutboxRepo(db),
	}
}

// claimTx adapts the repositories to the ClaimTx interface inside one
// *sql.Tx.
type claimTx struct {
	tx *sql.Tx
	s  *Store
}

func (c *claimTx) SpotForClaim(ctx context.Context, spotID string) (*model.Spot, error) {
	return c.s.Spots.GetByIDTx(ctx, c.tx, spotID)
}

func (c *claimTx) MarkVerified(ctx context.Context, spotID string, version int64, nowMillis int64) (bool, error) {
	return c.s.Spots.MarkVerifiedTx(ctx, c.tx, spotID, version, nowMillis)
}

func (c *claimTx) AppendHistory(ctx context.Context, rec *model.HistoryRecord) error {
	return c.s.History.InsertTx(ctx, c.tx, rec)
}

func (c *claimTx) EnqueueReward(ctx context.Context, ev *model.RewardEvent) error {
	return c.s.Outbox.InsertTx(ctx, c.tx, ev)
}

// InClaimTx runs fn inside a database transaction, rolling back on any
// error and committing otherwise.
func (s *Store) InClaimTx(ctx context.Context, fn func(tx ClaimTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&claimTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
