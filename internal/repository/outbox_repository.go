package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// OutboxRepo provides access to the reward_events outbox table.  Rows are
// written inside the confirmation transaction and drained by the reward
// worker.  The history id is the primary key, so the same confirmation
// can never enqueue two events.
type OutboxRepo struct {
	db *sql.DB
}

// NewOutboxRepo returns a new OutboxRepo bound to the given database.
func NewOutboxRepo(db *sql.DB) *OutboxRepo { return &OutboxRepo{db: db} }

// InsertTx enqueues a reward event within an existing transaction.
func (r *OutboxRepo) InsertTx(ctx context.Context, tx *sql.Tx, ev *model.RewardEvent) error {
	const q = `INSERT INTO reward_events
		(history_id, spot_id, owner_id, confirmer_id, multiplier, applied, created_at_ms)
		VALUES (?, ?, ?, ?, ?, FALSE, ?)`
	_, err := tx.ExecContext(ctx, q,
		ev.HistoryID, ev.SpotID, ev.OwnerID, ev.ConfirmerID,
		ev.Multiplier, ev.CreatedAtMillis,
	)
	return err
}

// ListPending returns up to limit unapplied events, oldest first.
func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]model.RewardEvent, error) {
	const q = `SELECT history_id, spot_id, owner_id, confirmer_id, multiplier, applied, created_at_ms
		FROM reward_events
		WHERE applied = FALSE
		ORDER BY created_at_ms ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RewardEvent, 0, limit)
	for rows.Next() {
		var ev model.RewardEvent
		if err := rows.Scan(&ev.HistoryID, &ev.SpotID, &ev.OwnerID,
			&ev.ConfirmerID, &ev.Multiplier, &ev.Applied, &ev.CreatedAtMillis); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MarkApplied flips the event from pending to applied.  The flip is
// conditional, so of any number of workers racing on the same event
// exactly one observes true and goes on to apply the reward.
func (r *OutboxRepo) MarkApplied(ctx context.Context, historyID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reward_events SET applied = TRUE WHERE history_id = ? AND applied = FALSE`,
		historyID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
