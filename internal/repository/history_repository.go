package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// HistoryRepo provides access to the history_records table.  The table is
// append-only: there are insert and read methods, deliberately no update
// or delete.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a new HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// InsertTx appends a history record within an existing transaction.  The
// caller commits or rolls back.
func (r *HistoryRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec *model.HistoryRecord) error {
	const q = `INSERT INTO history_records
		(id, spot_id, confirmer_id, owner_id, confirmed_at_ms, rating_given)
		VALUES (?, ?, ?, ?, ?, ?)`
	var rating any
	if rec.RatingGiven != nil {
		rating = *rec.RatingGiven
	}
	_, err := tx.ExecContext(ctx, q,
		rec.ID, rec.SpotID, rec.ConfirmerID, rec.OwnerID,
		rec.ConfirmedAtMillis, rating,
	)
	return err
}

// CountByConfirmer returns how many claims the user has made.  The reward
// worker uses it to grant the first-confirmation badge.
func (r *HistoryRepo) CountByConfirmer(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history_records WHERE confirmer_id = ?`, userID,
	).Scan(&n)
	return n, err
}

// ListByConfirmer returns the user's claims, newest first.
func (r *HistoryRepo) ListByConfirmer(ctx context.Context, userID string, limit int) ([]model.HistoryRecord, error) {
	const q = `SELECT id, spot_id, confirmer_id, owner_id, confirmed_at_ms, rating_given
		FROM history_records
		WHERE confirmer_id = ?
		ORDER BY confirmed_at_ms DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HistoryRecord, 0, limit)
	for rows.Next() {
		var rec model.HistoryRecord
		var rating sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.SpotID, &rec.ConfirmerID,
			&rec.OwnerID, &rec.ConfirmedAtMillis, &rating); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := int(rating.Int64)
			rec.RatingGiven = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
