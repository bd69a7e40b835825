package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// PointsRepo provides access to the points_accounts table.  Balance
// increments and reliability adjustments are single UPDATE statements so
// that concurrent awards never lose an increment; bounds are enforced in
// SQL with LEAST/GREATEST rather than read-modify-write in Go.
type PointsRepo struct {
	db *sql.DB
}

// NewPointsRepo returns a new PointsRepo bound to the given database.
func NewPointsRepo(db *sql.DB) *PointsRepo { return &PointsRepo{db: db} }

// Ensure creates a zeroed account for the user if none exists yet.  The
// premium flag is only used on first creation; afterwards the billing
// sync owns it.
func (r *PointsRepo) Ensure(ctx context.Context, userID string, isPremium bool) error {
	const q = `INSERT IGNORE INTO points_accounts
		(user_id, points, reliability_score, badges, is_premium)
		VALUES (?, 0, 0, JSON_ARRAY(), ?)`
	_, err := r.db.ExecContext(ctx, q, userID, isPremium)
	return err
}

// Get returns the user's account or ErrNotFound.
func (r *PointsRepo) Get(ctx context.Context, userID string) (*model.PointsAccount, error) {
	const q = `SELECT user_id, points, reliability_score, badges, is_premium
		FROM points_accounts WHERE user_id = ?`
	var a model.PointsAccount
	var badges []byte
	err := r.db.QueryRowContext(ctx, q, userID).
		Scan(&a.UserID, &a.Points, &a.ReliabilityScore, &badges, &a.IsPremium)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(badges) > 0 {
		if err := json.Unmarshal(badges, &a.Badges); err != nil {
			return nil, err
		}
	}
	if a.Badges == nil {
		a.Badges = []string{}
	}
	return &a, nil
}

// AddPoints atomically increments the user's balance.  Negative deltas
// are rejected at the service layer; the balance never decreases.
func (r *PointsRepo) AddPoints(ctx context.Context, userID string, delta int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE points_accounts SET points = points + ? WHERE user_id = ?`,
		delta, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustReliability moves the user's reliability score by the fixed
// deltas: +2 capped at 100 on success, -1 floored at 0 on failure.
func (r *PointsRepo) AdjustReliability(ctx context.Context, userID string, success bool) error {
	q := `UPDATE points_accounts
		SET reliability_score = GREATEST(reliability_score - ?, 0)
		WHERE user_id = ?`
	args := []any{model.ReliabilityFailure, userID}
	if success {
		q = `UPDATE points_accounts
			SET reliability_score = LEAST(reliability_score + ?, ?)
			WHERE user_id = ?`
		args = []any{model.ReliabilitySuccess, model.MaxReliability, userID}
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBadge appends a badge identifier unless the account already holds
// it.  The contains check and the append happen in one statement.
func (r *PointsRepo) AddBadge(ctx context.Context, userID, badge string) error {
	const q = `UPDATE points_accounts
		SET badges = JSON_ARRAY_APPEND(badges, '$', ?)
		WHERE user_id = ? AND NOT JSON_CONTAINS(badges, JSON_QUOTE(?))`
	_, err := r.db.ExecContext(ctx, q, badge, userID, badge)
	return err
}

// SetPremium mirrors the externally-owned subscription flag onto the
// account.  The ledger calls it when token claims disagree with the
// stored row; it is never decided inside this service.
func (r *PointsRepo) SetPremium(ctx context.Context, userID string, premium bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE points_accounts SET is_premium = ? WHERE user_id = ?`,
		premium, userID,
	)
	return err
}
