package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/parking-spot-exchange/internal/model"
)

// SpotRepo provides data access to the spots table.  All timestamps are
// epoch milliseconds taken from the shared clock; the repository never
// calls time.Now itself.  Rows carry a version column used for
// compare-and-swap updates: every successful write increments it, and
// conditional writes such as MarkVerifiedTx only apply when the version
// still matches what the caller read.  That is what gives concurrent
// confirmations exactly one winner.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo returns a new SpotRepo bound to the given database.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

const spotColumns = `id, owner_id, latitude, longitude, geohash, pin_type,
	will_leave_in_minutes, is_paid, status, title, description,
	priority_score, version, created_at_ms, expires_at_ms`

// scanSpot reads one spots row.  The scanner can be either *sql.Row or
// *sql.Rows.
func scanSpot(scan func(...any) error) (*model.Spot, error) {
	var s model.Spot
	var title, desc sql.NullString
	err := scan(
		&s.ID, &s.OwnerID, &s.Latitude, &s.Longitude, &s.Geohash, &s.PinType,
		&s.WillLeaveInMinutes, &s.IsPaid, &s.Status, &title, &desc,
		&s.PriorityScore, &s.Version, &s.CreatedAtMillis, &s.ExpiresAtMillis,
	)
	if err != nil {
		return nil, err
	}
	if title.Valid {
		v := title.String
		s.Title = &v
	}
	if desc.Valid {
		v := desc.String
		s.Description = &v
	}
	return &s, nil
}

func nullableText(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// Insert stores a new spot unconditionally.  Used for WalkIn pins, which
// have no per-owner uniqueness rule.
func (r *SpotRepo) Insert(ctx context.Context, s *model.Spot) error {
	const q = `INSERT INTO spots
		(id, owner_id, latitude, longitude, geohash, pin_type,
		 will_leave_in_minutes, is_paid, status, title, description,
		 priority_score, version, created_at_ms, expires_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.OwnerID, s.Latitude, s.Longitude, s.Geohash, s.PinType,
		s.WillLeaveInMinutes, s.IsPaid, s.Status,
		nullableText(s.Title), nullableText(s.Description),
		s.PriorityScore, s.CreatedAtMillis, s.ExpiresAtMillis,
	)
	if err == nil {
		s.Version = 1
	}
	return err
}

// InsertIfNoActiveLeavingSoon stores a LeavingSoon spot only when the
// owner has no other effectively-active LeavingSoon spot.  The uniqueness
// check and the insert are a single statement, so two concurrent creates
// by the same owner cannot both pass: the store itself rejects the
// second.  Returns false when the insert was suppressed by an existing
// active spot.
func (r *SpotRepo) InsertIfNoActiveLeavingSoon(ctx context.Context, s *model.Spot, nowMillis int64) (bool, error) {
	q := `INSERT INTO spots
		(id, owner_id, latitude, longitude, geohash, pin_type,
		 will_leave_in_minutes, is_paid, status, title, description,
		 priority_score, version, created_at_ms, expires_at_ms)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM spots
			WHERE owner_id = ?
			  AND pin_type = ?
			  AND expires_at_ms > ?
			  AND status IN (` + claimableStatusList + `)
		)`
	res, err := r.db.ExecContext(ctx, q,
		s.ID, s.OwnerID, s.Latitude, s.Longitude, s.Geohash, s.PinType,
		s.WillLeaveInMinutes, s.IsPaid, s.Status,
		nullableText(s.Title), nullableText(s.Description),
		s.PriorityScore, s.CreatedAtMillis, s.ExpiresAtMillis,
		s.OwnerID, model.PinLeavingSoon, nowMillis,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.Version = 1
	}
	return n > 0, nil
}

// claimableStatusList is the SQL literal list of stored states that count
// as active.  Must stay in sync with model.IsClaimable.
const claimableStatusList = `'POTENTIALLY_FREE','VERIFIED','WALK_IN_PENDING','LEAVING_SOON_ACTIVE'`

// GetByID returns a single spot or ErrNotFound.
func (r *SpotRepo) GetByID(ctx context.Context, id string) (*model.Spot, error) {
	const q = `SELECT ` + spotColumns + ` FROM spots WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	s, err := scanSpot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// Update rewrites the mutable columns of a spot and bumps its version,
// invalidating any in-flight compare-and-swap against the old version.
// Ownership must already have been checked by the caller.
func (r *SpotRepo) Update(ctx context.Context, s *model.Spot) error {
	const q = `UPDATE spots SET
		latitude = ?, longitude = ?, geohash = ?, pin_type = ?,
		will_leave_in_minutes = ?, is_paid = ?, status = ?,
		title = ?, description = ?, priority_score = ?,
		expires_at_ms = ?, version = version + 1
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		s.Latitude, s.Longitude, s.Geohash, s.PinType,
		s.WillLeaveInMinutes, s.IsPaid, s.Status,
		nullableText(s.Title), nullableText(s.Description), s.PriorityScore,
		s.ExpiresAtMillis, s.ID,
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
	s.Version++
	return nil
}

// Delete removes a spot row.  Returns ErrNotFound when no row matched.
func (r *SpotRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spots WHERE id = ?`, id)
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

// QueryActiveInCells returns every effectively-active spot whose geohash
// falls under one of the given cell prefixes.  The prefixes are the
// coarse spatial filter; the caller still applies the exact haversine cut
// to the result.  Ordered by expiry so the soonest-to-vanish spots come
// first.
func (r *SpotRepo) QueryActiveInCells(ctx context.Context, cells []string, nowMillis int64) ([]model.Spot, error) {
	if len(cells) == 0 {
		return []model.Spot{}, nil
	}
	ranges := make([]string, 0, len(cells))
	args := make([]any, 0, len(cells)*2+1)
	for _, c := range cells {
		ranges = append(ranges, `(geohash >= ? AND geohash < ?)`)
		args = append(args, c, prefixUpperBound(c))
	}
	args = append(args, nowMillis)
	q := `SELECT ` + spotColumns + ` FROM spots
		WHERE (` + strings.Join(ranges, " OR ") + `)
		  AND expires_at_ms > ?
		  AND status IN (` + claimableStatusList + `)
		ORDER BY expires_at_ms ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Spot, 0)
	for rows.Next() {
		s, err := scanSpot(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// prefixUpperBound mirrors geo.PrefixUpperBound without importing the geo
// package: '{' sorts just past 'z', the largest geohash character.
func prefixUpperBound(prefix string) string { return prefix + "{" }

// GetByIDTx is GetByID inside an existing transaction.
func (r *SpotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Spot, error) {
	const q = `SELECT ` + spotColumns + ` FROM spots WHERE id = ?`
	row := tx.QueryRowContext(ctx, q, id)
	s, err := scanSpot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// MarkVerifiedTx transitions a spot to VERIFIED by compare-and-swap on
// the version the caller read.  It reports false when the row changed
// underneath the caller (a concurrent confirmation won) or the spot
// expired meanwhile.
func (r *SpotRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id string, version int64, nowMillis int64) (bool, error) {
	const q = `UPDATE spots
		SET status = ?, version = version + 1
		WHERE id = ? AND version = ? AND expires_at_ms > ?`
	res, err := tx.ExecContext(ctx, q, model.StatusVerified, id, version, nowMillis)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
