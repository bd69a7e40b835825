package model

// Status enumerates the lifecycle states a spot can be stored in.  The
// stored value is never authoritative on its own: consumers must derive
// the effective status with EffectiveStatus so that a spot whose
// expires_at has passed reads as expired even before any row was updated.
//
// The four type-specific states are what new code writes; the generic
// states (POTENTIALLY_FREE, VERIFIED, EXPIRED, OCCUPIED) remain valid so
// that records written by earlier versions of the app keep working.
type Status string

const (
	StatusWalkInPending      Status = "WALK_IN_PENDING"
	StatusWalkInExpired      Status = "WALK_IN_EXPIRED"
	StatusLeavingSoonActive  Status = "LEAVING_SOON_ACTIVE"
	StatusLeavingSoonExpired Status = "LEAVING_SOON_EXPIRED"

	// Legacy-compatible generic states.
	StatusPotentiallyFree Status = "POTENTIALLY_FREE"
	StatusVerified        Status = "VERIFIED"
	StatusExpired         Status = "EXPIRED"
	StatusOccupied        Status = "OCCUPIED"
)

// validStatuses is the closed set accepted when an owner edits the status
// field directly.
var validStatuses = map[Status]bool{
	StatusWalkInPending:      true,
	StatusWalkInExpired:      true,
	StatusLeavingSoonActive:  true,
	StatusLeavingSoonExpired: true,
	StatusPotentiallyFree:    true,
	StatusVerified:           true,
	StatusExpired:            true,
	StatusOccupied:           true,
}

// IsValidStatus reports whether s is a member of the status enumeration.
func IsValidStatus(s Status) bool { return validStatuses[s] }

// claimableStatuses are the stored states from which a confirmation may
// proceed.  Anything else means the spot was already consumed or parked on.
var claimableStatuses = map[Status]bool{
	StatusPotentiallyFree:   true,
	StatusVerified:          true,
	StatusWalkInPending:     true,
	StatusLeavingSoonActive: true,
}

// IsClaimable reports whether a spot stored in state s can still be
// confirmed, ignoring time-based expiration (the caller checks that via
// EffectiveStatus first).
func IsClaimable(s Status) bool { return claimableStatuses[s] }

// CreationStatus returns the state a freshly created spot enters for its
// pin type: WalkIn spots start pending, LeavingSoon spots start active.
func CreationStatus(pt PinType) Status {
	if pt == PinLeavingSoon {
		return StatusLeavingSoonActive
	}
	return StatusWalkInPending
}

// EffectiveStatus derives the only status value business logic is allowed
// to branch on.  A spot whose expires_at has passed is Expired no matter
// what the stored column says; otherwise the stored status stands.
// nowMillis must come from the shared clock, not a caller-local one.
func EffectiveStatus(s *Spot, nowMillis int64) Status {
	if s.ExpiresAtMillis <= nowMillis {
		return StatusExpired
	}
	return s.Status
}

// EffectivelyActive reports whether the spot is visible to discovery and
// open to confirmation at nowMillis: not yet expired by time and stored in
// a claimable state.
func EffectivelyActive(s *Spot, nowMillis int64) bool {
	return EffectiveStatus(s, nowMillis) != StatusExpired && IsClaimable(s.Status)
}
