package model

// PinType distinguishes the two kinds of availability record.  A WalkIn
// pin marks a spot the reporter just saw free; a LeavingSoon pin is posted
// by the driver currently occupying the spot.  The two differ only in
// which lease durations they allow.
type PinType string

const (
	PinWalkIn      PinType = "WALK_IN"
	PinLeavingSoon PinType = "LEAVING_SOON"
)

// IsValidPinType reports whether pt is one of the two pin subtypes.
func IsValidPinType(pt PinType) bool {
	return pt == PinWalkIn || pt == PinLeavingSoon
}

// Lease bounds in minutes.  WalkIn pins always get the fixed lease; a
// LeavingSoon pin must declare a departure inside [MinLeaveMinutes,
// MaxLeaveMinutes].
const (
	WalkInLeaseMinutes = 10
	MinLeaveMinutes    = 2
	MaxLeaveMinutes    = 60
)

// MaxPriorityScore caps the derived priority ranking value.
const MaxPriorityScore = 150

// Spot is a time-bounded geolocated availability record.
//
// Fields:
//  ID                 – UUID primary key.
//  OwnerID            – user who published the spot.
//  Latitude/Longitude – WGS84 coordinates; validated on write.
//  Geohash            – precision-7 geohash of the coordinates, maintained
//                       by the store as the coarse spatial index.
//  PinType            – WALK_IN or LEAVING_SOON.
//  WillLeaveInMinutes – declared lease; fixed at 10 for WalkIn.
//  IsPaid             – whether the spot is metered/paid parking.
//  Status             – stored lifecycle state; see EffectiveStatus.
//  Title, Description – optional free text.
//  PriorityScore      – derived ranking value, non-negative, capped at 150.
//  Version            – optimistic-concurrency counter; bumped on every
//                       write and checked by compare-and-swap updates.
//  CreatedAtMillis    – creation instant, epoch millis.
//  ExpiresAtMillis    – expiry instant, epoch millis; strictly after
//                       CreatedAtMillis.  The spot is logically retired the
//                       instant this passes, whether or not Status was
//                       ever updated.
type Spot struct {
	ID                 string  `json:"id"`
	OwnerID            string  `json:"owner_id"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Geohash            string  `json:"-"`
	PinType            PinType `json:"pin_type"`
	WillLeaveInMinutes int     `json:"will_leave_in_minutes"`
	IsPaid             bool    `json:"is_paid"`
	Status             Status  `json:"status"`
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	PriorityScore      int     `json:"priority_score"`
	Version            int64   `json:"-"`
	CreatedAtMillis    int64   `json:"created_at"`
	ExpiresAtMillis    int64   `json:"expires_at"`
}
