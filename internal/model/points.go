package model

// Reward base amounts and bounds used by the points ledger.
const (
	ConfirmerBasePoints = 5   // awarded to the user who claims a spot
	OwnerBasePoints     = 10  // awarded to the user who published it
	DefaultMultiplier   = 2   // premium accounts get base*multiplier
	EventMultiplier     = 3   // special-event promotions
	MaxReliability      = 100 // reliability score upper bound
	ReliabilitySuccess  = 2   // delta on a successful confirmation
	ReliabilityFailure  = 1   // delta subtracted on a failed report
)

// Well-known badge identifiers granted by the ledger.
const (
	BadgeFirstConfirm = "first_confirm"
	BadgeLevel5       = "level_5"
	BadgeLevel10      = "level_10"
)

// PointsAccount tracks a user's reward balance and trust metrics.  The
// balance only ever increases through awards; reliability moves by the
// fixed deltas above and stays inside [0,100].  IsPremium mirrors the
// subscription state owned by the billing collaborator; it is synced
// from token claims, never decided here.
type PointsAccount struct {
	UserID           string   `json:"user_id"`
	Points           int64    `json:"points"`
	ReliabilityScore int      `json:"reliability_score"`
	Badges           []string `json:"badges"`
	IsPremium        bool     `json:"is_premium"`
}

// HasBadge reports whether the account already holds the given badge.
func (a *PointsAccount) HasBadge(id string) bool {
	for _, b := range a.Badges {
		if b == id {
			return true
		}
	}
	return false
}
