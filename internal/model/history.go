package model

// HistoryRecord is the immutable audit entry written when a spot is
// confirmed.  Records are create-only: nothing in the system ever mutates
// or deletes one, which is what makes the table usable as an append-only
// ledger of claims.
//
// Fields:
//  ID                – UUID primary key.
//  SpotID            – spot that was claimed.
//  ConfirmerID       – user who claimed it.
//  OwnerID           – owner of the spot at confirmation time, denormalised
//                      so the ledger survives spot deletion.
//  ConfirmedAtMillis – confirmation instant, epoch millis.
//  RatingGiven       – optional 1–5 rating the confirmer later left.
type HistoryRecord struct {
	ID                string `json:"id"`
	SpotID            string `json:"spot_id"`
	ConfirmerID       string `json:"confirmer_id"`
	OwnerID           string `json:"owner_id"`
	ConfirmedAtMillis int64  `json:"confirmed_at"`
	RatingGiven       *int   `json:"rating_given,omitempty"`
}

// RewardEvent is the transactional-outbox row written in the same
// transaction as a confirmation.  The reward worker applies it exactly
// once, keyed by HistoryID, and flips Applied.  A crash between commit and
// apply leaves the row pending, so rewards are at-least-once written and
// idempotently applied.
type RewardEvent struct {
	HistoryID       string // primary key; one event per confirmation
	SpotID          string
	OwnerID         string
	ConfirmerID     string
	Multiplier      int  // premium multiplier, 2 normally, 3 for special events
	Applied         bool // set by the worker after points and reliability land
	CreatedAtMillis int64
}
