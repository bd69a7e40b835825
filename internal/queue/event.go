// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair for the spot.confirmed queue.
package queue

// SpotConfirmedEvent is published when a spot claim is successfully
// confirmed. It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type SpotConfirmedEvent struct {
	HistoryID         string  `json:"history_id"`
	SpotID            string  `json:"spot_id"`
	OwnerID           string  `json:"owner_id"`
	ConfirmerID       string  `json:"confirmer_id"`
	PinType           string  `json:"pin_type"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	IsPaid            bool    `json:"is_paid"`
	ConfirmedAtMillis int64   `json:"confirmed_at"`
}
