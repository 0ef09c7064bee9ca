package model

import "time"

// Quote is one live tick from the broker WebSocket feed.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	TS     time.Time `json:"ts"`
}
