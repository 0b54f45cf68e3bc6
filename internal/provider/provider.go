package provider

import (
	"time"
)

// Quote is the computed price of one symbol before it is rendered.
// Local is the price in the secondary currency (UAH by default).
// Nil pointers mean the upstream did not report the value.
type Quote struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	USD         float64   `json:"usd"`
	USDDecimals int       `json:"usd_decimals"`
	Local       *float64  `json:"local,omitempty"`
	Currency    string    `json:"currency"`
	Change24h   *float64  `json:"change_24h,omitempty"`
	Fiat        bool      `json:"fiat"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Float returns a pointer to v, for building quotes.
func Float(v float64) *float64 { return &v }
