package domain

import "time"

// Position is an open holding in one outcome of a market, synced from the
// exchange's data API for portfolio analysis. The engine never opens or
// closes positions; it only measures what exiting them would cost.
type Position struct {
	MarketID  string
	TokenID   string
	Outcome   Outcome
	Quantity  int64   // whole contracts held
	AvgPrice  float64 // average entry price, cents
	UpdatedAt time.Time
}
