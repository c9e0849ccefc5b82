package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive  MarketStatus = "active"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market represents a binary-outcome prediction market.
type Market struct {
	ID           string
	Question     string
	Slug         string
	Outcomes     [2]string // e.g. ["Yes","No"]
	TokenIDs     [2]string // CLOB token IDs for the two outcomes
	ConditionID  string
	Volume24h    int64 // whole contracts traded in the last 24h
	OpenInterest int64 // open contracts outstanding
	Status       MarketStatus
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Context extracts the scalar signals consumed by the liquidity scorer.
func (m Market) Context() MarketContext {
	return MarketContext{Volume24h: m.Volume24h, OpenInterest: m.OpenInterest}
}

// TokenID returns the CLOB token ID for the given outcome.
func (m Market) TokenID(o Outcome) string {
	if o == OutcomeYes {
		return m.TokenIDs[0]
	}
	return m.TokenIDs[1]
}
