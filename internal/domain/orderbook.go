package domain

import (
	"fmt"
	"sort"
	"time"
)

// Prices are integer cents in [1,99], read as implied probabilities. A binary
// market quotes bids on both outcomes; a bid of p on one outcome is an offer
// at 100-p on the other, so the book carries no explicit ask side.
const (
	MinPrice = 1
	MaxPrice = 99
)

// ImpliedPrice converts a price on one outcome to its equivalent on the
// complementary outcome. It is the single conversion used everywhere a level
// from one side must be read on the other side's price axis.
func ImpliedPrice(price int) int {
	return 100 - price
}

// Outcome identifies one of the two complementary sides of a binary market.
type Outcome int

const (
	OutcomeYes Outcome = iota
	OutcomeNo
)

// Other returns the complementary outcome.
func (o Outcome) Other() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

func (o Outcome) String() string {
	if o == OutcomeYes {
		return "yes"
	}
	return "no"
}

// Action is the direction of a hypothetical order.
type Action int

const (
	ActionBuy Action = iota
	ActionSell
)

func (a Action) String() string {
	if a == ActionBuy {
		return "buy"
	}
	return "sell"
}

// PriceLevel is a single price+quantity entry in an orderbook side.
// Levels stored in a Side always have Quantity > 0.
type PriceLevel struct {
	Price    int
	Quantity int64
}

// Side is one outcome's bid levels, unique prices, sorted by descending
// price (best bid first).
type Side []PriceLevel

// Best returns the best (highest) bid price, or ok=false when the side is
// empty. An empty side is a normal market condition, not an error.
func (s Side) Best() (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0].Price, true
}

// TotalQuantity sums the quantity across all levels.
func (s Side) TotalQuantity() int64 {
	var total int64
	for _, lvl := range s {
		total += lvl.Quantity
	}
	return total
}

// LevelsWithin returns the levels whose price lies within radius cents of
// center (inclusive), preserving the side's descending order.
func (s Side) LevelsWithin(center float64, radius int) []PriceLevel {
	var out []PriceLevel
	for _, lvl := range s {
		dist := float64(lvl.Price) - center
		if dist < 0 {
			dist = -dist
		}
		if dist <= float64(radius) {
			out = append(out, lvl)
		}
	}
	return out
}

// Orderbook is a validated point-in-time snapshot of a binary market's two
// bid sides. It is never mutated after construction.
type Orderbook struct {
	YesBids    Side
	NoBids     Side
	CapturedAt time.Time
}

// NewOrderbook validates and normalizes raw levels into a canonical book.
// Prices outside [1,99] fail with ErrInvalidPrice and quantities <= 0 fail
// with ErrInvalidQuantity; malformed input is rejected rather than coerced so
// upstream data corruption surfaces immediately. Duplicate prices are
// collapsed by summing quantity and each side is sorted best-bid first.
func NewOrderbook(yesLevels, noLevels []PriceLevel, capturedAt time.Time) (Orderbook, error) {
	yes, err := normalizeSide(yesLevels)
	if err != nil {
		return Orderbook{}, fmt.Errorf("yes side: %w", err)
	}
	no, err := normalizeSide(noLevels)
	if err != nil {
		return Orderbook{}, fmt.Errorf("no side: %w", err)
	}
	return Orderbook{YesBids: yes, NoBids: no, CapturedAt: capturedAt}, nil
}

func normalizeSide(levels []PriceLevel) (Side, error) {
	byPrice := make(map[int]int64, len(levels))
	for _, lvl := range levels {
		if lvl.Price < MinPrice || lvl.Price > MaxPrice {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPrice, lvl.Price)
		}
		if lvl.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %d @ %d", ErrInvalidQuantity, lvl.Quantity, lvl.Price)
		}
		byPrice[lvl.Price] += lvl.Quantity
	}
	side := make(Side, 0, len(byPrice))
	for price, qty := range byPrice {
		side = append(side, PriceLevel{Price: price, Quantity: qty})
	}
	sort.Slice(side, func(i, j int) bool { return side[i].Price > side[j].Price })
	return side, nil
}

// Bids returns the bid side for the given outcome.
func (ob Orderbook) Bids(o Outcome) Side {
	if o == OutcomeYes {
		return ob.YesBids
	}
	return ob.NoBids
}

// BestBid returns the best bid for the given outcome.
func (ob Orderbook) BestBid(o Outcome) (int, bool) {
	return ob.Bids(o).Best()
}

// ImpliedAsk returns the lowest offer for the given outcome, derived from the
// complementary side's best bid. Undefined when the other side is empty.
func (ob Orderbook) ImpliedAsk(o Outcome) (int, bool) {
	bid, ok := ob.Bids(o.Other()).Best()
	if !ok {
		return 0, false
	}
	return ImpliedPrice(bid), true
}

// Midpoint is the average of the outcome's best bid and implied ask, a
// probability estimate in cents. Undefined for a one-sided or empty book.
func (ob Orderbook) Midpoint(o Outcome) (float64, bool) {
	bid, ok := ob.BestBid(o)
	if !ok {
		return 0, false
	}
	ask, ok := ob.ImpliedAsk(o)
	if !ok {
		return 0, false
	}
	return (float64(bid) + float64(ask)) / 2, true
}

// Spread is the implied ask minus the best bid in cents. The value is the
// same from either outcome's view, so it takes no outcome argument.
func (ob Orderbook) Spread() (int, bool) {
	bid, ok := ob.BestBid(OutcomeYes)
	if !ok {
		return 0, false
	}
	ask, ok := ob.ImpliedAsk(OutcomeYes)
	if !ok {
		return 0, false
	}
	return ask - bid, true
}
