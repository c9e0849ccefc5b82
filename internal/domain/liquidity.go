package domain

import "time"

// SlippageEstimate is the outcome of simulating a fill against a book
// snapshot. It is constructed fresh per call and never mutated.
//
// AvgFillPrice and SlippageCents are only meaningful when FillableQuantity is
// positive; Filled reports that. A book too thin to satisfy the request is a
// routine market state: it shows up as UnfilledQuantity > 0, not an error.
type SlippageEstimate struct {
	Outcome           Outcome
	Action            Action
	BestPrice         int     // first (best) price touched, cents
	AvgFillPrice      float64 // quantity-weighted average price, cents
	WorstPriceTouched int     // last (worst) price touched, cents
	RequestedQuantity int64
	FillableQuantity  int64
	UnfilledQuantity  int64
	SlippageCents     float64 // AvgFillPrice - BestPrice
}

// Filled reports whether any quantity could be filled at all.
func (e SlippageEstimate) Filled() bool {
	return e.FillableQuantity > 0
}

// FullyFilled reports whether the entire requested quantity was available.
func (e SlippageEstimate) FullyFilled() bool {
	return e.RequestedQuantity > 0 && e.UnfilledQuantity == 0
}

// LiquidityGrade buckets a composite score into a categorical label.
type LiquidityGrade string

const (
	GradeIlliquid LiquidityGrade = "illiquid"
	GradeThin     LiquidityGrade = "thin"
	GradeModerate LiquidityGrade = "moderate"
	GradeLiquid   LiquidityGrade = "liquid"
)

// LiquidityScore is the composite 0-100 liquidity score for a market plus the
// component scores that produced it.
type LiquidityScore struct {
	Value             int // [0,100]
	Grade             LiquidityGrade
	SpreadScore       float64
	DepthScore        float64
	VolumeScore       float64
	OpenInterestScore float64
}

// MarketContext carries the market-level scalars the scorer consumes. It is
// supplied by the caller and not owned by the engine.
type MarketContext struct {
	Volume24h    int64 // 24h traded volume, whole contracts
	OpenInterest int64 // open contracts outstanding
}

// SnapshotRecord is a persisted orderbook snapshot.
type SnapshotRecord struct {
	ID         string // UUID
	MarketID   string
	Book       Orderbook
	CapturedAt time.Time
}

// ScoreRecord is one point in a market's liquidity score time series.
type ScoreRecord struct {
	ID        string // UUID
	MarketID  string
	Score     LiquidityScore
	Spread    int     // cents; meaningful only when HasQuote
	Midpoint  float64 // cents; meaningful only when HasQuote
	HasQuote  bool    // false when the book was one-sided or empty
	RawDepth  float64 // unclamped depth score
	CreatedAt time.Time
}
