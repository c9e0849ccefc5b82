package liquidity

import (
	"fmt"
	"math"

	"github.com/liqlens/liqlens/internal/domain"
)

// Weights sets the relative contribution of each component to the composite
// liquidity score. Each weight must lie in [0,1] and the four must sum to 1;
// Score rejects anything else rather than silently renormalizing, so a typo'd
// weight set cannot produce plausible-looking but wrong scores.
type Weights struct {
	Spread       float64
	Depth        float64
	Volume       float64
	OpenInterest float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{Spread: 0.30, Depth: 0.30, Volume: 0.20, OpenInterest: 0.20}
}

// weightSumTolerance absorbs float addition error when checking the sum.
const weightSumTolerance = 1e-9

// Validate checks the weights against the documented constraints.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Spread, w.Depth, w.Volume, w.OpenInterest} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: component %v outside [0,1]", domain.ErrInvalidWeights, v)
		}
	}
	sum := w.Spread + w.Depth + w.Volume + w.OpenInterest
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: components sum to %v, want 1", domain.ErrInvalidWeights, sum)
	}
	return nil
}

// Score combines spread tightness, near-mid depth, 24h volume, and open
// interest into a single bounded score and categorical grade.
//
// Component formulas:
//
//	spread_score = clamp(100 - spread*5, 0, 100)   (0 when spread undefined)
//	depth_score  = clamp(raw_depth / 10, 0, 100)
//	volume_score = clamp(volume_24h / 100, 0, 100)
//	oi_score     = clamp(open_interest / 50, 0, 100)
//
// A degenerate book (empty or one-sided) is routine input here, not an
// error: its spread component is simply 0.
func Score(mkt domain.MarketContext, ob domain.Orderbook, w Weights) (domain.LiquidityScore, error) {
	if err := w.Validate(); err != nil {
		return domain.LiquidityScore{}, err
	}

	var spreadScore float64
	if spread, ok := ob.Spread(); ok {
		spreadScore = clamp(100-float64(spread)*5, 0, 100)
	}
	depthScore := clamp(DepthScore(ob, DefaultDepthRadius)/10, 0, 100)
	volumeScore := clamp(float64(mkt.Volume24h)/100, 0, 100)
	oiScore := clamp(float64(mkt.OpenInterest)/50, 0, 100)

	composite := w.Spread*spreadScore +
		w.Depth*depthScore +
		w.Volume*volumeScore +
		w.OpenInterest*oiScore
	value := int(clamp(math.Round(composite), 0, 100))

	return domain.LiquidityScore{
		Value:             value,
		Grade:             GradeFor(value),
		SpreadScore:       spreadScore,
		DepthScore:        depthScore,
		VolumeScore:       volumeScore,
		OpenInterestScore: oiScore,
	}, nil
}

// GradeFor buckets a composite score into its categorical grade.
func GradeFor(score int) domain.LiquidityGrade {
	switch {
	case score < 25:
		return domain.GradeIlliquid
	case score < 50:
		return domain.GradeThin
	case score < 75:
		return domain.GradeModerate
	default:
		return domain.GradeLiquid
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
