package liquidity

import (
	"github.com/liqlens/liqlens/internal/domain"
)

// DefaultDepthRadius is the window, in cents around the midpoint, used for
// depth scoring when the caller has no reason to pick another.
const DefaultDepthRadius = 10

// DepthScore measures how much quantity rests near the book's midpoint,
// weighted linearly by proximity: a level at the midpoint counts fully, a
// level radius cents away counts for nothing.
//
// Levels from the complementary side are converted to their implied-price
// equivalents before distance is measured, so "n cents from the midpoint"
// means the same thing regardless of which side a level originates from.
// With no midpoint (empty or one-sided book) the score is 0.
func DepthScore(ob domain.Orderbook, radius int) float64 {
	if radius <= 0 {
		return 0
	}
	mid, ok := ob.Midpoint(domain.OutcomeYes)
	if !ok {
		return 0
	}

	var score float64
	for _, lvl := range ob.YesBids.LevelsWithin(mid, radius) {
		score += float64(lvl.Quantity) * weightAt(float64(lvl.Price), mid, radius)
	}
	for _, lvl := range ob.NoBids {
		implied := float64(domain.ImpliedPrice(lvl.Price))
		dist := implied - mid
		if dist < 0 {
			dist = -dist
		}
		if dist <= float64(radius) {
			score += float64(lvl.Quantity) * weightAt(implied, mid, radius)
		}
	}
	return score
}

// weightAt is the linear proximity weight for a price at the given distance
// from the midpoint: 1 at the midpoint, 0 at the edge of the window.
func weightAt(price, mid float64, radius int) float64 {
	dist := price - mid
	if dist < 0 {
		dist = -dist
	}
	return 1 - dist/float64(radius)
}
