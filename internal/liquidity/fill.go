// Package liquidity contains the orderbook analysis engine: depth and
// composite liquidity scoring, fill simulation over implied price levels, and
// slippage-bounded order sizing. Every function is a pure computation over a
// caller-supplied snapshot; the package holds no state and performs no I/O,
// so calls may run concurrently without coordination.
package liquidity

import (
	"github.com/liqlens/liqlens/internal/domain"
)

// fillLevels returns the effective price levels a hypothetical order would
// consume, in fill order (best effective price first).
//
// Selecting the walk is the crux of the simulation. Buying an outcome
// consumes implied asks derived from the complementary outcome's bids: the
// highest complementary bid yields the lowest implied ask, so walking that
// side best-bid first already visits implied asks in ascending order. Selling
// consumes the outcome's own bids directly, best bid first. The four
// (outcome, action) cases are symmetric under swapping the two outcomes.
func fillLevels(ob domain.Orderbook, outcome domain.Outcome, action domain.Action) []domain.PriceLevel {
	if action == domain.ActionSell {
		return ob.Bids(outcome)
	}
	opposite := ob.Bids(outcome.Other())
	levels := make([]domain.PriceLevel, 0, len(opposite))
	for _, lvl := range opposite {
		levels = append(levels, domain.PriceLevel{
			Price:    domain.ImpliedPrice(lvl.Price),
			Quantity: lvl.Quantity,
		})
	}
	return levels
}

// totalFillDepth is the quantity available across every level the given
// (outcome, action) pair would walk.
func totalFillDepth(ob domain.Orderbook, outcome domain.Outcome, action domain.Action) int64 {
	var total int64
	for _, lvl := range fillLevels(ob, outcome, action) {
		total += lvl.Quantity
	}
	return total
}

// EstimateSlippage simulates filling a hypothetical order of the given size
// against the snapshot and reports the achieved prices.
//
// Insufficient depth is not an error: an empty relevant side, or a book that
// cannot satisfy the full quantity, yields FillableQuantity < quantity and a
// positive UnfilledQuantity. That is a degenerate market condition downstream
// risk logic must be able to observe, not a fault.
func EstimateSlippage(ob domain.Orderbook, outcome domain.Outcome, action domain.Action, quantity int64) domain.SlippageEstimate {
	est := domain.SlippageEstimate{
		Outcome:           outcome,
		Action:            action,
		RequestedQuantity: quantity,
		UnfilledQuantity:  quantity,
	}
	if quantity <= 0 {
		est.UnfilledQuantity = 0
		return est
	}

	remaining := quantity
	var totalCost int64
	touched := false

	for _, lvl := range fillLevels(ob, outcome, action) {
		if remaining == 0 {
			break
		}
		fill := remaining
		if lvl.Quantity < fill {
			fill = lvl.Quantity
		}
		if fill == 0 {
			continue
		}
		totalCost += fill * int64(lvl.Price)
		if !touched {
			est.BestPrice = lvl.Price
			touched = true
		}
		est.WorstPriceTouched = lvl.Price
		remaining -= fill
	}

	est.FillableQuantity = quantity - remaining
	est.UnfilledQuantity = remaining
	if est.FillableQuantity > 0 {
		est.AvgFillPrice = float64(totalCost) / float64(est.FillableQuantity)
		// Adverse difference between the average fill and the best touchable
		// price: paying up on a buy, giving up on a sell. Non-negative either
		// way, and non-decreasing in quantity.
		if action == domain.ActionBuy {
			est.SlippageCents = est.AvgFillPrice - float64(est.BestPrice)
		} else {
			est.SlippageCents = float64(est.BestPrice) - est.AvgFillPrice
		}
	}
	return est
}

// SlippageTable runs EstimateSlippage for each requested size. Handy for
// rendering per-size slippage reports.
func SlippageTable(ob domain.Orderbook, outcome domain.Outcome, action domain.Action, sizes []int64) []domain.SlippageEstimate {
	out := make([]domain.SlippageEstimate, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, EstimateSlippage(ob, outcome, action, size))
	}
	return out
}
