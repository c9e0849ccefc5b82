package liquidity

import (
	"github.com/liqlens/liqlens/internal/domain"
)

// MaxSafeOrderSize returns the largest quantity whose estimated slippage
// stays within maxSlippageCents for the given (outcome, action) pair.
//
// Slippage is non-decreasing in quantity (each extra contract can only touch
// an equal-or-worse level), which licenses a binary search over
// [0, totalDepth] with O(log depth) simulator calls. It returns 0 when even a
// single contract exceeds the tolerance or the relevant side is empty, and
// the full walkable depth when the whole book fits within tolerance.
func MaxSafeOrderSize(ob domain.Orderbook, outcome domain.Outcome, action domain.Action, maxSlippageCents float64) int64 {
	total := totalFillDepth(ob, outcome, action)
	if total == 0 || maxSlippageCents < 0 {
		return 0
	}

	within := func(qty int64) bool {
		est := EstimateSlippage(ob, outcome, action, qty)
		if !est.Filled() {
			// Zero fill means undefined slippage, which fails the budget.
			return false
		}
		return est.SlippageCents <= maxSlippageCents
	}

	lo, hi := int64(0), total
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if within(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
