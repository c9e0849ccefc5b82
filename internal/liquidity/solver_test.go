package liquidity

import (
	"math/rand"
	"testing"

	"github.com/liqlens/liqlens/internal/domain"
)

func TestMaxSafeOrderSizeWholeBookFits(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
	)
	// A single level has zero slippage at any size, so the whole walkable
	// depth fits even a zero budget.
	if got := MaxSafeOrderSize(ob, domain.OutcomeYes, domain.ActionBuy, 0); got != 10 {
		t.Errorf("want 10, got %d", got)
	}
}

func TestMaxSafeOrderSizeZeroOnEmptySide(t *testing.T) {
	ob := mustBook(t, []domain.PriceLevel{{Price: 40, Quantity: 10}}, nil)
	if got := MaxSafeOrderSize(ob, domain.OutcomeYes, domain.ActionBuy, 5); got != 0 {
		t.Errorf("want 0 with no walkable depth, got %d", got)
	}
}

func TestMaxSafeOrderSizeStopsBeforeWorseLevel(t *testing.T) {
	// Implied YES asks: 10@50 then 10@60. One contract at 60 pushes the
	// average above a 1 cent budget somewhere past size 11.
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 30, Quantity: 5}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}, {Price: 40, Quantity: 10}},
	)
	got := MaxSafeOrderSize(ob, domain.OutcomeYes, domain.ActionBuy, 1)

	// avg(q) = (10*50 + (q-10)*60)/q; slippage <= 1 iff q <= 11.
	if got != 11 {
		t.Errorf("want 11, got %d", got)
	}
	if est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, got); est.SlippageCents > 1 {
		t.Errorf("returned size violates budget: %v", est.SlippageCents)
	}
	if est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, got+1); est.SlippageCents <= 1 {
		t.Errorf("size is not maximal: %d+1 still within budget", got)
	}
}

func TestMaxSafeOrderSizeProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	for i := 0; i < 200; i++ {
		ob := randomBook(t, rng)
		outcome := domain.Outcome(rng.Intn(2))
		action := domain.Action(rng.Intn(2))
		tol := float64(rng.Intn(8)) + rng.Float64()

		size := MaxSafeOrderSize(ob, outcome, action, tol)
		total := totalFillDepth(ob, outcome, action)

		if size < 0 || size > total {
			t.Fatalf("case %d: size %d outside [0,%d]", i, size, total)
		}
		if size > 0 {
			est := EstimateSlippage(ob, outcome, action, size)
			if !est.Filled() || est.SlippageCents > tol {
				t.Fatalf("case %d: size %d violates tolerance %v: %+v", i, size, tol, est)
			}
		}
		// Maximality: either the whole book fits or one more contract breaks
		// the budget.
		if size < total {
			next := EstimateSlippage(ob, outcome, action, size+1)
			if next.Filled() && next.SlippageCents <= tol {
				t.Fatalf("case %d: size %d not maximal (tol %v, next %+v)", i, size, tol, next)
			}
		}
	}
}
