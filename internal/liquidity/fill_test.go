package liquidity

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

func mustBook(t *testing.T, yes, no []domain.PriceLevel) domain.Orderbook {
	t.Helper()
	ob, err := domain.NewOrderbook(yes, no, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("building book: %v", err)
	}
	return ob
}

func TestEstimateSlippageFullFillAtSingleLevel(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
	)
	est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, 5)

	if est.BestPrice != 50 {
		t.Errorf("best price: want 50, got %d", est.BestPrice)
	}
	if est.AvgFillPrice != 50 {
		t.Errorf("avg fill price: want 50, got %v", est.AvgFillPrice)
	}
	if est.FillableQuantity != 5 || est.UnfilledQuantity != 0 {
		t.Errorf("fillable/unfilled: want 5/0, got %d/%d", est.FillableQuantity, est.UnfilledQuantity)
	}
	if est.SlippageCents != 0 {
		t.Errorf("slippage: want 0, got %v", est.SlippageCents)
	}
}

func TestEstimateSlippagePartialFill(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
	)
	est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, 15)

	if est.FillableQuantity != 10 {
		t.Errorf("fillable: want 10, got %d", est.FillableQuantity)
	}
	if est.UnfilledQuantity != 5 {
		t.Errorf("unfilled: want 5, got %d", est.UnfilledQuantity)
	}
	if !est.Filled() || est.FullyFilled() {
		t.Errorf("want partial fill, got Filled=%v FullyFilled=%v", est.Filled(), est.FullyFilled())
	}
}

func TestEstimateSlippageBuyWalksImpliedAsks(t *testing.T) {
	// NO bids at 50 and 48 imply YES asks at 50 then 52.
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 47, Quantity: 100}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}, {Price: 48, Quantity: 10}},
	)
	est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, 15)

	if est.BestPrice != 50 {
		t.Errorf("best price: want 50, got %d", est.BestPrice)
	}
	if est.WorstPriceTouched != 52 {
		t.Errorf("worst price: want 52, got %d", est.WorstPriceTouched)
	}
	// 10@50 + 5@52 = 760 over 15 contracts.
	wantAvg := 760.0 / 15
	if est.AvgFillPrice != wantAvg {
		t.Errorf("avg fill price: want %v, got %v", wantAvg, est.AvgFillPrice)
	}
	if est.SlippageCents != wantAvg-50 {
		t.Errorf("slippage: want %v, got %v", wantAvg-50, est.SlippageCents)
	}
}

func TestEstimateSlippageSellWalksOwnBids(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 48, Quantity: 10}, {Price: 45, Quantity: 10}},
		[]domain.PriceLevel{{Price: 50, Quantity: 10}},
	)
	est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionSell, 15)

	if est.BestPrice != 48 {
		t.Errorf("best price: want 48, got %d", est.BestPrice)
	}
	if est.WorstPriceTouched != 45 {
		t.Errorf("worst price: want 45, got %d", est.WorstPriceTouched)
	}
	// 10@48 + 5@45 = 705 over 15; selling gives up 48 - avg.
	wantAvg := 705.0 / 15
	if est.AvgFillPrice != wantAvg {
		t.Errorf("avg fill price: want %v, got %v", wantAvg, est.AvgFillPrice)
	}
	if est.SlippageCents != 48-wantAvg {
		t.Errorf("slippage: want %v, got %v", 48-wantAvg, est.SlippageCents)
	}
}

func TestEstimateSlippageEmptyRelevantSide(t *testing.T) {
	ob := mustBook(t, []domain.PriceLevel{{Price: 40, Quantity: 10}}, nil)

	// Buying YES needs NO bids; there are none.
	est := EstimateSlippage(ob, domain.OutcomeYes, domain.ActionBuy, 5)
	if est.Filled() {
		t.Errorf("want no fill, got fillable=%d", est.FillableQuantity)
	}
	if est.UnfilledQuantity != 5 {
		t.Errorf("unfilled: want 5, got %d", est.UnfilledQuantity)
	}
}

func TestEstimateSlippageOutcomeSymmetry(t *testing.T) {
	// Swapping the two sides and the outcome must give identical results.
	yes := []domain.PriceLevel{{Price: 44, Quantity: 30}, {Price: 41, Quantity: 12}}
	no := []domain.PriceLevel{{Price: 53, Quantity: 25}, {Price: 51, Quantity: 8}}
	a := mustBook(t, yes, no)
	b := mustBook(t, no, yes)

	for _, action := range []domain.Action{domain.ActionBuy, domain.ActionSell} {
		for _, qty := range []int64{1, 10, 40, 100} {
			got := EstimateSlippage(a, domain.OutcomeYes, action, qty)
			want := EstimateSlippage(b, domain.OutcomeNo, action, qty)
			got.Outcome, want.Outcome = 0, 0
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("%v qty=%d: yes-view %+v != mirrored no-view %+v", action, qty, got, want)
			}
		}
	}
}

func TestEstimateSlippageDeterministic(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 48, Quantity: 100}, {Price: 47, Quantity: 50}},
		[]domain.PriceLevel{{Price: 50, Quantity: 80}, {Price: 49, Quantity: 40}},
	)
	first := EstimateSlippage(ob, domain.OutcomeNo, domain.ActionBuy, 90)
	for i := 0; i < 10; i++ {
		if got := EstimateSlippage(ob, domain.OutcomeNo, domain.ActionBuy, 90); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d differed: %+v vs %+v", i, got, first)
		}
	}
}

// randomBook builds a small valid book from the given source. Either side may
// come out empty.
func randomBook(t *testing.T, rng *rand.Rand) domain.Orderbook {
	t.Helper()
	gen := func() []domain.PriceLevel {
		n := rng.Intn(6)
		levels := make([]domain.PriceLevel, 0, n)
		for i := 0; i < n; i++ {
			levels = append(levels, domain.PriceLevel{
				Price:    1 + rng.Intn(99),
				Quantity: 1 + rng.Int63n(200),
			})
		}
		return levels
	}
	ob, err := domain.NewOrderbook(gen(), gen(), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("random book: %v", err)
	}
	return ob
}

func TestSlippageMonotoneInQuantity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		ob := randomBook(t, rng)
		outcome := domain.Outcome(rng.Intn(2))
		action := domain.Action(rng.Intn(2))

		q1 := 1 + rng.Int63n(150)
		q2 := q1 + 1 + rng.Int63n(150)
		e1 := EstimateSlippage(ob, outcome, action, q1)
		e2 := EstimateSlippage(ob, outcome, action, q2)
		if !e1.Filled() || !e2.Filled() {
			continue
		}
		if e2.SlippageCents < e1.SlippageCents {
			t.Fatalf("case %d: slippage decreased with quantity: q=%d -> %v, q=%d -> %v\nbook: %+v",
				i, q1, e1.SlippageCents, q2, e2.SlippageCents, ob)
		}
	}
}
