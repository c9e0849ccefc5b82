package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewOrderbookRejectsOutOfRangePrice(t *testing.T) {
	for _, price := range []int{0, -3, 100, 250} {
		_, err := NewOrderbook([]PriceLevel{{Price: price, Quantity: 10}}, nil, time.Now())
		if !errors.Is(err, ErrInvalidPrice) {
			t.Fatalf("price %d: want ErrInvalidPrice, got %v", price, err)
		}
	}
}

func TestNewOrderbookRejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int64{0, -5} {
		_, err := NewOrderbook(nil, []PriceLevel{{Price: 40, Quantity: qty}}, time.Now())
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: want ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestNewOrderbookDedupesAndSorts(t *testing.T) {
	ob, err := NewOrderbook([]PriceLevel{
		{Price: 40, Quantity: 10},
		{Price: 55, Quantity: 5},
		{Price: 40, Quantity: 7},
	}, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := Side{{Price: 55, Quantity: 5}, {Price: 40, Quantity: 17}}
	if len(ob.YesBids) != len(want) {
		t.Fatalf("want %d levels, got %d", len(want), len(ob.YesBids))
	}
	for i, lvl := range want {
		if ob.YesBids[i] != lvl {
			t.Errorf("level %d: want %+v, got %+v", i, lvl, ob.YesBids[i])
		}
	}
}

func TestDerivedQuotes(t *testing.T) {
	ob, err := NewOrderbook(
		[]PriceLevel{{Price: 48, Quantity: 100}, {Price: 47, Quantity: 50}},
		[]PriceLevel{{Price: 50, Quantity: 80}, {Price: 49, Quantity: 40}},
		time.Now(),
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if bid, ok := ob.BestBid(OutcomeYes); !ok || bid != 48 {
		t.Errorf("best yes bid: want 48, got %d (ok=%v)", bid, ok)
	}
	if ask, ok := ob.ImpliedAsk(OutcomeYes); !ok || ask != 50 {
		t.Errorf("implied yes ask: want 50, got %d (ok=%v)", ask, ok)
	}
	if spread, ok := ob.Spread(); !ok || spread != 2 {
		t.Errorf("spread: want 2, got %d (ok=%v)", spread, ok)
	}
	if mid, ok := ob.Midpoint(OutcomeYes); !ok || mid != 49 {
		t.Errorf("midpoint: want 49, got %v (ok=%v)", mid, ok)
	}

	// The NO view mirrors the YES view across 100.
	if bid, ok := ob.BestBid(OutcomeNo); !ok || bid != 50 {
		t.Errorf("best no bid: want 50, got %d (ok=%v)", bid, ok)
	}
	if ask, ok := ob.ImpliedAsk(OutcomeNo); !ok || ask != 52 {
		t.Errorf("implied no ask: want 52, got %d (ok=%v)", ask, ok)
	}
	if mid, ok := ob.Midpoint(OutcomeNo); !ok || mid != 51 {
		t.Errorf("no midpoint: want 51, got %v (ok=%v)", mid, ok)
	}
}

func TestOneSidedBookHasNoQuote(t *testing.T) {
	ob, err := NewOrderbook([]PriceLevel{{Price: 30, Quantity: 10}}, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := ob.ImpliedAsk(OutcomeYes); ok {
		t.Error("implied ask should be undefined with an empty NO side")
	}
	if _, ok := ob.Midpoint(OutcomeYes); ok {
		t.Error("midpoint should be undefined for a one-sided book")
	}
	if _, ok := ob.Spread(); ok {
		t.Error("spread should be undefined for a one-sided book")
	}
	if bid, ok := ob.BestBid(OutcomeYes); !ok || bid != 30 {
		t.Errorf("best bid should still be defined: got %d (ok=%v)", bid, ok)
	}
}

func TestLevelsWithin(t *testing.T) {
	side := Side{
		{Price: 60, Quantity: 1},
		{Price: 55, Quantity: 2},
		{Price: 50, Quantity: 3},
		{Price: 39, Quantity: 4},
	}
	got := side.LevelsWithin(50, 10)
	if len(got) != 3 {
		t.Fatalf("want 3 levels within radius, got %d", len(got))
	}
	// 60 sits exactly at the edge and is included; 39 is outside.
	if got[0].Price != 60 || got[2].Price != 50 {
		t.Errorf("unexpected window contents: %+v", got)
	}
}
