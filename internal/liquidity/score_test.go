package liquidity

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/liqlens/liqlens/internal/domain"
)

func TestDepthScoreWeighting(t *testing.T) {
	// Midpoint 50: YES bid at 50 counts fully, NO bid at 50 implies a YES
	// offer at 50 and also counts fully, a level exactly at the window edge
	// contributes nothing.
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 50, Quantity: 10}, {Price: 40, Quantity: 99}},
		[]domain.PriceLevel{{Price: 50, Quantity: 20}},
	)
	got := DepthScore(ob, 10)
	if got != 30 {
		t.Errorf("depth score: want 30, got %v", got)
	}
}

func TestDepthScoreUndefinedMidpoint(t *testing.T) {
	empty := mustBook(t, nil, nil)
	oneSided := mustBook(t, []domain.PriceLevel{{Price: 60, Quantity: 50}}, nil)
	if got := DepthScore(empty, 10); got != 0 {
		t.Errorf("empty book: want 0, got %v", got)
	}
	if got := DepthScore(oneSided, 10); got != 0 {
		t.Errorf("one-sided book: want 0, got %v", got)
	}
}

func TestDepthScoreOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	levels := []domain.PriceLevel{
		{Price: 52, Quantity: 10},
		{Price: 48, Quantity: 25},
		{Price: 45, Quantity: 5},
		{Price: 48, Quantity: 3},
	}
	no := []domain.PriceLevel{{Price: 51, Quantity: 12}, {Price: 49, Quantity: 9}}

	base := DepthScore(mustBook(t, levels, no), 10)
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.PriceLevel(nil), levels...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := DepthScore(mustBook(t, shuffled, no), 10); got != base {
			t.Fatalf("depth score depends on insertion order: %v vs %v", got, base)
		}
	}
}

func TestScoreWorkedExample(t *testing.T) {
	ob := mustBook(t,
		[]domain.PriceLevel{{Price: 48, Quantity: 100}, {Price: 47, Quantity: 50}},
		[]domain.PriceLevel{{Price: 50, Quantity: 80}, {Price: 49, Quantity: 40}},
	)
	mkt := domain.MarketContext{Volume24h: 8543, OpenInterest: 12301}

	// Midpoint 49. YES 48 and 47 weigh 0.9/0.8; NO 50 and 49 imply 50 and 51,
	// weighing 0.9/0.8. Raw depth = 90+40+72+32 = 234.
	if got := DepthScore(ob, DefaultDepthRadius); got != 234 {
		t.Fatalf("raw depth: want 234, got %v", got)
	}

	score, err := Score(mkt, ob, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if score.SpreadScore != 90 {
		t.Errorf("spread score: want 90, got %v", score.SpreadScore)
	}
	if score.DepthScore != 23.4 {
		t.Errorf("depth score: want 23.4, got %v", score.DepthScore)
	}
	if score.VolumeScore != 85.43 {
		t.Errorf("volume score: want 85.43, got %v", score.VolumeScore)
	}
	if score.OpenInterestScore != 100 {
		t.Errorf("oi score: want 100, got %v", score.OpenInterestScore)
	}
	// 0.3*90 + 0.3*23.4 + 0.2*85.43 + 0.2*100 = 71.106 -> 71.
	if score.Value != 71 {
		t.Errorf("composite: want 71, got %d", score.Value)
	}
	if score.Grade != domain.GradeModerate {
		t.Errorf("grade: want moderate, got %s", score.Grade)
	}
}

func TestScoreSpreadComponentBounds(t *testing.T) {
	tight := mustBook(t,
		[]domain.PriceLevel{{Price: 50, Quantity: 1}},
		[]domain.PriceLevel{{Price: 50, Quantity: 1}},
	)
	score, err := Score(domain.MarketContext{}, tight, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if score.SpreadScore != 100 {
		t.Errorf("zero spread: want spread score 100, got %v", score.SpreadScore)
	}

	// Best bids 40/40 put the implied ask at 60: a 20 cent spread zeroes out.
	wide := mustBook(t,
		[]domain.PriceLevel{{Price: 40, Quantity: 1}},
		[]domain.PriceLevel{{Price: 40, Quantity: 1}},
	)
	score, err = Score(domain.MarketContext{}, wide, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if score.SpreadScore != 0 {
		t.Errorf("20c spread: want spread score 0, got %v", score.SpreadScore)
	}
}

func TestScoreBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 200; i++ {
		ob := randomBook(t, rng)
		mkt := domain.MarketContext{
			Volume24h:    rng.Int63n(2_000_000),
			OpenInterest: rng.Int63n(2_000_000),
		}
		score, err := Score(mkt, ob, DefaultWeights())
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if score.Value < 0 || score.Value > 100 {
			t.Fatalf("score out of bounds: %d", score.Value)
		}
	}
}

func TestScoreRejectsInvalidWeights(t *testing.T) {
	ob := mustBook(t, nil, nil)
	bad := []Weights{
		{Spread: 0.5, Depth: 0.5, Volume: 0.5, OpenInterest: 0.5}, // sums to 2
		{Spread: -0.1, Depth: 0.5, Volume: 0.3, OpenInterest: 0.3},
		{Spread: 1.2, Depth: -0.2, Volume: 0, OpenInterest: 0},
	}
	for i, w := range bad {
		if _, err := Score(domain.MarketContext{}, ob, w); !errors.Is(err, domain.ErrInvalidWeights) {
			t.Errorf("case %d: want ErrInvalidWeights, got %v", i, err)
		}
	}
}

func TestGradeThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  domain.LiquidityGrade
	}{
		{0, domain.GradeIlliquid},
		{24, domain.GradeIlliquid},
		{25, domain.GradeThin},
		{49, domain.GradeThin},
		{50, domain.GradeModerate},
		{74, domain.GradeModerate},
		{75, domain.GradeLiquid},
		{100, domain.GradeLiquid},
	}
	for _, c := range cases {
		if got := GradeFor(c.score); got != c.want {
			t.Errorf("grade(%d): want %s, got %s", c.score, c.want, got)
		}
	}
}
