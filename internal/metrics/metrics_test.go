package metrics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeEmptyBelowTwoPoints(t *testing.T) {
	cases := [][]float64{nil, {}, {100000}}
	for _, navs := range cases {
		s := Compute(navs, 252)
		if !s.Empty() {
			t.Fatalf("expected empty summary for %v, got %+v", navs, s)
		}
	}
}

func TestComputeZeroStartingNAV(t *testing.T) {
	if s := Compute([]float64{0, 100}, 252); !s.Empty() {
		t.Fatalf("expected empty summary on zero starting NAV, got %+v", s)
	}
}

func TestComputeTotalReturn(t *testing.T) {
	s := Compute([]float64{100000, 105000, 110000}, 252)
	if s.Empty() {
		t.Fatal("expected a measured summary")
	}
	if s.Periods != 2 {
		t.Fatalf("expected 2 return periods, got %d", s.Periods)
	}
	if !almostEqual(s.TotalReturn, 0.10) {
		t.Fatalf("expected total return 0.10, got %v", s.TotalReturn)
	}
}

func TestComputeCAGRAnnualizes(t *testing.T) {
	// 252 daily periods, 10% total gain: CAGR equals the total return.
	navs := make([]float64, 253)
	for i := range navs {
		navs[i] = 100000 * (1 + 0.10*float64(i)/252)
	}
	s := Compute(navs, 252)
	if !almostEqual(s.CAGR, 0.10) {
		t.Fatalf("expected CAGR 0.10 over exactly one year, got %v", s.CAGR)
	}
}

func TestComputeZeroVarianceRatiosAreZero(t *testing.T) {
	s := Compute([]float64{100000, 100000, 100000}, 252)
	if s.Sharpe != 0 {
		t.Fatalf("expected Sharpe 0 on zero variance, got %v", s.Sharpe)
	}
	if s.Sortino != 0 {
		t.Fatalf("expected Sortino 0 on zero variance, got %v", s.Sortino)
	}
	if math.IsNaN(s.Sharpe) || math.IsNaN(s.Sortino) {
		t.Fatal("ratios must never be NaN")
	}
}

func TestComputeSortinoZeroWithoutLosses(t *testing.T) {
	s := Compute([]float64{100000, 101000, 102500}, 252)
	if s.Sortino != 0 {
		t.Fatalf("expected Sortino 0 with no negative returns, got %v", s.Sortino)
	}
	if s.Sharpe <= 0 {
		t.Fatalf("expected positive Sharpe on an all-gain series, got %v", s.Sharpe)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	// Peak 120000, trough 90000: drawdown 25%.
	s := Compute([]float64{100000, 120000, 90000, 110000}, 252)
	if !almostEqual(s.MaxDrawdown, 0.25) {
		t.Fatalf("expected max drawdown 0.25, got %v", s.MaxDrawdown)
	}
}

func TestComputeMaxDrawdownZeroOnMonotonicRise(t *testing.T) {
	s := Compute([]float64{100, 110, 120, 130}, 252)
	if s.MaxDrawdown != 0 {
		t.Fatalf("expected zero drawdown on a rising series, got %v", s.MaxDrawdown)
	}
}

func TestReturns(t *testing.T) {
	returns := Returns([]float64{100, 110, 99})
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if !almostEqual(returns[0], 0.10) {
		t.Fatalf("expected first return 0.10, got %v", returns[0])
	}
	if !almostEqual(returns[1], -0.10) {
		t.Fatalf("expected second return -0.10, got %v", returns[1])
	}
	if Returns([]float64{100}) != nil {
		t.Fatal("expected nil returns for a single point")
	}
}

func TestComputeSharpeKnownSeries(t *testing.T) {
	// Alternating +1%/-1% returns: mean 0, so Sharpe is 0 exactly.
	s := Compute([]float64{100, 101, 99.99, 100.9899, 99.979901}, 252)
	if math.Abs(s.Sharpe) > 0.01 {
		t.Fatalf("expected near-zero Sharpe for alternating returns, got %v", s.Sharpe)
	}
}
