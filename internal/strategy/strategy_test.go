package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"quantbt/internal/engine"
	"quantbt/internal/feed"
	"quantbt/internal/models"
)

func barSeries(closes ...float64) []models.MarketEvent {
	start := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	events := make([]models.MarketEvent, len(closes))
	for i, c := range closes {
		events[i] = models.Bar{
			Symbol:    "AAPL",
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return events
}

func runStrategy(t *testing.T, strat engine.Strategy, events []models.MarketEvent) *engine.Result {
	t.Helper()
	eng, err := engine.New(engine.Config{StartingCash: 1000000})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	result, err := eng.Run(context.Background(), feed.NewSliceSource(events...), strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func TestNewFactoryNames(t *testing.T) {
	for _, name := range []string{"sma", "sma_crossover", "rsi", "rsi_reversion", "hold", "buy_and_hold", "SMA"} {
		if _, err := New(name, "AAPL", 10, nil); err != nil {
			t.Fatalf("expected %q to resolve, got %v", name, err)
		}
	}
	if _, err := New("momentum", "AAPL", 10, nil); err == nil {
		t.Fatal("expected unknown strategy to fail")
	}
	if _, err := New("hold", "", 10, nil); err == nil {
		t.Fatal("expected missing symbol to fail")
	}
	if _, err := New("hold", "AAPL", 0, nil); err == nil {
		t.Fatal("expected zero quantity to fail")
	}
}

func TestNewAppliesParams(t *testing.T) {
	strat, err := New("sma", "AAPL", 10, Params{"short_period": 3, "long_period": 7, "go_short": 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sma := strat.(*SMACrossover)
	if sma.ShortPeriod != 3 || sma.LongPeriod != 7 || !sma.GoShort {
		t.Fatalf("params not applied: %+v", sma)
	}

	strat, err = New("rsi", "AAPL", 10, Params{"period": 7, "oversold": 25, "overbought": 75})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rsi := strat.(*RSIReversion)
	if rsi.Period != 7 || rsi.Oversold != 25 || rsi.Overbought != 75 {
		t.Fatalf("params not applied: %+v", rsi)
	}
}

func TestBuyAndHoldBuysOnce(t *testing.T) {
	result := runStrategy(t, &BuyAndHold{Symbol: "AAPL", Quantity: 10}, barSeries(100, 101, 102, 103))

	if len(result.Fills) != 1 {
		t.Fatalf("expected exactly 1 fill, got %d", len(result.Fills))
	}
	if result.Fills[0].Quantity != 10 {
		t.Fatalf("expected buy of 10, got %v", result.Fills[0].Quantity)
	}
	pos := result.Positions["AAPL"]
	if pos.Quantity != 10 {
		t.Fatalf("expected final position 10, got %v", pos.Quantity)
	}
}

func TestBuyAndHoldIgnoresOtherSymbols(t *testing.T) {
	events := barSeries(100, 101)
	for i, ev := range events {
		bar := ev.(models.Bar)
		bar.Symbol = "MSFT"
		events[i] = bar
	}

	result := runStrategy(t, &BuyAndHold{Symbol: "AAPL", Quantity: 10}, events)
	if len(result.Fills) != 0 {
		t.Fatalf("expected no fills on foreign symbols, got %d", len(result.Fills))
	}
}

func TestSMACrossoverGoesLongOnUpCross(t *testing.T) {
	// Downtrend long enough to seed both windows, then a sharp rally
	// forcing the short average up through the long one.
	closes := []float64{110, 109, 108, 107, 106, 105, 104, 103, 120, 130, 140}
	strat := &SMACrossover{Symbol: "AAPL", Quantity: 10, ShortPeriod: 2, LongPeriod: 5}

	result := runStrategy(t, strat, barSeries(closes...))
	if len(result.Fills) == 0 {
		t.Fatal("expected the rally to produce a long entry")
	}
	if result.Fills[0].Quantity != 10 {
		t.Fatalf("expected first fill to open the long, got %v", result.Fills[0].Quantity)
	}
}

func TestSMACrossoverExitsOnDownCross(t *testing.T) {
	// Dip, rally, collapse: a long entry followed by a flat exit.
	closes := []float64{110, 109, 108, 107, 106, 105, 104, 103, 120, 130, 140, 90, 80, 70, 60}
	strat := &SMACrossover{Symbol: "AAPL", Quantity: 10, ShortPeriod: 2, LongPeriod: 5}

	result := runStrategy(t, strat, barSeries(closes...))
	if len(result.Fills) < 2 {
		t.Fatalf("expected entry and exit, got %d fills", len(result.Fills))
	}
	pos := result.Positions["AAPL"]
	if !pos.Flat() {
		t.Fatalf("expected flat position after the down cross, got %v", pos.Quantity)
	}
}

func TestSMACrossoverGoShortFlips(t *testing.T) {
	closes := []float64{110, 109, 108, 107, 106, 105, 104, 103, 120, 130, 140, 90, 80, 70, 60}
	strat := &SMACrossover{Symbol: "AAPL", Quantity: 10, ShortPeriod: 2, LongPeriod: 5, GoShort: true}

	eng, err := engine.New(engine.Config{StartingCash: 1000000, AllowShort: true})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	result, err := eng.Run(context.Background(), feed.NewSliceSource(barSeries(closes...)...), strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	pos := result.Positions["AAPL"]
	if pos.Quantity != -10 {
		t.Fatalf("expected short -10 after the down cross, got %v", pos.Quantity)
	}
}

func TestSMAHelper(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	if got := sma(closes, 4, 3); math.Abs(got-4) > 1e-9 {
		t.Fatalf("expected sma 4, got %v", got)
	}
	if got := sma(closes, 1, 3); got != 0 {
		t.Fatalf("expected 0 before the window fills, got %v", got)
	}
}

func TestRSIHelper(t *testing.T) {
	up := []float64{100, 101, 102, 103, 104}
	if got := rsi(up, 4, 3); got != 100 {
		t.Fatalf("expected RSI 100 on straight gains, got %v", got)
	}

	down := []float64{104, 103, 102, 101, 100}
	if got := rsi(down, 4, 3); got != 0 {
		t.Fatalf("expected RSI 0 on straight losses, got %v", got)
	}

	if got := rsi(up, 1, 3); got != 50 {
		t.Fatalf("expected neutral RSI before warmup, got %v", got)
	}
}

func TestRSIReversionBuysOnRecovery(t *testing.T) {
	// Steep selloff pins RSI at the floor, then a recovery lifts it up
	// through the oversold line.
	closes := []float64{100, 95, 90, 85, 80, 75, 70, 70.5, 74, 78, 82}
	strat := &RSIReversion{Symbol: "AAPL", Quantity: 10, Period: 3, Oversold: 30, Overbought: 70}

	result := runStrategy(t, strat, barSeries(closes...))
	if len(result.Fills) == 0 {
		t.Fatal("expected the recovery to produce a long entry")
	}
	if result.Fills[0].Quantity != 10 {
		t.Fatalf("expected first fill to open the long, got %v", result.Fills[0].Quantity)
	}
}

func TestParamsDefaults(t *testing.T) {
	var p Params
	if got := p.intOr("period", 14); got != 14 {
		t.Fatalf("expected default 14, got %d", got)
	}
	if got := p.floatOr("oversold", 30); got != 30 {
		t.Fatalf("expected default 30, got %v", got)
	}

	p = Params{"period": 7}
	if got := p.intOr("period", 14); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
