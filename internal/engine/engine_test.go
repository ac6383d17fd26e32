package engine

import (
	"context"
	"fmt"
	"testing"

	"quantbt/internal/errors"
	"quantbt/internal/models"
)

// scriptStrategy wires test closures into the strategy hooks.
type scriptStrategy struct {
	onStart  func(*Context) error
	onEvent  func(*Context, models.MarketEvent) error
	onFinish func(*Context) error
}

func (s *scriptStrategy) Name() string { return "script" }

func (s *scriptStrategy) OnStart(ctx *Context) error {
	if s.onStart != nil {
		return s.onStart(ctx)
	}
	return nil
}

func (s *scriptStrategy) OnEvent(ctx *Context, ev models.MarketEvent) error {
	if s.onEvent != nil {
		return s.onEvent(ctx, ev)
	}
	return nil
}

func (s *scriptStrategy) OnFinish(ctx *Context) error {
	if s.onFinish != nil {
		return s.onFinish(ctx)
	}
	return nil
}

// sliceSource is a minimal in-test event source.
type sliceSource struct {
	events []models.MarketEvent
	pos    int
}

func (s *sliceSource) Next(ctx context.Context) (models.MarketEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.events) {
		return nil, false, nil
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true, nil
}

func bars(days ...int) []models.MarketEvent {
	events := make([]models.MarketEvent, len(days))
	for i, day := range days {
		events[i] = dayBar(day, 99, 101, 98, 100)
	}
	return events
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{StartingCash: -5}); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
	if _, err := New(Config{StartingCash: 1000, MaxLeverage: -1}); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestRunHookOrder(t *testing.T) {
	e := testEngine(t, Config{})
	var calls []string
	strat := &scriptStrategy{
		onStart: func(*Context) error {
			calls = append(calls, "start")
			return nil
		},
		onEvent: func(*Context, models.MarketEvent) error {
			calls = append(calls, "event")
			return nil
		},
		onFinish: func(*Context) error {
			calls = append(calls, "finish")
			return nil
		},
	}

	if _, err := e.Run(context.Background(), &sliceSource{events: bars(2, 3)}, strat); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"start", "event", "event", "finish"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, calls)
		}
	}
}

func TestRunMatchesBeforeStrategySeesEvent(t *testing.T) {
	e := testEngine(t, Config{})
	var sawPosition float64
	strat := &scriptStrategy{
		onStart: func(ctx *Context) error {
			_, err := ctx.Submit(models.Order{
				Symbol: "AAPL", Side: models.OrderSideBuy,
				Kind: models.OrderKindMarket, Quantity: 10,
			})
			return err
		},
		onEvent: func(ctx *Context, ev models.MarketEvent) error {
			sawPosition = ctx.Position("AAPL").Quantity
			return nil
		},
	}

	if _, err := e.Run(context.Background(), &sliceSource{events: bars(2)}, strat); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sawPosition != 10 {
		t.Fatalf("OnEvent must observe the event's own fills, saw position %v", sawPosition)
	}
}

func TestRunOutOfOrderEventsFail(t *testing.T) {
	e := testEngine(t, Config{})
	events := []models.MarketEvent{dayBar(5, 99, 101, 98, 100), dayBar(2, 99, 101, 98, 100)}

	_, err := e.Run(context.Background(), &sliceSource{events: events}, &scriptStrategy{})
	if !errors.Is(err, errors.ErrOutOfOrderEvents) {
		t.Fatalf("expected ErrOutOfOrderEvents, got %v", err)
	}
}

func TestRunStrategyErrorPropagates(t *testing.T) {
	e := testEngine(t, Config{})
	boom := fmt.Errorf("boom")
	strat := &scriptStrategy{
		onEvent: func(*Context, models.MarketEvent) error { return boom },
	}

	_, err := e.Run(context.Background(), &sliceSource{events: bars(2)}, strat)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped strategy error, got %v", err)
	}
	var serr *errors.StrategyError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StrategyError, got %T", err)
	}
	if serr.Strategy != "script" || serr.Hook != "OnEvent" {
		t.Fatalf("expected script/OnEvent, got %s/%s", serr.Strategy, serr.Hook)
	}
}

func TestRunOneShot(t *testing.T) {
	e := testEngine(t, Config{})
	if _, err := e.Run(context.Background(), &sliceSource{events: bars(2)}, &scriptStrategy{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := e.Run(context.Background(), &sliceSource{events: bars(3)}, &scriptStrategy{}); err == nil {
		t.Fatal("expected second Run on the same engine to fail")
	}
}

func TestRunSymbolFilter(t *testing.T) {
	e := testEngine(t, Config{Symbols: []string{"AAPL"}})
	msftBar := models.Bar{
		Symbol: "MSFT", Timestamp: dayBar(3, 0, 0, 0, 0).Timestamp,
		Open: 200, High: 205, Low: 195, Close: 202, Volume: 500,
	}
	events := []models.MarketEvent{dayBar(2, 99, 101, 98, 100), msftBar}

	strat := &scriptStrategy{
		onStart: func(ctx *Context) error {
			_, err := ctx.Submit(models.Order{
				Symbol: "MSFT", Side: models.OrderSideBuy,
				Kind: models.OrderKindMarket, Quantity: 1,
			})
			return err
		},
	}

	_, err := e.Run(context.Background(), &sliceSource{events: events}, strat)
	if !errors.Is(err, errors.ErrSymbolNotAllowed) {
		t.Fatalf("expected ErrSymbolNotAllowed on submit, got %v", err)
	}
}

func TestRunFilteredEventsStillSnapshot(t *testing.T) {
	e := testEngine(t, Config{Symbols: []string{"AAPL"}})
	msftBar := models.Bar{
		Symbol: "MSFT", Timestamp: dayBar(3, 0, 0, 0, 0).Timestamp,
		Open: 200, High: 205, Low: 195, Close: 202, Volume: 500,
	}
	events := []models.MarketEvent{dayBar(2, 99, 101, 98, 100), msftBar}

	result, err := e.Run(context.Background(), &sliceSource{events: events}, &scriptStrategy{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Snapshots) != 2 {
		t.Fatalf("filtered events must still advance the clock and snapshot, got %d snapshots", len(result.Snapshots))
	}
}

func TestRunResultOpenOrders(t *testing.T) {
	e := testEngine(t, Config{})
	strat := &scriptStrategy{
		onStart: func(ctx *Context) error {
			_, err := ctx.Submit(models.Order{
				Symbol: "AAPL", Side: models.OrderSideBuy,
				Kind: models.OrderKindLimit, Quantity: 10, LimitPrice: 50,
			})
			return err
		},
	}

	result, err := e.Run(context.Background(), &sliceSource{events: bars(2, 3, 4)}, strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Fills) != 0 {
		t.Fatalf("limit far below the range must not fill, got %d fills", len(result.Fills))
	}
	if len(result.OpenOrders) != 1 {
		t.Fatalf("expected the resting limit in OpenOrders, got %d", len(result.OpenOrders))
	}
}

func TestRunValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		order models.Order
	}{
		{"missing symbol", models.Order{Side: models.OrderSideBuy, Kind: models.OrderKindMarket, Quantity: 1}},
		{"bad side", models.Order{Symbol: "AAPL", Side: "HOLD", Kind: models.OrderKindMarket, Quantity: 1}},
		{"bad kind", models.Order{Symbol: "AAPL", Side: models.OrderSideBuy, Kind: "ICEBERG", Quantity: 1}},
		{"zero quantity", models.Order{Symbol: "AAPL", Side: models.OrderSideBuy, Kind: models.OrderKindMarket}},
		{"limit without price", models.Order{Symbol: "AAPL", Side: models.OrderSideBuy, Kind: models.OrderKindLimit, Quantity: 1}},
		{"stop without price", models.Order{Symbol: "AAPL", Side: models.OrderSideBuy, Kind: models.OrderKindStop, Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := testEngine(t, Config{})
			ctx := &Context{engine: e}
			if _, err := ctx.Submit(tc.order); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if e.book.size() != 0 {
				t.Fatal("rejected order must never reach the book")
			}
		})
	}
}

func TestContextCancelDuringRun(t *testing.T) {
	e := testEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	strat := &scriptStrategy{
		onEvent: func(*Context, models.MarketEvent) error {
			cancel()
			return nil
		},
	}

	_, err := e.Run(ctx, &sliceSource{events: bars(2, 3, 4)}, strat)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunCancelOrderFromStrategy(t *testing.T) {
	e := testEngine(t, Config{})
	var id int64
	strat := &scriptStrategy{
		onStart: func(ctx *Context) error {
			var err error
			id, err = ctx.Submit(models.Order{
				Symbol: "AAPL", Side: models.OrderSideBuy,
				Kind: models.OrderKindLimit, Quantity: 10, LimitPrice: 50,
			})
			return err
		},
		onEvent: func(ctx *Context, ev models.MarketEvent) error {
			if !ctx.Cancel(id) {
				t.Error("expected cancel of resting order to succeed")
			}
			if ctx.Cancel(id) {
				t.Error("expected repeat cancel to be a no-op")
			}
			return nil
		},
	}

	result, err := e.Run(context.Background(), &sliceSource{events: bars(2)}, strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.OpenOrders) != 0 {
		t.Fatalf("canceled order must not survive the run, got %d open", len(result.OpenOrders))
	}
}
