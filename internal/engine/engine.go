package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"quantbt/internal/errors"
	"quantbt/internal/metrics"
	"quantbt/internal/models"
)

// EventSource yields market events in ascending time order. The engine
// consumes it lazily, one element at a time, so it works equally over
// a pre-loaded slice or a live stream.
type EventSource interface {
	// Next returns the next event. ok is false once the sequence is
	// exhausted.
	Next(ctx context.Context) (ev models.MarketEvent, ok bool, err error)
}

// Strategy observes the replay and reacts through the Context. Hooks
// run synchronously; an error from any hook aborts the run and
// propagates to the caller of Run.
type Strategy interface {
	// OnStart runs once before the first event.
	OnStart(ctx *Context) error
	// OnEvent runs once per event, after that event's matching has
	// been applied.
	OnEvent(ctx *Context, ev models.MarketEvent) error
	// OnFinish runs once after the last event.
	OnFinish(ctx *Context) error
}

// Result is what a finished run returns to the caller.
type Result struct {
	Fills      []models.Fill
	Snapshots  []models.AccountSnapshot
	Positions  map[string]models.Position
	OpenOrders []models.Order
	Metrics    metrics.Summary
}

// Engine replays an ordered event sequence against a strategy's
// orders. One engine owns one run; the order book, ledger, and RNG are
// never shared between instances, which is what keeps independent runs
// safe to execute in parallel.
type Engine struct {
	cfg      Config
	log      zerolog.Logger
	rng      *rand.Rand
	book     *orderBook
	ledger   *ledger
	recorder *equityRecorder
	fills    []models.Fill
	now      time.Time
	allowed  map[string]struct{}
	running  bool
	done     bool
}

// New constructs an engine, validating the configuration eagerly.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	var allowed map[string]struct{}
	if len(cfg.Symbols) > 0 {
		allowed = make(map[string]struct{}, len(cfg.Symbols))
		for _, s := range cfg.Symbols {
			allowed[s] = struct{}{}
		}
	}

	return &Engine{
		cfg:      cfg,
		log:      log,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		book:     newOrderBook(),
		ledger:   newLedger(cfg.StartingCash),
		recorder: &equityRecorder{},
		allowed:  allowed,
	}, nil
}

// Run drives the replay loop to exhaustion: for each event it advances
// the logical clock, matches pending orders, invokes the strategy, and
// records an equity snapshot. Metrics are computed once at the end
// over the recorded NAV series.
func (e *Engine) Run(ctx context.Context, src EventSource, strat Strategy) (*Result, error) {
	if e.done {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "engine instance already ran; construct a fresh one per run")
	}
	e.running = true
	defer func() { e.running = false; e.done = true }()

	sctx := &Context{engine: e}

	if err := strat.OnStart(sctx); err != nil {
		return nil, errors.NewStrategyError(strategyName(strat), "OnStart", err)
	}

	var events int
	for {
		ev, ok, err := src.Next(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "reading event source")
		}
		if !ok {
			break
		}
		if e.now.After(ev.EventTime()) {
			return nil, errors.Wrapf(errors.ErrOutOfOrderEvents, "event at %s after clock %s", ev.EventTime(), e.now)
		}
		e.now = ev.EventTime()
		events++

		if e.symbolAllowed(ev.EventSymbol()) {
			e.fills = append(e.fills, e.matchEvent(ev)...)
		}

		if err := strat.OnEvent(sctx, ev); err != nil {
			return nil, errors.NewStrategyError(strategyName(strat), "OnEvent", err)
		}

		e.recorder.record(e.now, e.ledger.cash, e.ledger.markToMarket())
	}

	if err := strat.OnFinish(sctx); err != nil {
		return nil, errors.NewStrategyError(strategyName(strat), "OnFinish", err)
	}

	result := &Result{
		Fills:      e.fills,
		Snapshots:  e.recorder.snapshots,
		Positions:  e.ledger.allPositions(),
		OpenOrders: e.book.open(),
		Metrics:    metrics.Compute(navSeries(e.recorder.snapshots), e.cfg.PeriodsPerYear),
	}

	e.log.Debug().
		Int("events", events).
		Int("fills", len(result.Fills)).
		Int("open_orders", len(result.OpenOrders)).
		Msg("Replay finished")

	return result, nil
}

// symbolAllowed applies the optional symbol allow-list. Events for
// filtered symbols are not matched but still advance the clock and
// produce snapshots.
func (e *Engine) symbolAllowed(symbol string) bool {
	if e.allowed == nil || symbol == "" {
		return true
	}
	_, ok := e.allowed[symbol]
	return ok
}

func navSeries(snapshots []models.AccountSnapshot) []float64 {
	navs := make([]float64, len(snapshots))
	for i, s := range snapshots {
		navs[i] = s.NAV
	}
	return navs
}

// strategyName reports the strategy's name for error context, using
// the optional Name method when present.
func strategyName(s Strategy) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "strategy"
}
