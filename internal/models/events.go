// Package models provides domain models for the backtest engine.
package models

import "time"

// MarketEvent is one element of the replayed event sequence, either a
// Bar or a Tick. Events must be delivered in ascending time order.
type MarketEvent interface {
	// EventSymbol returns the instrument the event belongs to.
	EventSymbol() string
	// EventTime returns the event timestamp.
	EventTime() time.Time
}

// Bar represents OHLCV data for one time interval.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// EventSymbol implements MarketEvent.
func (b Bar) EventSymbol() string { return b.Symbol }

// EventTime implements MarketEvent.
func (b Bar) EventTime() time.Time { return b.Timestamp }

// Tick represents a single trade print at an instant.
type Tick struct {
	Symbol    string
	Timestamp time.Time
	Price     float64
	Volume    int64
}

// EventSymbol implements MarketEvent.
func (t Tick) EventSymbol() string { return t.Symbol }

// EventTime implements MarketEvent.
func (t Tick) EventTime() time.Time { return t.Timestamp }
