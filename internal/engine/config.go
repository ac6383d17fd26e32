package engine

import (
	"github.com/rs/zerolog"

	"quantbt/internal/errors"
)

// DefaultPeriodsPerYear annualizes metrics assuming daily bars.
const DefaultPeriodsPerYear = 252

// Config holds immutable engine parameters, fixed at construction.
type Config struct {
	// StartingCash is the opening cash balance. Must be positive.
	StartingCash float64

	// Symbols optionally restricts tradeable symbols. Empty means no
	// filter.
	Symbols []string

	// Commission computes fees. Defaults to ZeroCommission.
	Commission CommissionModel

	// Slippage adjusts execution prices. Defaults to NoSlippage.
	Slippage SlippageModel

	// Prices extracts the reference price from an event. Defaults to
	// ClosePrice (bar close, tick trade price).
	Prices PriceExtractor

	// AllowShort permits positions to go negative. When false, a sell
	// that would flip a position short stays pending instead of
	// triggering.
	AllowShort bool

	// Seed seeds the engine's RNG, consulted only by the slippage
	// model.
	Seed int64

	// MaxLeverage caps gross notional as a multiple of equity before a
	// new order may trigger. Zero means unbounded.
	MaxLeverage float64

	// PeriodsPerYear annualizes the run metrics. Defaults to
	// DefaultPeriodsPerYear.
	PeriodsPerYear float64

	// Logger receives engine diagnostics. Defaults to a no-op logger
	// so the core stays free of I/O side effects.
	Logger *zerolog.Logger
}

func (c *Config) validate() error {
	if c.StartingCash <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "starting cash must be positive, got %v", c.StartingCash)
	}
	if c.MaxLeverage < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "max leverage must be non-negative, got %v", c.MaxLeverage)
	}
	if c.PeriodsPerYear < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "periods per year must be non-negative, got %v", c.PeriodsPerYear)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Commission == nil {
		c.Commission = ZeroCommission{}
	}
	if c.Slippage == nil {
		c.Slippage = NoSlippage{}
	}
	if c.Prices == nil {
		c.Prices = ClosePrice{}
	}
	if c.PeriodsPerYear == 0 {
		c.PeriodsPerYear = DefaultPeriodsPerYear
	}
}
