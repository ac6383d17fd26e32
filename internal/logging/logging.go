// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"quantbt/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "quantbt", "logs", "quantbt.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stderr
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithRunID adds a backtest run ID to the logger context.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("strategy", name).Logger()
}

// LogFill logs an executed fill.
func LogFill(logger zerolog.Logger, fill models.Fill) {
	logger.Info().
		Str("event", "fill").
		Int64("order_id", fill.OrderID).
		Str("symbol", fill.Symbol).
		Float64("quantity", fill.Quantity).
		Float64("price", fill.Price).
		Float64("fee", fill.Fee).
		Float64("slippage", fill.Slippage).
		Time("ts", fill.Timestamp).
		Msg("Order filled")
}

// LogOrderSubmitted logs an order accepted onto the book.
func LogOrderSubmitted(logger zerolog.Logger, order models.Order) {
	logger.Debug().
		Str("event", "order_submitted").
		Int64("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Str("kind", string(order.Kind)).
		Float64("quantity", order.Quantity).
		Msg("Order submitted")
}

// LogOrderCanceled logs an order removed from the book by the strategy.
func LogOrderCanceled(logger zerolog.Logger, orderID int64) {
	logger.Debug().
		Str("event", "order_canceled").
		Int64("order_id", orderID).
		Msg("Order canceled")
}

// LogRunComplete logs a finished backtest run.
func LogRunComplete(logger zerolog.Logger, events, fills int, finalNAV float64, elapsed time.Duration) {
	logger.Info().
		Str("event", "run_complete").
		Int("events", events).
		Int("fills", fills).
		Float64("final_nav", finalNAV).
		Dur("elapsed", elapsed).
		Msg("Backtest complete")
}
