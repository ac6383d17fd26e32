// Package store provides persistence for finished backtest runs.
package store

import (
	"context"
	"time"

	"quantbt/internal/metrics"
	"quantbt/internal/models"
)

// RunRecord describes one completed backtest run.
type RunRecord struct {
	ID           string
	Strategy     string
	Symbol       string
	StartedAt    time.Time
	FinishedAt   time.Time
	StartingCash float64
	FinalNAV     float64
	Metrics      metrics.Summary
	Config       string // JSON blob of the run parameters
}

// RunFilter restricts run queries.
type RunFilter struct {
	Strategy string
	Symbol   string
	Limit    int
}

// ResultStore persists completed runs with their fill logs and equity
// curves.
type ResultStore interface {
	SaveRun(ctx context.Context, run *RunRecord, fills []models.Fill, curve []models.AccountSnapshot) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)
	GetFills(ctx context.Context, runID string) ([]models.Fill, error)
	GetEquityCurve(ctx context.Context, runID string) ([]models.AccountSnapshot, error)
	Close() error
}
