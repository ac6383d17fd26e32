package engine

import (
	"time"

	"quantbt/internal/models"
)

// equityRecorder appends one account snapshot per processed event and
// tracks the running NAV peak for drawdown. The snapshot sequence is
// append-only; duplicate timestamps simply produce consecutive
// snapshots.
type equityRecorder struct {
	peak      float64
	hasPeak   bool
	snapshots []models.AccountSnapshot
}

func (r *equityRecorder) record(ts time.Time, cash, equity float64) {
	nav := cash + equity
	if !r.hasPeak || nav > r.peak {
		r.peak = nav
		r.hasPeak = true
	}
	r.snapshots = append(r.snapshots, models.AccountSnapshot{
		Timestamp: ts,
		Cash:      cash,
		Equity:    equity,
		NAV:       nav,
		Drawdown:  nav - r.peak,
	})
}
