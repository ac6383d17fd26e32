package models

import "time"

// AccountSnapshot is one point on the equity curve, appended after
// every processed event.
type AccountSnapshot struct {
	Timestamp time.Time
	Cash      float64
	Equity    float64 // mark-to-market value of open positions
	NAV       float64 // Cash + Equity
	Drawdown  float64 // NAV minus running peak NAV, always <= 0
}
