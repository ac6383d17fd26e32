// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// FormatMoney formats an amount with thousands separators.
func FormatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var groups []string
	for n > 3 {
		groups = append([]string{s[n-3:]}, groups...)
		s = s[:n-3]
		n = len(s)
	}
	return s + "," + strings.Join(groups, ",")
}

// FormatPercent formats a fractional value as a signed percentage.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value*100)
}

// FormatPnL formats P&L with an explicit sign.
func FormatPnL(pnl float64) string {
	formatted := FormatMoney(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatQuantity formats a quantity, trimming a fractional part of
// zero.
func FormatQuantity(qty float64) string {
	if qty == float64(int64(qty)) {
		return groupThousands(fmt.Sprintf("%d", int64(qty)))
	}
	return fmt.Sprintf("%.4f", qty)
}

// FormatCompact formats a number in compact form (K/M/B).
func FormatCompact(amount float64) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", amount/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", amount/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", amount/1e3)
	}
	return fmt.Sprintf("%.2f", amount)
}
