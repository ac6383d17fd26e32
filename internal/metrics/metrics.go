// Package metrics derives performance statistics from a finished
// run's equity series. It is pure and stateless: safe to call
// concurrently against a read-only snapshot list.
package metrics

import "math"

// Summary holds the derived performance statistics for one run. The
// zero value (Periods == 0) means the series was too short to measure.
type Summary struct {
	Periods     int
	TotalReturn float64
	CAGR        float64
	Sharpe      float64
	Sortino     float64
	MaxDrawdown float64 // positive magnitude of the worst peak decline
}

// Empty reports whether the summary carries no measurements.
func (s Summary) Empty() bool { return s.Periods == 0 }

// Compute derives a Summary from an ordered NAV series and an
// annualization constant. Fewer than two points yields an empty
// summary rather than a division-by-zero.
func Compute(navs []float64, periodsPerYear float64) Summary {
	if len(navs) < 2 || navs[0] == 0 {
		return Summary{}
	}

	returns := Returns(navs)
	mean := mean(returns)
	std := stddev(returns, mean)

	s := Summary{
		Periods:     len(returns),
		TotalReturn: navs[len(navs)-1]/navs[0] - 1,
		MaxDrawdown: maxDrawdown(navs),
	}

	s.CAGR = math.Pow(navs[len(navs)-1]/navs[0], periodsPerYear/float64(len(returns))) - 1

	// Sharpe and Sortino are defined as 0, not NaN, on zero variance.
	if std > 0 {
		s.Sharpe = mean / std * math.Sqrt(periodsPerYear)
	}
	if down := downsideDeviation(returns); down > 0 {
		s.Sortino = mean / down * math.Sqrt(periodsPerYear)
	}

	return s
}

// Returns computes per-period simple returns from a NAV series.
func Returns(navs []float64) []float64 {
	if len(navs) < 2 {
		return nil
	}
	out := make([]float64, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		out[i-1] = (navs[i] - navs[i-1]) / navs[i-1]
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mean float64) float64 {
	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}

// downsideDeviation is the standard deviation of the negative returns
// only; zero when there are none.
func downsideDeviation(returns []float64) float64 {
	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return 0
	}
	return stddev(negatives, mean(negatives))
}

// maxDrawdown returns the most negative (nav-peak)/peak as a positive
// magnitude.
func maxDrawdown(navs []float64) float64 {
	peak := navs[0]
	var worst float64
	for _, nav := range navs {
		if nav > peak {
			peak = nav
		}
		if peak > 0 {
			dd := (nav - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return -worst
}
