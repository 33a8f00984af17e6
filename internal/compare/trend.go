package compare

import "github.com/raysh454/acesso/internal/model"

// trendThreshold is the percent change past which a series counts as moving.
const trendThreshold = 5.0

// Trend compares the first and last value of a series (oldest -> newest):
// up when the percent change exceeds +5%, down below -5%, else stable.
// A two-point trend, deliberately not a regression fit.
func Trend(series []float64) model.TrendDirection {
	if len(series) < 2 {
		return model.TrendStable
	}
	first := series[0]
	last := series[len(series)-1]

	var pct float64
	switch {
	case first != 0:
		pct = (last - first) / first * 100
	case last > 0:
		pct = 100
	case last < 0:
		pct = -100
	}

	switch {
	case pct > trendThreshold:
		return model.TrendUp
	case pct < -trendThreshold:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// HealthTrend extracts the health-score series from audits ordered oldest
// first and returns its direction.
func HealthTrend(audits []model.Audit) model.TrendDirection {
	series := make([]float64, 0, len(audits))
	for _, a := range audits {
		series = append(series, float64(a.HealthScore))
	}
	return Trend(series)
}
