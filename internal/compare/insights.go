package compare

import "github.com/raysh454/acesso/internal/model"

// maxInsights bounds how many insight records one call returns.
const maxInsights = 4

// insightRule evaluates one condition against a comparison. Rules run in a
// fixed priority order so the most severity-relevant signal surfaces first.
type insightRule func(*model.ComparisonResult) *model.Insight

var insightRules = []insightRule{
	func(r *model.ComparisonResult) *model.Insight {
		if fixed := countFixedCritical(r); fixed >= 1 {
			return &model.Insight{
				Type:   model.InsightPositive,
				Key:    "criticalFixed",
				Params: map[string]any{"count": fixed},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if newCritical := countNewCritical(r); newCritical >= 1 {
			return &model.Insight{
				Type:   model.InsightNegative,
				Key:    "criticalIntroduced",
				Params: map[string]any{"count": newCritical},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Delta.Total >= 10 && r.Delta.HealthScore < -5 {
			return &model.Insight{
				Type:   model.InsightNegative,
				Key:    "significantRegression",
				Params: map[string]any{"totalDelta": r.Delta.Total, "scoreDelta": r.Delta.HealthScore},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Delta.HealthScore <= -5 {
			return &model.Insight{
				Type:   model.InsightNegative,
				Key:    "healthScoreDropped",
				Params: map[string]any{"delta": r.Delta.HealthScore},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Delta.HealthScore >= 5 {
			return &model.Insight{
				Type:   model.InsightPositive,
				Key:    "healthScoreImproved",
				Params: map[string]any{"delta": r.Delta.HealthScore},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Counts.Worsened > 0 {
			return &model.Insight{
				Type:   model.InsightWarning,
				Key:    "violationsWorsened",
				Params: map[string]any{"count": r.Counts.Worsened},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Counts.Fixed > 0 && r.Delta.Total < 0 {
			return &model.Insight{
				Type:   model.InsightPositive,
				Key:    "violationsFixed",
				Params: map[string]any{"count": r.Counts.Fixed, "totalDelta": r.Delta.Total},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Delta.BrokenPages > 0 {
			return &model.Insight{
				Type:   model.InsightWarning,
				Key:    "brokenPagesIncreased",
				Params: map[string]any{"count": r.Delta.BrokenPages},
			}
		}
		return nil
	},
	func(r *model.ComparisonResult) *model.Insight {
		if r.Delta.Total == 0 && r.Delta.HealthScore == 0 {
			return &model.Insight{
				Type: model.InsightNeutral,
				Key:  "noChange",
			}
		}
		return nil
	},
}

// Insights evaluates the prioritized rule list against a comparison and
// returns at most 4 insights, most relevant first. A nil comparison yields
// no insights.
func Insights(r *model.ComparisonResult) []model.Insight {
	if r == nil {
		return nil
	}
	var out []model.Insight
	for _, rule := range insightRules {
		if ins := rule(r); ins != nil {
			out = append(out, *ins)
			if len(out) == maxInsights {
				break
			}
		}
	}
	return out
}

func countFixedCritical(r *model.ComparisonResult) int {
	n := 0
	for _, v := range r.Violations.Fixed {
		if v.Representative.Impact == model.ImpactCritical {
			n += v.Occurrences
		}
	}
	// Fall back to the summary delta when the fixed list carries no
	// occurrence detail (e.g. comparisons built from summaries alone).
	if n == 0 && r.Delta.Critical < 0 && len(r.Violations.Fixed) == 0 {
		n = -r.Delta.Critical
	}
	return n
}

func countNewCritical(r *model.ComparisonResult) int {
	n := 0
	for _, v := range r.Violations.New {
		if v.Representative.Impact == model.ImpactCritical {
			n += v.Occurrences
		}
	}
	return n
}
