// Package score derives the 0-100 health score of an audit and the 0-100
// priority of a single aggregate finding from severity-weighted counts.
package score

import (
	"math"

	"github.com/raysh454/acesso/internal/model"
)

// Config holds the scoring constants. The pass/fail proportions and weights
// are calibration heuristics, not derived facts; they are injected so tests
// can substitute alternate tables.
type Config struct {
	// BaselineRules is the assumed total rule count an audit exercises.
	BaselineRules int

	// PassSplit distributes the estimated passing rules across severities
	// (critical, serious, moderate; minor takes the remainder), in percent.
	PassSplit [3]int

	// PassWeight and FailWeight per severity, critical first. A failing rule
	// weighs roughly twice its passing counterpart.
	PassWeight [4]float64
	FailWeight [4]float64

	// PriorityBase maps impact to the base priority contribution.
	PriorityBase map[model.Impact]int
}

// DefaultConfig returns the calibrated scoring constants.
func DefaultConfig() Config {
	return Config{
		BaselineRules: 100,
		PassSplit:     [3]int{30, 40, 20},
		PassWeight:    [4]float64{10, 7, 3, 1},
		FailWeight:    [4]float64{20, 14, 6, 2},
		PriorityBase: map[model.Impact]int{
			model.ImpactCritical: 40,
			model.ImpactSerious:  30,
			model.ImpactModerate: 20,
			model.ImpactMinor:    10,
		},
	}
}

// Priority computes the 0-100 priority of one aggregate:
// base(impact) + min(occurrences*2, 30) + min(pages*3, 30), clamped to 100.
// Monotonically non-decreasing in occurrences and page count.
func (c Config) Priority(impact model.Impact, occurrences, pageCount int) int {
	p := c.PriorityBase[impact]
	p += min(occurrences*2, 30)
	p += min(pageCount*3, 30)
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// Health computes the audit health score with the pass/fail-rule model:
// failed rules are derived from unique pattern counts (falling back to raw
// occurrence counts when patterns are zero but occurrences are not), passing
// rules are the remainder of the baseline distributed by PassSplit, and the
// score is the weighted passing share. A zero-violation audit scores 100; a
// non-empty violation set can never reach 100.
func (c Config) Health(s model.Summary) int {
	if s.Total == 0 {
		return 100
	}

	impacts := []model.Impact{model.ImpactCritical, model.ImpactSerious, model.ImpactModerate, model.ImpactMinor}

	failed := [4]float64{}
	totalFailed := 0
	for i, imp := range impacts {
		n := s.PatternsBySeverity(imp)
		if n == 0 && s.BySeverity(imp) > 0 {
			n = s.BySeverity(imp)
		}
		failed[i] = float64(n)
		totalFailed += n
	}

	passedTotal := c.BaselineRules - totalFailed
	if passedTotal < 0 {
		passedTotal = 0
	}

	var weightedPassed, weightedFailed float64
	remainder := passedTotal
	for i := range impacts {
		var passed int
		if i < 3 {
			passed = passedTotal * c.PassSplit[i] / 100
			remainder -= passed
		} else {
			passed = remainder
		}
		weightedPassed += float64(passed) * c.PassWeight[i]
		weightedFailed += failed[i] * c.FailWeight[i]
	}

	if weightedPassed+weightedFailed == 0 {
		return 100
	}

	score := int(math.Round(weightedPassed / (weightedPassed + weightedFailed) * 100))
	// Violations present: never report a perfect score.
	if score > 99 {
		score = 99
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ScoringModelCurrent tags audits scored with the pass/fail model; historical
// audits carry ScoringModelLegacy and must never be rescored.
const (
	ScoringModelCurrent = "passfail/v1"
	ScoringModelLegacy  = "linear/v0"
)
