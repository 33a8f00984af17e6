package score

import "github.com/raysh454/acesso/internal/model"

// Legacy linear penalty weights, kept read-only so audits computed under the
// old model keep rendering with their original score. Do not rescore
// historical audits with the pass/fail model.
var legacyPenalty = map[model.Impact]float64{
	model.ImpactCritical: 10,
	model.ImpactSerious:  5,
	model.ImpactModerate: 2,
	model.ImpactMinor:    1,
}

const legacyMaxPenalty = 500.0

// LegacyHealth is the historical linear formula:
// 100 - weightedPenalty/maxPenalty*100, floored at 0.
func LegacyHealth(s model.Summary) int {
	penalty := float64(s.Critical)*legacyPenalty[model.ImpactCritical] +
		float64(s.Serious)*legacyPenalty[model.ImpactSerious] +
		float64(s.Moderate)*legacyPenalty[model.ImpactModerate] +
		float64(s.Minor)*legacyPenalty[model.ImpactMinor]

	score := 100 - int(penalty/legacyMaxPenalty*100)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
