// Package compare classifies aggregate findings across two audits, computes
// summary deltas and time-series trends, and emits structured insight
// records. Everything here is a pure function of already-completed audits.
package compare

import (
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/acesso/internal/model"
)

// Compare derives the full comparison between a current and previous audit.
// Malformed input (nil audits or an empty previous summary with no
// violations) yields nil: "no comparison available", never an error.
func Compare(current, previous *model.Audit, curViol, prevViol []model.AggregatedViolation) *model.ComparisonResult {
	if current == nil || previous == nil {
		return nil
	}
	if previous.Summary.Total == 0 && len(prevViol) == 0 && previous.HealthScore == 0 {
		// A previous audit with no summary at all is not comparable.
		return nil
	}

	res := &model.ComparisonResult{
		CurrentAuditID:  current.ID,
		PreviousAuditID: previous.ID,
		Delta: model.Delta{
			HealthScore:  current.HealthScore - previous.HealthScore,
			Critical:     current.Summary.Critical - previous.Summary.Critical,
			Serious:      current.Summary.Serious - previous.Summary.Serious,
			Moderate:     current.Summary.Moderate - previous.Summary.Moderate,
			Minor:        current.Summary.Minor - previous.Summary.Minor,
			Total:        current.Summary.Total - previous.Summary.Total,
			PagesAudited: len(current.ProcessedPages) - len(previous.ProcessedPages),
			BrokenPages:  current.BrokenPagesCount - previous.BrokenPagesCount,
		},
	}

	res.Violations = classify(curViol, prevViol)
	res.Counts = model.ClassificationCounts{
		New:        len(res.Violations.New),
		Fixed:      len(res.Violations.Fixed),
		Persistent: len(res.Violations.Persistent),
		Worsened:   len(res.Violations.Worsened),
		Improved:   len(res.Violations.Improved),
	}
	res.HasOverallImprovement = res.Delta.HealthScore > 0 ||
		(res.Delta.Total < 0 && res.Delta.HealthScore >= 0)

	return res
}

// classify buckets every fingerprint present in either audit into exactly
// one of new/fixed/persistent/worsened/improved.
func classify(curViol, prevViol []model.AggregatedViolation) model.ClassifiedViolations {
	prev := make(map[string]model.AggregatedViolation, len(prevViol))
	for _, v := range prevViol {
		prev[v.Fingerprint] = v
	}

	var out model.ClassifiedViolations
	seen := make(map[string]struct{}, len(curViol))

	for _, cv := range curViol {
		seen[cv.Fingerprint] = struct{}{}
		pv, existed := prev[cv.Fingerprint]
		if !existed {
			out.New = append(out.New, model.ClassifiedViolation{
				AggregatedViolation: cv,
				Status:              model.StatusNew,
			})
			continue
		}

		occDelta := cv.Occurrences - pv.Occurrences
		pageDelta := len(cv.PageURLs) - len(pv.PageURLs)

		cls := model.ClassifiedViolation{
			AggregatedViolation: cv,
			OccurrenceDelta:     occDelta,
			PageDelta:           pageDelta,
			ElementDrift:        elementDrift(pv.Representative.HTML, cv.Representative.HTML),
		}

		switch {
		case occDelta > 0 || pageDelta > 0:
			cls.Status = model.StatusWorsened
			out.Worsened = append(out.Worsened, cls)
		case occDelta < 0 || pageDelta < 0:
			cls.Status = model.StatusImproved
			out.Improved = append(out.Improved, cls)
		default:
			cls.Status = model.StatusPersistent
			out.Persistent = append(out.Persistent, cls)
		}
	}

	for _, pv := range prevViol {
		if _, ok := seen[pv.Fingerprint]; ok {
			continue
		}
		out.Fixed = append(out.Fixed, model.ClassifiedViolation{
			AggregatedViolation: pv,
			Status:              model.StatusFixed,
		})
	}

	sortBySeverity(out.New)
	sortBySeverity(out.Fixed)
	sortBySeverity(out.Persistent)
	sortBySeverity(out.Worsened)
	sortBySeverity(out.Improved)

	return out
}

// sortBySeverity orders critical -> serious -> moderate -> minor, ties broken
// by original order.
func sortBySeverity(list []model.ClassifiedViolation) {
	sort.SliceStable(list, func(i, j int) bool {
		return model.ImpactRank(list[i].Representative.Impact) < model.ImpactRank(list[j].Representative.Impact)
	})
}

// elementDrift returns a compact text diff of the representative element's
// HTML between audits, empty when unchanged. Lets the dashboard show what a
// persistent defect mutated into.
func elementDrift(prevHTML, curHTML string) string {
	if prevHTML == curHTML || prevHTML == "" || curHTML == "" {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prevHTML, curHTML, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
