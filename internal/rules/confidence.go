package rules

import (
	"strings"

	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
)

// ElementContext is what a confidence adjuster may inspect: the offending
// element's markup and location. Plain data only; adjusters never touch the
// live page.
type ElementContext struct {
	HTML       string
	ParentHTML string
	Selector   string
	PageURL    string
}

// Adjustment is a signed confidence delta in [-1, 1] with supporting
// signals. Level, when set, overrides the threshold-derived level.
type Adjustment struct {
	Delta   float64
	Level   model.ConfidenceLevel
	Signals []model.ConfidenceSignal
}

// RuleConfidence is the static per-rule configuration: a base level and
// score plus an optional context-dependent adjuster.
type RuleConfidence struct {
	Level  model.ConfidenceLevel
	Score  float64
	Adjust func(ctx ElementContext) Adjustment
}

// ConfidenceTable maps rule IDs to their confidence configuration. Built
// once at process start and injected into the scorer, never ambient state,
// so tests can substitute alternate tables.
type ConfidenceTable map[string]RuleConfidence

// Defaults for rules without explicit configuration.
const (
	defaultEngineScore = 0.95
	defaultCustomScore = 0.85
)

// Level thresholds applied to the final score.
const (
	certainThreshold = 0.9
	likelyThreshold  = 0.7
)

// DefaultConfidenceTable returns the calibrated per-rule knowledge table.
func DefaultConfidenceTable() ConfidenceTable {
	return ConfidenceTable{
		// Contrast results mislead on elements with background images the
		// engine cannot sample.
		"color-contrast": {
			Level: model.ConfidenceLikely,
			Score: 0.8,
			Adjust: func(ctx ElementContext) Adjustment {
				lower := strings.ToLower(ctx.HTML + ctx.ParentHTML)
				if strings.Contains(lower, "background-image") || strings.Contains(lower, "gradient") {
					return Adjustment{
						Delta: -0.3,
						Signals: []model.ConfidenceSignal{{
							Key:    "background_image_present",
							Delta:  -0.3,
							Detail: "contrast sampled against an image background",
						}},
					}
				}
				return Adjustment{}
			},
		},

		"acesso-generic-link-text": {
			Level: model.ConfidenceLikely,
			Score: 0.85,
			Adjust: func(ctx ElementContext) Adjustment {
				// Surrounding heading or list context often disambiguates
				// the destination for sighted and AT users alike.
				lower := strings.ToLower(ctx.ParentHTML)
				if strings.Contains(lower, "<h1") || strings.Contains(lower, "<h2") ||
					strings.Contains(lower, "<h3") {
					return Adjustment{
						Delta: -0.2,
						Signals: []model.ConfidenceSignal{{
							Key:    "heading_context",
							Delta:  -0.2,
							Detail: "link sits under a heading that may provide context",
						}},
					}
				}
				return Adjustment{}
			},
		},

		"acesso-image-alt-filename": {
			Level: model.ConfidenceCertain,
			Score: 0.95,
		},

		// Site-wide inference from one page: self-reports as low confidence
		// without being excluded outright.
		"acesso-libras-plugin-missing": {
			Level: model.ConfidenceNeedsReview,
			Score: 0.5,
		},

		"acesso-justified-text": {
			Level: model.ConfidenceLikely,
			Score: 0.8,
		},

		"acesso-uppercase-text": {
			Level: model.ConfidenceLikely,
			Score: 0.75,
			Adjust: func(ctx ElementContext) Adjustment {
				// CSS text-transform renders the source caps moot; the markup
				// may be sentence case underneath.
				if strings.Contains(strings.ToLower(ctx.HTML), "text-transform") {
					return Adjustment{
						Delta: -0.2,
						Level: model.ConfidenceNeedsReview,
						Signals: []model.ConfidenceSignal{{
							Key:    "text_transform_present",
							Delta:  -0.2,
							Detail: "capitalization may come from CSS, not content",
						}},
					}
				}
				return Adjustment{}
			},
		},
	}
}

// ConfidenceScorer computes the final confidence of each finding from the
// injected table.
type ConfidenceScorer struct {
	table  ConfidenceTable
	logger logging.Logger
}

// NewConfidenceScorer builds a scorer over a table.
func NewConfidenceScorer(table ConfidenceTable, logger logging.Logger) *ConfidenceScorer {
	if logger == nil {
		logger = logging.Nop{}
	}
	if table == nil {
		table = ConfidenceTable{}
	}
	return &ConfidenceScorer{table: table, logger: logger}
}

// Score fills the finding's confidence fields in place:
// final = clamp(base + delta, 0, 1); the level is the adjuster's explicit
// override when given, else derived from the final score by thresholds.
func (cs *ConfidenceScorer) Score(f *model.Finding) {
	rc, ok := cs.table[f.RuleID]
	if !ok {
		if f.IsCustomRule {
			rc = RuleConfidence{Level: model.ConfidenceLikely, Score: defaultCustomScore}
		} else {
			rc = RuleConfidence{Level: model.ConfidenceCertain, Score: defaultEngineScore}
		}
	}

	score := rc.Score
	var override model.ConfidenceLevel

	if rc.Adjust != nil {
		adj := rc.Adjust(ElementContext{
			HTML:       f.HTML,
			ParentHTML: f.ParentHTML,
			Selector:   f.Selector,
			PageURL:    f.PageURL,
		})
		if adj.Delta < -1 || adj.Delta > 1 {
			cs.logger.Warn("confidence adjustment out of range, ignoring",
				logging.Field{Key: "rule", Value: f.RuleID},
				logging.Field{Key: "delta", Value: adj.Delta})
		} else {
			score += adj.Delta
			f.Signals = append(f.Signals, adj.Signals...)
		}
		override = adj.Level
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	f.ConfidenceScore = score
	switch {
	case override != "":
		f.Confidence = override
	case score >= certainThreshold:
		f.Confidence = model.ConfidenceCertain
	case score >= likelyThreshold:
		f.Confidence = model.ConfidenceLikely
	default:
		f.Confidence = model.ConfidenceNeedsReview
	}

	if f.NeedsReview && f.Confidence == model.ConfidenceCertain {
		// Partial-detection findings never claim certainty.
		f.Confidence = model.ConfidenceLikely
	}
}
