package rules

import (
	"testing"

	"github.com/raysh454/acesso/internal/model"
)

func TestConfidenceDefaults(t *testing.T) {
	cs := NewConfidenceScorer(ConfidenceTable{}, nil)

	engine := model.Finding{RuleID: "unknown-engine-rule"}
	cs.Score(&engine)
	if engine.Confidence != model.ConfidenceCertain || engine.ConfidenceScore != 0.95 {
		t.Fatalf("engine default = %s/%.2f, want certain/0.95", engine.Confidence, engine.ConfidenceScore)
	}

	custom := model.Finding{RuleID: "unknown-custom-rule", IsCustomRule: true}
	cs.Score(&custom)
	if custom.Confidence != model.ConfidenceLikely || custom.ConfidenceScore != 0.85 {
		t.Fatalf("custom default = %s/%.2f, want likely/0.85", custom.Confidence, custom.ConfidenceScore)
	}
}

func TestConfidenceThresholds(t *testing.T) {
	table := ConfidenceTable{
		"hi":  {Level: model.ConfidenceCertain, Score: 0.92},
		"mid": {Level: model.ConfidenceCertain, Score: 0.75},
		"lo":  {Level: model.ConfidenceCertain, Score: 0.4},
	}
	cs := NewConfidenceScorer(table, nil)

	tests := []struct {
		rule string
		want model.ConfidenceLevel
	}{
		{"hi", model.ConfidenceCertain},
		{"mid", model.ConfidenceLikely},
		{"lo", model.ConfidenceNeedsReview},
	}
	for _, tt := range tests {
		f := model.Finding{RuleID: tt.rule}
		cs.Score(&f)
		if f.Confidence != tt.want {
			t.Fatalf("rule %s level = %s, want %s", tt.rule, f.Confidence, tt.want)
		}
	}
}

func TestConfidenceAdjusterClampAndSignals(t *testing.T) {
	table := ConfidenceTable{
		"adj": {
			Level: model.ConfidenceLikely,
			Score: 0.8,
			Adjust: func(ctx ElementContext) Adjustment {
				return Adjustment{
					Delta:   -0.95,
					Signals: []model.ConfidenceSignal{{Key: "test_signal", Delta: -0.95}},
				}
			},
		},
		"over": {
			Level: model.ConfidenceLikely,
			Score: 0.9,
			Adjust: func(ctx ElementContext) Adjustment {
				return Adjustment{Delta: 0.5}
			},
		},
	}
	cs := NewConfidenceScorer(table, nil)

	down := model.Finding{RuleID: "adj"}
	cs.Score(&down)
	if down.ConfidenceScore != 0 {
		t.Fatalf("score should clamp to 0, got %.2f", down.ConfidenceScore)
	}
	if down.Confidence != model.ConfidenceNeedsReview {
		t.Fatalf("clamped score should derive needs_review, got %s", down.Confidence)
	}
	if len(down.Signals) != 1 || down.Signals[0].Key != "test_signal" {
		t.Fatalf("signals should be carried onto the finding")
	}

	up := model.Finding{RuleID: "over"}
	cs.Score(&up)
	if up.ConfidenceScore != 1 {
		t.Fatalf("score should clamp to 1, got %.2f", up.ConfidenceScore)
	}
}

func TestConfidenceExplicitOverride(t *testing.T) {
	table := ConfidenceTable{
		"ovr": {
			Level: model.ConfidenceCertain,
			Score: 0.95,
			Adjust: func(ctx ElementContext) Adjustment {
				return Adjustment{Delta: 0, Level: model.ConfidenceNeedsReview}
			},
		},
	}
	cs := NewConfidenceScorer(table, nil)
	f := model.Finding{RuleID: "ovr"}
	cs.Score(&f)
	if f.Confidence != model.ConfidenceNeedsReview {
		t.Fatalf("explicit override must win over thresholds, got %s", f.Confidence)
	}
}

func TestPartialFindingNeverCertain(t *testing.T) {
	cs := NewConfidenceScorer(ConfidenceTable{}, nil)
	f := model.Finding{RuleID: "engine-rule", NeedsReview: true}
	cs.Score(&f)
	if f.Confidence == model.ConfidenceCertain {
		t.Fatalf("needsReview finding must not be certain")
	}
}

func TestLibrasRuleSelfReportsLowConfidence(t *testing.T) {
	cs := NewConfidenceScorer(DefaultConfidenceTable(), nil)
	f := model.Finding{RuleID: "acesso-libras-plugin-missing", IsCustomRule: true}
	cs.Score(&f)
	if f.Confidence != model.ConfidenceNeedsReview {
		t.Fatalf("libras rule should be needs_review, got %s", f.Confidence)
	}
}
