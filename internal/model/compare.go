package model

// Delta is the signed difference of every summary field between two audits.
// No clamping: a regression yields negative health-score delta.
type Delta struct {
	HealthScore  int `json:"health_score"`
	Critical     int `json:"critical"`
	Serious      int `json:"serious"`
	Moderate     int `json:"moderate"`
	Minor        int `json:"minor"`
	Total        int `json:"total"`
	PagesAudited int `json:"pages_audited"`
	BrokenPages  int `json:"broken_pages"`
}

// ViolationStatus classifies one fingerprint across two audits.
type ViolationStatus string

const (
	StatusNew        ViolationStatus = "new"
	StatusFixed      ViolationStatus = "fixed"
	StatusPersistent ViolationStatus = "persistent"
	StatusWorsened   ViolationStatus = "worsened"
	StatusImproved   ViolationStatus = "improved"
)

// ClassifiedViolation pairs an aggregate with its cross-audit status. For
// worsened/improved entries the occurrence and page deltas are filled in, and
// ElementDrift carries a text diff of the representative element when it
// changed between audits.
type ClassifiedViolation struct {
	AggregatedViolation
	Status          ViolationStatus `json:"status"`
	OccurrenceDelta int             `json:"occurrence_delta,omitempty"`
	PageDelta       int             `json:"page_delta,omitempty"`
	ElementDrift    string          `json:"element_drift,omitempty"`
}

// ClassificationCounts summarizes how many fingerprints landed in each bucket.
type ClassificationCounts struct {
	New        int `json:"new"`
	Fixed      int `json:"fixed"`
	Persistent int `json:"persistent"`
	Worsened   int `json:"worsened"`
	Improved   int `json:"improved"`
}

// ClassifiedViolations holds the five disjoint classification lists, each
// sorted critical first.
type ClassifiedViolations struct {
	New        []ClassifiedViolation `json:"new"`
	Fixed      []ClassifiedViolation `json:"fixed"`
	Persistent []ClassifiedViolation `json:"persistent"`
	Worsened   []ClassifiedViolation `json:"worsened"`
	Improved   []ClassifiedViolation `json:"improved"`
}

// ComparisonResult is a pure function of two audits, never stored as
// independent state.
type ComparisonResult struct {
	CurrentAuditID  string               `json:"current_audit_id"`
	PreviousAuditID string               `json:"previous_audit_id"`
	Delta           Delta                `json:"delta"`
	Violations      ClassifiedViolations `json:"violations"`
	Counts          ClassificationCounts `json:"counts"`

	HasOverallImprovement bool `json:"has_overall_improvement"`
}

// InsightType tags the tone of a generated insight.
type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightNegative InsightType = "negative"
	InsightWarning  InsightType = "warning"
	InsightNeutral  InsightType = "neutral"
)

// Insight is a structured, translatable message seed. Locale rendering is
// entirely the caller's responsibility; the core only emits type/key/params.
type Insight struct {
	Type   InsightType    `json:"type"`
	Key    string         `json:"key"`
	Params map[string]any `json:"params,omitempty"`
}

// TrendDirection is a two-point trend over a time series, not a regression fit.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)
