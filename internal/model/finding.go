package model

// Impact is the severity tier assigned to a finding by the rule that
// produced it.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// ImpactRank orders impacts from most to least severe. Unknown impacts sort
// last so malformed engine output never outranks real findings.
func ImpactRank(i Impact) int {
	switch i {
	case ImpactCritical:
		return 0
	case ImpactSerious:
		return 1
	case ImpactModerate:
		return 2
	case ImpactMinor:
		return 3
	}
	return 4
}

// ConfidenceLevel describes how sure the pipeline is that a finding is a
// true positive.
type ConfidenceLevel string

const (
	ConfidenceCertain     ConfidenceLevel = "certain"
	ConfidenceLikely      ConfidenceLevel = "likely"
	ConfidenceNeedsReview ConfidenceLevel = "needs_review"
)

// ConfidenceSignal records one piece of context that moved a finding's
// confidence score up or down.
type ConfidenceSignal struct {
	Key    string  `json:"key"`
	Delta  float64 `json:"delta"`
	Detail string  `json:"detail,omitempty"`
}

// Finding is one raw rule violation on one page. Findings are immutable once
// produced; the pipeline only filters them out or enriches their confidence
// fields before aggregation.
type Finding struct {
	RuleID       string   `json:"rule_id"`
	IsCustomRule bool     `json:"is_custom_rule"`
	Impact       Impact   `json:"impact"`
	WCAGLevel    string   `json:"wcag_level,omitempty"`
	WCAGCriteria []string `json:"wcag_criteria,omitempty"`

	PageURL        string `json:"page_url"`
	Selector       string `json:"selector"`
	FullPath       string `json:"full_path,omitempty"`
	XPath          string `json:"xpath,omitempty"`
	HTML           string `json:"html"`
	ParentHTML     string `json:"parent_html,omitempty"`
	FailureSummary string `json:"failure_summary,omitempty"`

	// Fingerprint is the aggregation key. Currently the rule ID; element
	// disambiguation happens separately via UniqueElement hashing.
	Fingerprint string `json:"fingerprint"`

	NeedsReview     bool               `json:"needs_review,omitempty"`
	Confidence      ConfidenceLevel    `json:"confidence,omitempty"`
	ConfidenceScore float64            `json:"confidence_score,omitempty"`
	Signals         []ConfidenceSignal `json:"confidence_signals,omitempty"`

	HelpText string `json:"help_text,omitempty"`
	HelpURL  string `json:"help_url,omitempty"`
}

// UniqueElement is one distinct offending element within an aggregate,
// identified by a truncated-HTML hash.
type UniqueElement struct {
	HTML     string   `json:"html"`
	Selector string   `json:"selector"`
	FullPath string   `json:"full_path,omitempty"`
	XPath    string   `json:"xpath,omitempty"`
	Count    int      `json:"count"`
	Pages    []string `json:"pages"`
}

// MaxUniqueElements caps the unique-element sample per aggregate. The first
// 20 discovered are kept so the sample stays stable across screenshot
// correlation; later repeats only increment counts.
const MaxUniqueElements = 20

// AggregatedViolation merges every occurrence of one fingerprint across an
// entire audit.
type AggregatedViolation struct {
	Fingerprint    string          `json:"fingerprint"`
	Representative Finding         `json:"representative"`
	Occurrences    int             `json:"occurrences"`
	PageURLs       []string        `json:"page_urls"`
	UniqueElements []UniqueElement `json:"unique_elements"`

	// PatternCount is the number of distinct structural patterns among the
	// unique elements once positional selector indices are wildcarded. It is
	// what should drive perceived effort to fix, not raw occurrences.
	PatternCount int `json:"pattern_count"`

	Priority      int    `json:"priority"`
	ScreenshotRef string `json:"screenshot_ref,omitempty"`
}

// Summary holds audit-level severity counts. Per-severity counts always equal
// the sum of the matching AggregatedViolation occurrences.
type Summary struct {
	Critical int `json:"critical"`
	Serious  int `json:"serious"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
	Total    int `json:"total"`

	// Unique pattern counts per severity, used by the health-score model.
	CriticalPatterns int `json:"critical_patterns"`
	SeriousPatterns  int `json:"serious_patterns"`
	ModeratePatterns int `json:"moderate_patterns"`
	MinorPatterns    int `json:"minor_patterns"`
}

// BySeverity returns the raw occurrence count for an impact tier.
func (s Summary) BySeverity(i Impact) int {
	switch i {
	case ImpactCritical:
		return s.Critical
	case ImpactSerious:
		return s.Serious
	case ImpactModerate:
		return s.Moderate
	case ImpactMinor:
		return s.Minor
	}
	return 0
}

// PatternsBySeverity returns the unique-pattern count for an impact tier.
func (s Summary) PatternsBySeverity(i Impact) int {
	switch i {
	case ImpactCritical:
		return s.CriticalPatterns
	case ImpactSerious:
		return s.SeriousPatterns
	case ImpactModerate:
		return s.ModeratePatterns
	case ImpactMinor:
		return s.MinorPatterns
	}
	return 0
}
