package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
)

// Predicate answers "is this specific finding certainly not a violation?"
// for one finding. Reason is a stable identifier kept for diagnostics.
type Predicate struct {
	Reason string
	Match  func(f model.Finding) bool
}

// Filter is an ordered pipeline of independent predicates. A finding is
// dropped when any predicate matches; the union of matched reasons is
// logged, the finding itself is gone, not retried.
type Filter struct {
	predicates []Predicate
	logger     logging.Logger
}

// NewFilter builds the default false-positive filter.
func NewFilter(logger logging.Logger) *Filter {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Filter{
		logger:     logger.With(logging.Field{Key: "component", Value: "fp-filter"}),
		predicates: defaultPredicates(),
	}
}

// Apply returns the findings that survived every predicate.
func (f *Filter) Apply(pageURL string, findings []model.Finding) []model.Finding {
	out := findings[:0]
	for _, finding := range findings {
		reasons := f.matchedReasons(finding)
		if len(reasons) == 0 {
			out = append(out, finding)
			continue
		}
		f.logger.Debug("finding filtered as false positive",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "rule", Value: finding.RuleID},
			logging.Field{Key: "reasons", Value: reasons})
	}
	return out
}

// MatchedReasons exposes predicate evaluation for tests and diagnostics.
func (f *Filter) MatchedReasons(finding model.Finding) []string {
	return f.matchedReasons(finding)
}

func (f *Filter) matchedReasons(finding model.Finding) []string {
	var reasons []string
	for _, p := range f.predicates {
		if p.Match(finding) {
			reasons = append(reasons, p.Reason)
		}
	}
	return reasons
}

var (
	hiddenStyleRe  = regexp.MustCompile(`(?i)style\s*=\s*["'][^"']*(display\s*:\s*none|visibility\s*:\s*hidden)`)
	emptyAltRe     = regexp.MustCompile(`(?i)<img[^>]*\salt\s*=\s*(""|'')`)
	srOnlyRe       = regexp.MustCompile(`(?i)class\s*=\s*["'][^"']*(sr-only|visually-hidden|screen-reader)`)
	externalIconRe = regexp.MustCompile(`(?i)(external-link|icon-external|fa-external|launch|open_in_new)`)
)

func defaultPredicates() []Predicate {
	return []Predicate{
		{
			Reason: "element_hidden",
			Match: func(f model.Finding) bool {
				h := f.HTML
				return hiddenStyleRe.MatchString(h) ||
					strings.Contains(strings.ToLower(h), `aria-hidden="true"`) ||
					regexp.MustCompile(`(?i)<\w+[^>]*\shidden[\s>]`).MatchString(h)
			},
		},
		{
			Reason: "element_hidden_by_parent",
			Match: func(f model.Finding) bool {
				return f.ParentHTML != "" && hiddenStyleRe.MatchString(firstTag(f.ParentHTML))
			},
		},
		{
			// Empty alt plus image rules means intentionally decorative.
			Reason: "image_empty_alt_intentional",
			Match: func(f model.Finding) bool {
				if !strings.Contains(f.RuleID, "image") && !strings.Contains(f.RuleID, "img") {
					return false
				}
				return emptyAltRe.MatchString(f.HTML) ||
					strings.Contains(strings.ToLower(f.HTML), `role="presentation"`) ||
					strings.Contains(strings.ToLower(f.HTML), `role="none"`)
			},
		},
		{
			// New-tab warnings: an external-link icon or screen-reader-only
			// warning next to the link suppresses the finding.
			Reason: "new_tab_has_warning",
			Match: func(f model.Finding) bool {
				if !strings.Contains(f.RuleID, "target-blank") && !strings.Contains(f.RuleID, "new-tab") {
					return false
				}
				ctxHTML := f.HTML + f.ParentHTML
				return externalIconRe.MatchString(ctxHTML) || srOnlyRe.MatchString(ctxHTML)
			},
		},
		{
			// Short justified blocks read fine; under 100 characters the
			// spacing artifacts never materialize.
			Reason: "justified_text_too_short",
			Match: func(f model.Finding) bool {
				if !strings.Contains(f.RuleID, "justified") {
					return false
				}
				return len(visibleText(f.HTML)) < 100
			},
		},
		{
			// Helper and caption text is conventionally smaller; a small
			// font there is a design choice, not a defect.
			Reason: "helper_text_small_font",
			Match: func(f model.Finding) bool {
				if !strings.Contains(f.RuleID, "font") && !strings.Contains(f.RuleID, "text-size") {
					return false
				}
				lower := strings.ToLower(f.HTML + f.ParentHTML)
				return strings.Contains(lower, "<small") || strings.Contains(lower, "<caption") ||
					strings.Contains(lower, "figcaption") || strings.Contains(lower, `class="help`) ||
					strings.Contains(lower, "form-text")
			},
		},
	}
}

var tagStripRe = regexp.MustCompile(`<[^>]*>`)

// visibleText approximates the rendered text of an HTML snippet.
func visibleText(html string) string {
	return strings.TrimSpace(tagStripRe.ReplaceAllString(html, " "))
}

// firstTag returns only the opening tag of a snippet, so parent checks do
// not match styles of nested children.
func firstTag(html string) string {
	if i := strings.Index(html, ">"); i >= 0 {
		return html[:i+1]
	}
	return html
}
