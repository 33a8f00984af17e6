package aggregate

import "regexp"

// Pattern normalization collapses positional and index artifacts in a
// selector or XPath so template-repeated instances of the same structural
// defect group together: N broken cards in a listing become one pattern.

var (
	nthRe = regexp.MustCompile(`:nth-(?:child|of-type|last-child|last-of-type)\(\d+\)`)

	// numeric suffixes on ids and class names: #item-3, .card_12, .row4
	idSuffixRe    = regexp.MustCompile(`(#[A-Za-z][\w-]*?)[-_]?\d+\b`)
	classSuffixRe = regexp.MustCompile(`(\.[A-Za-z][\w-]*?)[-_]?\d+\b`)

	// numeric attribute values: [data-index="3"], [id='42']
	attrNumRe = regexp.MustCompile(`(\[[\w-]+[*^$~|]?=["']?)\d+(["']?\])`)

	// XPath positional predicates: /li[3]
	xpathIdxRe = regexp.MustCompile(`\[\d+\]`)
)

// NormalizePattern rewrites a selector or XPath with positional indices
// wildcarded. Idempotent: normalizing a normalized pattern is a no-op.
func NormalizePattern(selector string) string {
	if selector == "" {
		return ""
	}
	out := nthRe.ReplaceAllString(selector, "")
	out = xpathIdxRe.ReplaceAllString(out, "[*]")
	out = idSuffixRe.ReplaceAllString(out, "$1*")
	out = classSuffixRe.ReplaceAllString(out, "$1*")
	out = attrNumRe.ReplaceAllString(out, "$1*$2")
	return out
}
