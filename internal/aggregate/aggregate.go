// Package aggregate merges per-page findings across an entire crawl into
// audit-level aggregates keyed by fingerprint, tracks a bounded sample of
// unique offending elements, and detects template-repeated patterns.
package aggregate

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
)

// elementHashLen bounds how much of a finding's HTML feeds the unique-element
// key. Long templated markup differs only past this point in rare cases, and
// that is an acceptable collision for a sampling structure.
const elementHashLen = 200

// Aggregator folds (page URL, findings) pairs into AggregatedViolations.
// Not safe for concurrent use; one aggregator serves one crawl session,
// which visits pages sequentially anyway.
type Aggregator struct {
	logger logging.Logger

	groups map[string]*group
	order  []string
}

type group struct {
	agg      *model.AggregatedViolation
	pages    map[string]struct{}
	elements map[string]int // element hash -> index into agg.UniqueElements, -1 when over cap
	patterns map[string]struct{}
}

// New creates an empty Aggregator.
func New(logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Aggregator{
		logger: logger,
		groups: make(map[string]*group),
	}
}

// Add folds one page's surviving findings into the aggregates.
func (a *Aggregator) Add(pageURL string, findings []model.Finding) {
	for _, f := range findings {
		a.addOne(pageURL, f)
	}
}

func (a *Aggregator) addOne(pageURL string, f model.Finding) {
	fp := f.Fingerprint
	if fp == "" {
		fp = f.RuleID
	}

	g, ok := a.groups[fp]
	if !ok {
		g = &group{
			agg: &model.AggregatedViolation{
				Fingerprint:    fp,
				Representative: f,
			},
			pages:    make(map[string]struct{}),
			elements: make(map[string]int),
			patterns: make(map[string]struct{}),
		}
		a.groups[fp] = g
		a.order = append(a.order, fp)
	}

	g.agg.Occurrences++
	if _, seen := g.pages[pageURL]; !seen {
		g.pages[pageURL] = struct{}{}
		g.agg.PageURLs = append(g.agg.PageURLs, pageURL)
	}

	pattern := NormalizePattern(f.Selector)
	if pattern == "" {
		pattern = NormalizePattern(f.XPath)
	}
	g.patterns[pattern] = struct{}{}
	g.agg.PatternCount = len(g.patterns)

	key := elementKey(f.HTML)
	if idx, seen := g.elements[key]; seen {
		if idx >= 0 {
			el := &g.agg.UniqueElements[idx]
			el.Count++
			el.Pages = appendUnique(el.Pages, pageURL)
		}
		return
	}

	if len(g.agg.UniqueElements) >= model.MaxUniqueElements {
		// Cap reached: remember the hash so repeats are not recounted as
		// new elements, but keep the oldest-discovered sample stable.
		g.elements[key] = -1
		return
	}

	g.agg.UniqueElements = append(g.agg.UniqueElements, model.UniqueElement{
		HTML:     f.HTML,
		Selector: f.Selector,
		FullPath: f.FullPath,
		XPath:    f.XPath,
		Count:    1,
		Pages:    []string{pageURL},
	})
	g.elements[key] = len(g.agg.UniqueElements) - 1
}

// Finalize completes the aggregation: aggregates come back in first-seen
// order and the summary satisfies the audit invariants (per-severity counts
// equal the sum of matching occurrences, pattern counts per severity).
func (a *Aggregator) Finalize() ([]model.AggregatedViolation, model.Summary) {
	var sum model.Summary
	out := make([]model.AggregatedViolation, 0, len(a.order))

	for _, fp := range a.order {
		g := a.groups[fp]
		sort.Strings(g.agg.PageURLs)
		out = append(out, *g.agg)

		occ := g.agg.Occurrences
		patterns := g.agg.PatternCount
		switch g.agg.Representative.Impact {
		case model.ImpactCritical:
			sum.Critical += occ
			sum.CriticalPatterns += patterns
		case model.ImpactSerious:
			sum.Serious += occ
			sum.SeriousPatterns += patterns
		case model.ImpactModerate:
			sum.Moderate += occ
			sum.ModeratePatterns += patterns
		case model.ImpactMinor:
			sum.Minor += occ
			sum.MinorPatterns += patterns
		default:
			a.logger.Warn("finding with unknown impact counted as minor",
				logging.Field{Key: "fingerprint", Value: fp},
				logging.Field{Key: "impact", Value: string(g.agg.Representative.Impact)})
			sum.Minor += occ
			sum.MinorPatterns += patterns
		}
		sum.Total += occ
	}

	return out, sum
}

func elementKey(html string) string {
	h := fnv.New64a()
	if len(html) > elementHashLen {
		html = html[:elementHashLen]
	}
	_, _ = h.Write([]byte(html))
	return fmt.Sprintf("%x", h.Sum64())
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
