package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

// Engine is the external accessibility rule engine, invoked as a black box:
// given a loaded page and the requested conformance tags it returns a list
// of impact-tagged violations with element targets. Its failure propagates
// as a page-level error; it is the only pipeline step allowed to do so.
type Engine interface {
	Run(ctx context.Context, page interfaces.Page, wcagLevels []string) ([]model.Finding, error)
}

// axeResult mirrors the engine's wire format coming back across the
// in-page evaluation boundary.
type axeResult struct {
	Violations []struct {
		ID      string   `json:"id"`
		Impact  string   `json:"impact"`
		Tags    []string `json:"tags"`
		Help    string   `json:"help"`
		HelpURL string   `json:"helpUrl"`
		Nodes   []struct {
			HTML           string   `json:"html"`
			Target         []string `json:"target"`
			XPath          []string `json:"xpath"`
			FailureSummary string   `json:"failureSummary"`
			Ancestry       []string `json:"ancestry"`
		} `json:"nodes"`
	} `json:"violations"`
}

// AxeEngine drives the axe-core script inside the page. Script is the
// engine's bundled source; it is injected verbatim and the run options are
// serialized in, results serialized out. Nothing else crosses the boundary.
type AxeEngine struct {
	Script string

	// MaxSnippet truncates node HTML snippets carried into findings.
	MaxSnippet int
}

// NewAxeEngine wraps the bundled engine source.
func NewAxeEngine(script string) *AxeEngine {
	return &AxeEngine{Script: script, MaxSnippet: 1000}
}

// Run injects the engine, executes it with WCAG tags derived from the
// requested levels, and maps its violations into findings.
func (e *AxeEngine) Run(ctx context.Context, page interfaces.Page, wcagLevels []string) ([]model.Finding, error) {
	if e.Script != "" {
		var ok bool
		if err := page.Eval(ctx, e.Script+"; typeof axe !== 'undefined'", &ok); err != nil {
			return nil, fmt.Errorf("injecting engine script: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("engine script did not define axe")
		}
	}

	tags, err := json.Marshal(tagsForLevels(wcagLevels))
	if err != nil {
		return nil, err
	}

	expr := fmt.Sprintf(`axe.run(document, {runOnly: {type: "tag", values: %s}})`, tags)

	var res axeResult
	if err := page.Eval(ctx, expr, &res); err != nil {
		return nil, fmt.Errorf("running engine: %w", err)
	}

	return e.mapFindings(page.URL(), res, wcagLevels), nil
}

func (e *AxeEngine) mapFindings(pageURL string, res axeResult, wcagLevels []string) []model.Finding {
	maxSnippet := e.MaxSnippet
	if maxSnippet <= 0 {
		maxSnippet = 1000
	}

	var out []model.Finding
	for _, v := range res.Violations {
		criteria := criteriaFromTags(v.Tags)
		for _, n := range v.Nodes {
			f := model.Finding{
				RuleID:         v.ID,
				Impact:         model.Impact(v.Impact),
				WCAGLevel:      levelFromTags(v.Tags),
				WCAGCriteria:   criteria,
				PageURL:        pageURL,
				HTML:           truncate(n.HTML, maxSnippet),
				FailureSummary: n.FailureSummary,
				Fingerprint:    v.ID,
				HelpText:       v.Help,
				HelpURL:        v.HelpURL,
			}
			if len(n.Target) > 0 {
				f.Selector = n.Target[0]
			}
			if len(n.Ancestry) > 0 {
				f.FullPath = n.Ancestry[0]
			}
			if len(n.XPath) > 0 {
				f.XPath = n.XPath[0]
			}
			out = append(out, f)
		}
	}
	return out
}

// tagsForLevels maps requested conformance levels to the engine's tag names.
func tagsForLevels(levels []string) []string {
	if len(levels) == 0 {
		levels = []string{"A", "AA"}
	}
	var tags []string
	for _, l := range levels {
		switch strings.ToUpper(strings.TrimSpace(l)) {
		case "A":
			tags = append(tags, "wcag2a", "wcag21a")
		case "AA":
			tags = append(tags, "wcag2aa", "wcag21aa")
		case "AAA":
			tags = append(tags, "wcag2aaa")
		}
	}
	return tags
}

func levelFromTags(tags []string) string {
	level := ""
	for _, t := range tags {
		switch {
		case strings.HasSuffix(t, "aaa"):
			return "AAA"
		case strings.HasSuffix(t, "aa"):
			level = "AA"
		case level == "" && (t == "wcag2a" || t == "wcag21a"):
			level = "A"
		}
	}
	return level
}

// criteriaFromTags extracts success-criterion tags like wcag111 -> 1.1.1.
func criteriaFromTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if !strings.HasPrefix(t, "wcag") {
			continue
		}
		digits := t[len("wcag"):]
		if len(digits) < 3 || strings.ContainsAny(digits, "abcdefghijklmnopqrstuvwxyz") {
			continue
		}
		// wcag143 -> 1.4.3, wcag1410 -> 1.4.10
		out = append(out, fmt.Sprintf("%c.%c.%s", digits[0], digits[1], digits[2:]))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
