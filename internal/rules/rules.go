// Package rules runs the per-page evaluation pipeline: the external
// accessibility engine, the custom Brazilian-accessibility rule set, the
// opt-in partial-detection rules, then false-positive filtering and
// confidence scoring over the combined findings.
package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
)

// Rule is one independent DOM predicate check with a uniform contract.
// Rules are registered as a list of polymorphic values executed uniformly so
// they can be added or removed without touching the pipeline.
//
// Check receives both the Page handle (for in-page evaluation across the
// serialization boundary) and a pre-parsed document for read-only DOM
// queries. Checks must be side-effect free; they run concurrently over the
// same snapshot.
type Rule interface {
	ID() string
	Impact() model.Impact
	WCAGCriteria() []string
	Check(ctx context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error)
}

// Config toggles optional rule sets per audit request.
type Config struct {
	IncludePartial   bool
	IncludeCognitive bool
	WCAGLevels       []string
}

// DefaultConfig enables only the always-on custom rule set.
func DefaultConfig() Config {
	return Config{WCAGLevels: []string{"A", "AA"}}
}

// Pipeline evaluates one loaded, stabilized page.
type Pipeline struct {
	engine  Engine
	custom  []Rule
	partial []Rule
	filter  *Filter
	scorer  *ConfidenceScorer
	cfg     Config
	logger  logging.Logger
}

// NewPipeline wires the pipeline. engine must be non-nil; its failure is the
// only step that aborts a page's analysis. A nil filter or scorer falls back
// to the defaults.
func NewPipeline(engine Engine, cfg Config, logger logging.Logger) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("rules: nil engine")
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	p := &Pipeline{
		engine: engine,
		cfg:    cfg,
		filter: NewFilter(logger),
		scorer: NewConfidenceScorer(DefaultConfidenceTable(), logger),
		logger: logger.With(logging.Field{Key: "component", Value: "rule-pipeline"}),
	}

	p.custom = CustomRules(cfg.IncludeCognitive)
	if cfg.IncludePartial {
		p.partial = PartialRules()
	}
	return p, nil
}

// SetScorer replaces the confidence table, letting tests substitute
// alternate lookup data.
func (p *Pipeline) SetScorer(s *ConfidenceScorer) { p.scorer = s }

// Analyze runs the full pipeline over one page. The external engine's
// failure aborts the page; every custom or partial rule failing is caught,
// logged and treated as zero findings from that rule.
func (p *Pipeline) Analyze(ctx context.Context, page interfaces.Page) ([]model.Finding, error) {
	engineFindings, err := p.engine.Run(ctx, page, p.cfg.WCAGLevels)
	if err != nil {
		return nil, fmt.Errorf("accessibility engine failed for %s: %w", page.URL(), err)
	}

	findings := engineFindings

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(page.HTML()))
	if docErr != nil {
		p.logger.Warn("could not parse rendered HTML, skipping custom rules",
			logging.Field{Key: "url", Value: page.URL()},
			logging.Field{Key: "error", Value: docErr.Error()})
	} else {
		findings = append(findings, p.runRuleSet(ctx, page, doc, p.custom, false)...)
		findings = append(findings, p.runRuleSet(ctx, page, doc, p.partial, true)...)
	}

	findings = p.filter.Apply(page.URL(), findings)

	for i := range findings {
		p.scorer.Score(&findings[i])
		if findings[i].Fingerprint == "" {
			findings[i].Fingerprint = findings[i].RuleID
		}
	}

	return findings, nil
}

// runRuleSet executes independent read-only rules concurrently and joins
// them before confidence scoring proceeds.
func (p *Pipeline) runRuleSet(ctx context.Context, page interfaces.Page, doc *goquery.Document, set []Rule, needsReview bool) []model.Finding {
	if len(set) == 0 {
		return nil
	}

	var (
		mu  sync.Mutex
		out []model.Finding
		wg  sync.WaitGroup
	)

	for _, r := range set {
		wg.Add(1)
		go func(r Rule) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					p.logger.Error("rule panicked",
						logging.Field{Key: "rule", Value: r.ID()},
						logging.Field{Key: "url", Value: page.URL()},
						logging.Field{Key: "panic", Value: fmt.Sprint(rec)})
				}
			}()

			fs, err := r.Check(ctx, page, doc)
			if err != nil {
				p.logger.Warn("rule failed, treating as zero findings",
					logging.Field{Key: "rule", Value: r.ID()},
					logging.Field{Key: "url", Value: page.URL()},
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			for i := range fs {
				fs[i].IsCustomRule = true
				fs[i].NeedsReview = fs[i].NeedsReview || needsReview
				if fs[i].PageURL == "" {
					fs[i].PageURL = page.URL()
				}
			}
			mu.Lock()
			out = append(out, fs...)
			mu.Unlock()
		}(r)
	}

	wg.Wait()
	return out
}
