// Package audit runs complete accessibility audits: discovery, sequential
// page evaluation through one browser session, aggregation and scoring. It
// also manages audit jobs for the API layer.
package audit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/acesso/internal/aggregate"
	"github.com/raysh454/acesso/internal/discovery"
	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/score"
)

// Analyzer evaluates one stabilized page and returns its surviving findings.
type Analyzer interface {
	Analyze(ctx context.Context, page interfaces.Page) ([]model.Finding, error)
}

type Config struct {
	// ScreenshotBudget is the total time allowed for all screenshot capture
	// in one audit. Capture failures degrade the audit, never fail it.
	ScreenshotBudget time.Duration

	// ScreenshotDir is where captured element screenshots are written.
	// Empty disables capture even when the request asks for it.
	ScreenshotDir string
}

func DefaultConfig() Config {
	return Config{ScreenshotBudget: 15 * time.Second}
}

// Runner executes one audit end to end.
type Runner struct {
	browser    interfaces.Browser
	discoverer interfaces.Discoverer
	analyzer   Analyzer
	store      interfaces.Store
	scoring    score.Config
	logger     interfaces.Logger
	cfg        Config

	// Progress, when set, is called after every page visit.
	Progress func(processed, total int)
}

func NewRunner(browser interfaces.Browser, discoverer interfaces.Discoverer, analyzer Analyzer,
	store interfaces.Store, logger interfaces.Logger, cfg Config) *Runner {
	return &Runner{
		browser:    browser,
		discoverer: discoverer,
		analyzer:   analyzer,
		store:      store,
		scoring:    score.DefaultConfig(),
		logger:     logger,
		cfg:        cfg,
	}
}

// Run performs the audit. Broken pages are recorded and excluded from
// evaluation; only discovery failure or cancellation fails the whole run.
func (r *Runner) Run(ctx context.Context, req model.AuditRequest) (*model.Audit, []model.AggregatedViolation, error) {
	started := time.Now().UTC()

	pages, err := r.discoverer.Discover(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery failed: %w", err)
	}
	if len(pages) == 0 {
		return nil, nil, errors.New("discovery produced no pages")
	}
	r.logger.Info("discovery finished",
		interfaces.Field{Key: "site", Value: req.Site},
		interfaces.Field{Key: "pages", Value: len(pages)})

	// Margin discovery hands back a surplus so broken pages can be replaced;
	// evaluation itself never exceeds the requested page count.
	budget := req.MaxPages
	if budget <= 0 {
		budget = discovery.DefaultConfig().MaxPages
	}

	agg := aggregate.New(r.logger)
	var processed []string
	var broken []model.PageVisit

	for i, pageURL := range pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if len(processed) >= budget {
			break
		}

		page, meta, err := r.browser.Visit(ctx, pageURL)
		if err != nil {
			errType, status := ClassifyPageError(err, meta.HTTPStatus)
			broken = append(broken, model.PageVisit{
				URL:        pageURL,
				HTTPStatus: status,
				LoadTimeMs: meta.LoadTimeMs,
				ErrorType:  errType,
				ErrorMsg:   err.Error(),
			})
			r.logger.Warn("page excluded from evaluation",
				interfaces.Field{Key: "url", Value: pageURL},
				interfaces.Field{Key: "error_type", Value: string(errType)},
				interfaces.Field{Key: "error", Value: err.Error()})
			r.reportProgress(i+1, len(pages))
			continue
		}

		findings, err := r.analyzer.Analyze(ctx, page)
		if err != nil {
			broken = append(broken, model.PageVisit{
				URL:        pageURL,
				HTTPStatus: meta.HTTPStatus,
				LoadTimeMs: meta.LoadTimeMs,
				ErrorType:  model.PageErrOther,
				ErrorMsg:   err.Error(),
			})
			r.logger.Warn("page evaluation failed",
				interfaces.Field{Key: "url", Value: pageURL},
				interfaces.Field{Key: "error", Value: err.Error()})
			r.reportProgress(i+1, len(pages))
			continue
		}

		agg.Add(pageURL, findings)
		processed = append(processed, pageURL)
		r.reportProgress(i+1, len(pages))
	}

	violations, summary := agg.Finalize()
	for i := range violations {
		violations[i].Priority = r.scoring.Priority(
			violations[i].Representative.Impact,
			violations[i].Occurrences,
			len(violations[i].PageURLs))
	}

	audit := &model.Audit{
		ID:               uuid.New().String(),
		Site:             req.Site,
		Summary:          summary,
		HealthScore:      r.scoring.Health(summary),
		ScoringModel:     score.ScoringModelCurrent,
		ProcessedPages:   processed,
		BrokenPagesCount: len(broken),
		BrokenPages:      broken,
		StartedAt:        started,
		FinishedAt:       time.Now().UTC(),
	}

	if req.CaptureScreenshot {
		r.captureScreenshots(ctx, audit.ID, violations)
	}

	if r.store != nil {
		if err := r.store.SaveAudit(ctx, audit); err != nil {
			r.logger.Error("failed to persist audit",
				interfaces.Field{Key: "audit_id", Value: audit.ID},
				interfaces.Field{Key: "error", Value: err.Error()})
		} else if err := r.store.SaveViolations(ctx, audit.ID, violations); err != nil {
			r.logger.Error("failed to persist violations",
				interfaces.Field{Key: "audit_id", Value: audit.ID},
				interfaces.Field{Key: "error", Value: err.Error()})
		}
	}

	r.logger.Info("audit finished",
		interfaces.Field{Key: "audit_id", Value: audit.ID},
		interfaces.Field{Key: "health_score", Value: audit.HealthScore},
		interfaces.Field{Key: "violations", Value: summary.Total},
		interfaces.Field{Key: "broken_pages", Value: len(broken)})
	return audit, violations, nil
}

func (r *Runner) reportProgress(processed, total int) {
	if r.Progress != nil {
		r.Progress(processed, total)
	}
}

func (r *Runner) captureScreenshots(ctx context.Context, auditID string, violations []model.AggregatedViolation) {
	if r.cfg.ScreenshotDir == "" {
		return
	}
	if err := os.MkdirAll(r.cfg.ScreenshotDir, 0755); err != nil {
		r.logger.Warn("screenshot directory unavailable",
			interfaces.Field{Key: "error", Value: err.Error()})
		return
	}

	budgetCtx, cancel := context.WithTimeout(ctx, r.cfg.ScreenshotBudget)
	defer cancel()

	for i := range violations {
		if budgetCtx.Err() != nil {
			r.logger.Debug("screenshot budget exhausted",
				interfaces.Field{Key: "captured", Value: i})
			return
		}
		if !r.browser.Alive() {
			r.logger.Warn("browser gone, skipping remaining screenshots")
			return
		}
		selector := violations[i].Representative.Selector
		if selector == "" {
			continue
		}
		img, err := r.browser.Screenshot(budgetCtx, selector)
		if err != nil {
			r.logger.Debug("screenshot failed",
				interfaces.Field{Key: "selector", Value: selector},
				interfaces.Field{Key: "error", Value: err.Error()})
			continue
		}
		name := fmt.Sprintf("%s_%d.png", auditID, i)
		if err := os.WriteFile(filepath.Join(r.cfg.ScreenshotDir, name), img, 0644); err != nil {
			r.logger.Warn("failed to write screenshot",
				interfaces.Field{Key: "file", Value: name},
				interfaces.Field{Key: "error", Value: err.Error()})
			continue
		}
		violations[i].ScreenshotRef = name
	}
}

func sitemapSeed(req model.AuditRequest, seed string) string {
	if req.SitemapURL != "" {
		return req.SitemapURL
	}
	return seed
}

// BuildDiscoverer assembles the discovery strategy an audit request asks for.
func BuildDiscoverer(req model.AuditRequest, browser interfaces.Browser, logger interfaces.Logger) (interfaces.Discoverer, error) {
	seed := req.SeedURL
	if seed == "" {
		seed = req.Site
	}
	policy, err := discovery.NewPolicy(seed, req.SubdomainPolicy, req.AllowedSubdomains)
	if err != nil {
		return nil, err
	}

	cfg := discovery.DefaultConfig()
	if req.MaxPages > 0 {
		cfg.MaxPages = req.MaxPages
	}
	if req.MaxDepth > 0 {
		cfg.MaxDepth = req.MaxDepth
	}

	newCrawler := func() *discovery.Crawler {
		c := discovery.NewCrawler(browser, seed, policy, cfg, logger)
		c.Exclude = req.ExcludeGlob
		if req.PathScoped {
			if u, err := url.Parse(seed); err == nil && u.Path != "" && u.Path != "/" {
				c.PathScope = u.Path
			}
		}
		return c
	}

	switch req.Strategy {
	case model.StrategyManual:
		if len(req.URLs) == 0 {
			return nil, errors.New("manual strategy requires a url list")
		}
		return discovery.NewManual(req.URLs, policy, cfg), nil
	case model.StrategySitemap:
		// Sitemap discovery never touches the browser.
		return discovery.NewSitemap(sitemapSeed(req, seed), policy, cfg, logger), nil
	case model.StrategyMargin:
		sitemap := discovery.NewSitemap(sitemapSeed(req, seed), policy, cfg, logger)
		return discovery.NewWithMargin(sitemap, newCrawler(), cfg.MaxPages, cfg, logger), nil
	case model.StrategyCrawl, "":
		return newCrawler(), nil
	}
	return nil, fmt.Errorf("unknown discovery strategy %q", req.Strategy)
}
