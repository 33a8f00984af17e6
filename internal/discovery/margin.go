package discovery

import (
	"context"

	"github.com/raysh454/acesso/internal/interfaces"
)

// WithMargin combines sitemap and crawl discovery: the sitemap is cheap and
// tried first, the crawl fills in up to target times the margin. The
// overshoot leaves room for pages that later fail to load.
type WithMargin struct {
	sitemap interfaces.Discoverer
	crawler interfaces.Discoverer
	target  int
	margin  float64
	logger  interfaces.Logger
}

func NewWithMargin(sitemap, crawler interfaces.Discoverer, target int, cfg Config, logger interfaces.Logger) *WithMargin {
	margin := cfg.Margin
	if margin < 1 {
		margin = 1
	}
	return &WithMargin{
		sitemap: sitemap,
		crawler: crawler,
		target:  target,
		margin:  margin,
		logger:  logger,
	}
}

func (w *WithMargin) Discover(ctx context.Context) ([]string, error) {
	budget := int(float64(w.target) * w.margin)
	if budget <= 0 {
		budget = w.target
	}

	pages, err := w.sitemap.Discover(ctx)
	if err != nil {
		if w.logger != nil {
			w.logger.Info("sitemap discovery unavailable, falling back to crawl",
				interfaces.Field{Key: "error", Value: err.Error()})
		}
		pages = nil
	}
	if len(pages) >= budget {
		return pages[:budget], nil
	}

	crawled, err := w.crawler.Discover(ctx)
	if err != nil && len(pages) == 0 {
		return nil, err
	}
	return dedupe(append(pages, crawled...), budget), nil
}
