package discovery

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/acesso/internal/interfaces"
)

// assetExtensions are link targets a crawl never queues. Only documents are
// audited.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".css": true, ".js": true, ".json": true,
	".pdf": true, ".zip": true, ".gz": true, ".mp3": true, ".mp4": true,
	".webm": true, ".avi": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// Crawler discovers pages breadth-first by following links in the rendered
// DOM. Pages rendered by JavaScript expose links a plain HTTP fetch never
// sees, so the crawl goes through the browser session.
type Crawler struct {
	browser interfaces.Browser
	seed    string
	policy  Policy
	cfg     Config
	logger  interfaces.Logger

	// PathScope restricts the crawl to URLs whose path starts with this
	// prefix. Empty means the whole site.
	PathScope string

	// Exclude holds glob patterns matched against the URL path. Matching
	// URLs are never queued.
	Exclude []string
}

func NewCrawler(browser interfaces.Browser, seed string, policy Policy, cfg Config, logger interfaces.Logger) *Crawler {
	return &Crawler{browser: browser, seed: seed, policy: policy, cfg: cfg, logger: logger}
}

func (c *Crawler) Discover(ctx context.Context) ([]string, error) {
	type item struct {
		url   string
		depth int
	}

	seed := normalizeCandidate(c.seed)
	if seed == "" {
		return nil, fmt.Errorf("invalid seed url %q", c.seed)
	}

	queue := []item{{url: seed}}
	queued := map[string]bool{seed: true}
	var pages []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		cur := queue[0]
		queue = queue[1:]

		pages = append(pages, cur.url)
		if c.cfg.MaxPages > 0 && len(pages) >= c.cfg.MaxPages {
			break
		}

		page, _, err := c.browser.Visit(ctx, cur.url)
		if err != nil {
			// Broken pages are still reported as candidates; the audit
			// records them instead of evaluating them.
			if c.logger != nil {
				c.logger.Warn("crawl visit failed",
					interfaces.Field{Key: "url", Value: cur.url},
					interfaces.Field{Key: "error", Value: err.Error()})
			}
			continue
		}
		if cur.depth >= c.cfg.MaxDepth {
			continue
		}

		for _, link := range c.extractLinks(cur.url, page.HTML()) {
			if queued[link] {
				continue
			}
			queued[link] = true
			queue = append(queue, item{url: link, depth: cur.depth + 1})
		}
	}
	return pages, nil
}

func (c *Crawler) extractLinks(pageURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed to parse page for links",
				interfaces.Field{Key: "url", Value: pageURL})
		}
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if skippableHref(href) {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		link := normalizeCandidate(resolved.String())
		if link == "" || !c.policy.Allows(link) {
			return
		}
		if !c.inScope(resolved.Path) {
			return
		}
		links = append(links, link)
	})
	return links
}

func (c *Crawler) inScope(urlPath string) bool {
	if assetExtensions[strings.ToLower(path.Ext(urlPath))] {
		return false
	}
	if c.PathScope != "" && !strings.HasPrefix(urlPath, c.PathScope) {
		return false
	}
	for _, pattern := range c.Exclude {
		if ok, err := path.Match(pattern, urlPath); err == nil && ok {
			return false
		}
	}
	return true
}

func skippableHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:")
}
