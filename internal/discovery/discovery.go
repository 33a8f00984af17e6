// Package discovery turns one seed URL into the list of pages an audit will
// evaluate. Three strategies exist: a manual list, sitemap parsing and a
// rendered-DOM crawl. All of them normalize candidates, enforce the
// subdomain policy and respect the page cap.
package discovery

import (
	"fmt"
	"net/url"
	"time"

	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/urlutil"
)

type Config struct {
	// MaxPages caps how many URLs any strategy may return.
	MaxPages int

	// MaxDepth bounds the crawl BFS. Depth 0 is the seed itself.
	MaxDepth int

	// Margin is the overshoot factor for combined discovery. Discovering
	// slightly more than requested absorbs pages that later turn out broken.
	Margin float64

	// HTTPTimeout bounds each sitemap fetch.
	HTTPTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxPages:    500,
		MaxDepth:    3,
		Margin:      1.5,
		HTTPTimeout: 15 * time.Second,
	}
}

// Policy decides which hosts belong to the audited site.
type Policy struct {
	mode     model.SubdomainPolicy
	allowed  map[string]bool
	seedHost string
	base     string
}

func NewPolicy(seedURL string, mode model.SubdomainPolicy, allowedSubdomains []string) (Policy, error) {
	u, err := url.Parse(seedURL)
	if err != nil || u.Hostname() == "" {
		return Policy{}, fmt.Errorf("invalid seed url %q", seedURL)
	}
	if mode == "" {
		mode = model.SubdomainMainOnly
	}
	allowed := make(map[string]bool, len(allowedSubdomains))
	for _, s := range allowedSubdomains {
		allowed[s] = true
	}
	return Policy{
		mode:     mode,
		allowed:  allowed,
		seedHost: u.Hostname(),
		base:     urlutil.BaseDomain(u.Hostname()),
	}, nil
}

// Allows reports whether candidate (a full URL) is in scope. Out-of-scope
// candidates are dropped silently.
func (p Policy) Allows(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	// The seed's own host is always in scope. This also covers IP hosts,
	// which have no meaningful base domain.
	if host == p.seedHost {
		return true
	}
	if urlutil.BaseDomain(host) != p.base {
		return false
	}
	switch p.mode {
	case model.SubdomainAll:
		return true
	case model.SubdomainSpecific:
		label := urlutil.SubdomainLabel(host, p.base)
		return label == "" || p.allowed[label]
	default: // main_only
		return urlutil.StripCommonPrefix(host) == p.base
	}
}

// normalizeCandidate returns the normalized form of raw, or "" when it is
// not an http(s) URL worth auditing.
func normalizeCandidate(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return urlutil.Normalize(raw)
}

// dedupe keeps first occurrences in order, up to cap (0 means unlimited).
func dedupe(urls []string, cap int) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if cap > 0 && len(out) == cap {
			break
		}
	}
	return out
}
