package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/acesso/internal/interfaces"
)

// conventionalSitemapPaths are probed in order when the seed does not point
// at a sitemap directly.
var conventionalSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/wp-sitemap.xml",
}

// maxSitemapDepth bounds sitemapindex recursion.
const maxSitemapDepth = 3

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Sitemap discovers pages from the site's XML sitemap. Index files are
// followed recursively; nested sitemaps outside the site are ignored.
type Sitemap struct {
	client *http.Client
	seed   string
	policy Policy
	cap    int
	logger interfaces.Logger
}

func NewSitemap(seed string, policy Policy, cfg Config, logger interfaces.Logger) *Sitemap {
	return &Sitemap{
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		seed:   seed,
		policy: policy,
		cap:    cfg.MaxPages,
		logger: logger,
	}
}

func (s *Sitemap) Discover(ctx context.Context) ([]string, error) {
	candidates, err := s.sitemapCandidates()
	if err != nil {
		return nil, err
	}

	var pages []string
	for _, sm := range candidates {
		found, err := s.fetch(ctx, sm, 0)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("sitemap not usable",
					interfaces.Field{Key: "url", Value: sm},
					interfaces.Field{Key: "error", Value: err.Error()})
			}
			continue
		}
		if len(found) > 0 {
			pages = found
			break
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no usable sitemap found for %s", s.seed)
	}
	return dedupe(pages, s.cap), nil
}

// sitemapCandidates returns the sitemap URLs to try. A seed that already
// names an XML document is used as is, otherwise the conventional paths on
// the seed's origin are probed.
func (s *Sitemap) sitemapCandidates() ([]string, error) {
	u, err := url.Parse(s.seed)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid seed url %q", s.seed)
	}
	if strings.HasSuffix(u.Path, ".xml") {
		return []string{s.seed}, nil
	}
	origin := u.Scheme + "://" + u.Host
	out := make([]string, 0, len(conventionalSitemapPaths))
	for _, p := range conventionalSitemapPaths {
		out = append(out, origin+p)
	}
	return out, nil
}

func (s *Sitemap) fetch(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth > maxSitemapDepth {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap fetch returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// An index file lists further sitemaps rather than pages.
	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var pages []string
		for _, child := range index.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			nested, err := s.fetch(ctx, loc, depth+1)
			if err != nil {
				if s.logger != nil {
					s.logger.Debug("nested sitemap failed",
						interfaces.Field{Key: "url", Value: loc},
						interfaces.Field{Key: "error", Value: err.Error()})
				}
				continue
			}
			pages = append(pages, nested...)
			if s.cap > 0 && len(pages) >= s.cap {
				break
			}
		}
		return pages, nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}
	var pages []string
	for _, entry := range set.URLs {
		u := normalizeCandidate(strings.TrimSpace(entry.Loc))
		if u == "" || !s.policy.Allows(u) {
			continue
		}
		pages = append(pages, u)
	}
	return pages, nil
}
