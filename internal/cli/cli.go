// Package cli parses the command-line arguments for the acesso binary. Parsing
// is deterministic and never reads os.Args directly so tests can pass
// arbitrary slices.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Args are the command-line arguments controlling one audit run or the API
// server.
type Args struct {
	// Serve switches to API-server mode; Site is ignored there.
	Serve      bool
	ListenAddr string

	// Site is the root URL to audit (required unless serving).
	Site string

	// Strategy selects discovery: crawl, sitemap, manual or margin.
	Strategy string

	// URLs is the explicit page list for the manual strategy.
	URLs []string

	SitemapURL        string
	SubdomainPolicy   string
	AllowedSubdomains []string
	PathScoped        bool
	ExcludeGlob       []string

	MaxPages int
	MaxDepth int

	// DataDir is where the SQLite database and screenshots live.
	DataDir string

	Screenshots bool
	Headless    bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns Args.
func ParseArgs(args []string) (*Args, error) {
	fs := flag.NewFlagSet("acesso", flag.ContinueOnError)
	var (
		serve       = fs.Bool("serve", false, "Run the HTTP API server instead of a one-shot audit")
		listenAddr  = fs.String("listen", ":8080", "API server listen address")
		site        = fs.String("site", "", "Root URL to audit (required unless -serve)")
		strategy    = fs.String("strategy", "crawl", "Discovery strategy: crawl|sitemap|manual|margin")
		urls        = fs.String("urls", "", "Comma-separated page list for the manual strategy")
		sitemapURL  = fs.String("sitemap", "", "Explicit sitemap URL (sitemap strategy)")
		subdomains  = fs.String("subdomains", "main_only", "Subdomain policy: main_only|all_subdomains|specific")
		allowed     = fs.String("allowed-subdomains", "", "Comma-separated subdomain labels (specific policy)")
		pathScoped  = fs.Bool("path-scoped", false, "Restrict the crawl to the seed URL's path prefix")
		exclude     = fs.String("exclude", "", "Comma-separated path globs to exclude from the crawl")
		maxPages    = fs.Int("max-pages", 0, "Page cap for discovery (0=use default)")
		maxDepth    = fs.Int("depth", 0, "Crawl depth limit (0=use default)")
		dataDir     = fs.String("data-dir", "", "Directory for the audit database and screenshots")
		screenshots = fs.Bool("screenshots", false, "Capture element screenshots for violations")
		headless    = fs.Bool("headless", true, "Run the browser headless")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if !*serve && strings.TrimSpace(*site) == "" {
		return nil, fmt.Errorf("missing required -site argument")
	}

	return &Args{
		Serve:             *serve,
		ListenAddr:        *listenAddr,
		Site:              strings.TrimSpace(*site),
		Strategy:          *strategy,
		URLs:              splitList(*urls),
		SitemapURL:        *sitemapURL,
		SubdomainPolicy:   *subdomains,
		AllowedSubdomains: splitList(*allowed),
		PathScoped:        *pathScoped,
		ExcludeGlob:       splitList(*exclude),
		MaxPages:          *maxPages,
		MaxDepth:          *maxDepth,
		DataDir:           *dataDir,
		Screenshots:       *screenshots,
		Headless:          *headless,
		RawArgs:           args,
	}, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
