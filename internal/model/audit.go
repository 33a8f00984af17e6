package model

import "time"

// PageErrorType classifies why a page could not be analyzed.
type PageErrorType string

const (
	PageErrTimeout    PageErrorType = "timeout"
	PageErrSSL        PageErrorType = "ssl_error"
	PageErrConnection PageErrorType = "connection_error"
	PageErrHTTP       PageErrorType = "http_error"
	PageErrOther      PageErrorType = "other"
)

// PageVisit records one crawl/audit step. Immutable once recorded.
type PageVisit struct {
	URL        string        `json:"url"`
	HTTPStatus int           `json:"http_status,omitempty"`
	LoadTimeMs int64         `json:"load_time_ms"`
	ErrorType  PageErrorType `json:"error_type,omitempty"`
	ErrorMsg   string        `json:"error_msg,omitempty"`
	Links      []string      `json:"links,omitempty"`
}

// Broken reports whether the visit failed before rule evaluation could run.
func (v PageVisit) Broken() bool { return v.ErrorType != "" }

// Audit is a completed crawl plus aggregation. Immutable once computed; a new
// audit is a new entity, never an update of a prior one.
type Audit struct {
	ID               string      `json:"id"`
	Site             string      `json:"site"`
	Summary          Summary     `json:"summary"`
	HealthScore      int         `json:"health_score"`
	ScoringModel     string      `json:"scoring_model"`
	ProcessedPages   []string    `json:"processed_pages"`
	BrokenPagesCount int         `json:"broken_pages_count"`
	BrokenPages      []PageVisit `json:"broken_pages,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
}

// DiscoveryStrategy selects how the candidate page set is produced.
type DiscoveryStrategy string

const (
	StrategyManual  DiscoveryStrategy = "manual"
	StrategySitemap DiscoveryStrategy = "sitemap"
	StrategyCrawl   DiscoveryStrategy = "crawl"

	// StrategyMargin exhausts the sitemap first, then crawls only as far as
	// needed to reach the page target times a surplus margin. The surplus
	// lets the audit replace broken pages without re-discovering.
	StrategyMargin DiscoveryStrategy = "margin"
)

// SubdomainPolicy controls which hosts a crawl may follow links into.
type SubdomainPolicy string

const (
	SubdomainMainOnly SubdomainPolicy = "main_only"
	SubdomainAll      SubdomainPolicy = "all_subdomains"
	SubdomainSpecific SubdomainPolicy = "specific"
)

// Auth carries optional credentials injected into the browser context before
// navigation. Either field may be empty.
type Auth struct {
	BearerToken string `json:"bearer_token,omitempty"`
	RawCookies  string `json:"raw_cookies,omitempty"`
}

// AuditRequest is the inbound contract from the UI/API layer: one site, one
// discovery strategy with its parameters, and feature toggles.
type AuditRequest struct {
	Site     string            `json:"site"`
	Strategy DiscoveryStrategy `json:"strategy"`

	// Manual strategy
	URLs []string `json:"urls,omitempty"`

	// Sitemap strategy
	SitemapURL string `json:"sitemap_url,omitempty"`

	// Crawl strategy
	SeedURL     string   `json:"seed_url,omitempty"`
	MaxDepth    int      `json:"max_depth,omitempty"`
	PathScoped  bool     `json:"path_scoped,omitempty"`
	ExcludeGlob []string `json:"exclude_glob,omitempty"`

	MaxPages int `json:"max_pages,omitempty"`

	WCAGLevels        []string `json:"wcag_levels,omitempty"`
	IncludePartial    bool     `json:"include_partial,omitempty"`
	IncludeCognitive  bool     `json:"include_cognitive,omitempty"`
	CaptureScreenshot bool     `json:"capture_screenshots,omitempty"`

	Auth *Auth `json:"auth,omitempty"`

	SubdomainPolicy   SubdomainPolicy `json:"subdomain_policy,omitempty"`
	AllowedSubdomains []string        `json:"allowed_subdomains,omitempty"`
}
