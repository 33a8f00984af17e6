package interfaces

import "context"

// Discoverer produces the candidate page set for one audit. Implementations
// are interchangeable strategies (manual list, sitemap fetch, breadth-first
// crawl); all return normalized, deduplicated URLs capped at the configured
// page budget.
type Discoverer interface {
	Discover(ctx context.Context) ([]string, error)
}
