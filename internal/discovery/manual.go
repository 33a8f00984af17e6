package discovery

import "context"

// Manual discovers nothing: it normalizes a caller-supplied URL list,
// applies the policy and the cap.
type Manual struct {
	urls   []string
	policy Policy
	cap    int
}

func NewManual(urls []string, policy Policy, cfg Config) *Manual {
	return &Manual{urls: urls, policy: policy, cap: cfg.MaxPages}
}

func (m *Manual) Discover(_ context.Context) ([]string, error) {
	normalized := make([]string, 0, len(m.urls))
	for _, raw := range m.urls {
		u := normalizeCandidate(raw)
		if u == "" || !m.policy.Allows(u) {
			continue
		}
		normalized = append(normalized, u)
	}
	return dedupe(normalized, m.cap), nil
}
