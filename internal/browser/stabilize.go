package browser

import (
	"context"
	"strings"
	"time"
)

// loadingTitleMarkers are document titles that signal a page still rendering
// its real content behind a loading screen. Matching is case-insensitive
// substring.
var loadingTitleMarkers = []string{
	"loading",
	"carregando",
	"aguarde",
	"por favor",
}

// Probes supplies the page signals the stabilizer samples each poll. They
// are injected so the detector can be tested without a running browser.
type Probes struct {
	// InFlight returns the number of network requests currently in flight.
	InFlight func() int

	// NodeCount returns the number of DOM nodes in the document.
	NodeCount func(ctx context.Context) (int, error)

	// TextLength returns the length of the document's visible text. Catches
	// pages that mutate text in place without changing the element count.
	TextLength func(ctx context.Context) (int, error)

	// Title returns the current document title. Optional.
	Title func(ctx context.Context) (string, error)
}

// StabilizerConfig holds the stabilization thresholds.
type StabilizerConfig struct {
	// PollInterval is the time between signal samples.
	PollInterval time.Duration

	// NetIdlePolls is the number of consecutive polls with zero in-flight
	// requests required on the fast path.
	NetIdlePolls int

	// DOMStablePolls is the number of consecutive polls with unchanged DOM
	// state (node count, text length and title) required on the fast path.
	DOMStablePolls int

	// DOMOnlyPolls is the longer DOM-stability streak that declares the page
	// ready even while requests stay in flight. Pages holding a websocket or
	// long-poll connection open would otherwise never settle.
	DOMOnlyPolls int

	// Timeout forces a return after this much waiting regardless of the
	// signals.
	Timeout time.Duration
}

func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		PollInterval:   300 * time.Millisecond,
		NetIdlePolls:   2,
		DOMStablePolls: 3,
		DOMOnlyPolls:   6,
		Timeout:        60 * time.Second,
	}
}

// StabilizeResult reports how a stabilization wait ended.
type StabilizeResult struct {
	Stable  bool
	Polls   int
	Elapsed time.Duration

	// Unmet names the conditions still unsatisfied when the wait was forced
	// to return, for logging.
	Unmet []string
}

// Stabilizer decides when a rendered page has settled enough to evaluate.
// Readiness requires either (network idle AND DOM stable) for the configured
// streaks, or the longer DOM-only streak. A loading-screen title blocks
// readiness and resets both streaks.
type Stabilizer struct {
	cfg    StabilizerConfig
	probes Probes
}

func NewStabilizer(cfg StabilizerConfig, probes Probes) *Stabilizer {
	return &Stabilizer{cfg: cfg, probes: probes}
}

func (s *Stabilizer) Wait(ctx context.Context) StabilizeResult {
	start := time.Now()
	deadline := start.Add(s.cfg.Timeout)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var (
		polls        int
		netIdle      int
		domStable    int
		loadingTitle bool
	)
	lastNodes, lastText := -1, -1
	lastTitle := ""

	forced := func() StabilizeResult {
		var unmet []string
		if loadingTitle {
			unmet = append(unmet, "loading_title")
		}
		if netIdle < s.cfg.NetIdlePolls {
			unmet = append(unmet, "network_idle")
		}
		if domStable < s.cfg.DOMStablePolls {
			unmet = append(unmet, "dom_stable")
		}
		return StabilizeResult{Polls: polls, Elapsed: time.Since(start), Unmet: unmet}
	}

	for {
		select {
		case <-ctx.Done():
			return forced()
		case <-ticker.C:
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			return forced()
		}
		polls++

		title := ""
		if s.probes.Title != nil {
			title, _ = s.probes.Title(ctx)
		}
		loadingTitle = titleLooksLoading(title)

		if s.probes.InFlight != nil && s.probes.InFlight() == 0 {
			netIdle++
		} else {
			netIdle = 0
		}

		nodes, err := s.probes.NodeCount(ctx)
		text := 0
		if err == nil && s.probes.TextLength != nil {
			text, err = s.probes.TextLength(ctx)
		}
		switch {
		case err != nil:
			domStable, lastNodes, lastText = 0, -1, -1
		case nodes == lastNodes && text == lastText && title == lastTitle:
			domStable++
		default:
			domStable = 0
			lastNodes, lastText, lastTitle = nodes, text, title
		}

		if loadingTitle {
			netIdle, domStable = 0, 0
			continue
		}

		if (netIdle >= s.cfg.NetIdlePolls && domStable >= s.cfg.DOMStablePolls) ||
			domStable >= s.cfg.DOMOnlyPolls {
			return StabilizeResult{Stable: true, Polls: polls, Elapsed: time.Since(start)}
		}
	}
}

func titleLooksLoading(title string) bool {
	t := strings.ToLower(title)
	for _, marker := range loadingTitleMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}
