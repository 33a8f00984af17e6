package browser

import (
	"context"
	"testing"
	"time"
)

func testStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		PollInterval:   time.Millisecond,
		NetIdlePolls:   2,
		DOMStablePolls: 3,
		DOMOnlyPolls:   6,
		Timeout:        100 * time.Millisecond,
	}
}

func constantProbes(inflight, nodes int, title string) Probes {
	return Probes{
		InFlight:   func() int { return inflight },
		NodeCount:  func(context.Context) (int, error) { return nodes, nil },
		TextLength: func(context.Context) (int, error) { return nodes * 10, nil },
		Title:      func(context.Context) (string, error) { return title, nil },
	}
}

func TestStabilizeQuietPage(t *testing.T) {
	s := NewStabilizer(testStabilizerConfig(), constantProbes(0, 120, "Minha Página"))
	res := s.Wait(context.Background())
	if !res.Stable {
		t.Fatalf("quiet page should stabilize, unmet=%v", res.Unmet)
	}
	// First poll seeds the node count, three more build the DOM streak.
	if res.Polls != 4 {
		t.Fatalf("polls = %d, want 4", res.Polls)
	}
}

func TestStabilizeDOMOnlyWithOpenConnection(t *testing.T) {
	// A page holding a websocket open never reaches network idle but the DOM
	// streak alone declares it ready.
	s := NewStabilizer(testStabilizerConfig(), constantProbes(1, 80, "Painel"))
	res := s.Wait(context.Background())
	if !res.Stable {
		t.Fatalf("DOM-only path should stabilize, unmet=%v", res.Unmet)
	}
	if res.Polls != 7 {
		t.Fatalf("polls = %d, want 7", res.Polls)
	}
}

func TestStabilizeLoadingTitleHoldsReadiness(t *testing.T) {
	cfg := testStabilizerConfig()
	cfg.Timeout = 20 * time.Millisecond

	s := NewStabilizer(cfg, constantProbes(0, 50, "Carregando..."))
	res := s.Wait(context.Background())
	if res.Stable {
		t.Fatalf("loading screen must block readiness")
	}
	if !contains(res.Unmet, "loading_title") {
		t.Fatalf("unmet = %v, want loading_title reported", res.Unmet)
	}
}

func TestStabilizeLoadingTitleThenSettles(t *testing.T) {
	polls := 0
	probes := Probes{
		InFlight:  func() int { return 0 },
		NodeCount: func(context.Context) (int, error) { return 200, nil },
		Title: func(context.Context) (string, error) {
			polls++
			if polls <= 5 {
				return "Aguarde, por favor", nil
			}
			return "Resultados da Busca", nil
		},
	}
	s := NewStabilizer(testStabilizerConfig(), probes)
	res := s.Wait(context.Background())
	if !res.Stable {
		t.Fatalf("page should stabilize after the loading screen clears, unmet=%v", res.Unmet)
	}
	if res.Polls <= 5 {
		t.Fatalf("polls = %d, readiness must not be declared during the loading screen", res.Polls)
	}
}

func TestStabilizeTimeoutReportsUnmetConditions(t *testing.T) {
	cfg := testStabilizerConfig()
	cfg.Timeout = 20 * time.Millisecond

	nodes := 0
	probes := Probes{
		InFlight: func() int { return 0 },
		NodeCount: func(context.Context) (int, error) {
			nodes++
			return nodes, nil
		},
		Title: func(context.Context) (string, error) { return "Feed", nil },
	}
	res := NewStabilizer(cfg, probes).Wait(context.Background())
	if res.Stable {
		t.Fatalf("ever-growing DOM must not stabilize")
	}
	if !contains(res.Unmet, "dom_stable") {
		t.Fatalf("unmet = %v, want dom_stable", res.Unmet)
	}
	if contains(res.Unmet, "network_idle") {
		t.Fatalf("network was idle the whole time, unmet = %v", res.Unmet)
	}
}

func TestStabilizeTextMutationHoldsReadiness(t *testing.T) {
	// A streaming page can rewrite text nodes in place without the element
	// count ever moving. That must still count as DOM churn.
	cfg := testStabilizerConfig()
	cfg.Timeout = 20 * time.Millisecond

	textLen := 0
	probes := Probes{
		InFlight:  func() int { return 0 },
		NodeCount: func(context.Context) (int, error) { return 300, nil },
		TextLength: func(context.Context) (int, error) {
			textLen += 7
			return textLen, nil
		},
		Title: func(context.Context) (string, error) { return "Cotações", nil },
	}
	res := NewStabilizer(cfg, probes).Wait(context.Background())
	if res.Stable {
		t.Fatalf("page with mutating text must not stabilize")
	}
	if !contains(res.Unmet, "dom_stable") {
		t.Fatalf("unmet = %v, want dom_stable", res.Unmet)
	}
}

func TestStabilizeAfterTextSettles(t *testing.T) {
	textPolls := 0
	probes := Probes{
		InFlight:  func() int { return 0 },
		NodeCount: func(context.Context) (int, error) { return 300, nil },
		TextLength: func(context.Context) (int, error) {
			textPolls++
			if textPolls <= 3 {
				return textPolls * 50, nil
			}
			return 200, nil
		},
		Title: func(context.Context) (string, error) { return "Cotações", nil },
	}
	res := NewStabilizer(testStabilizerConfig(), probes).Wait(context.Background())
	if !res.Stable {
		t.Fatalf("page should stabilize once text settles, unmet=%v", res.Unmet)
	}
	if res.Polls <= 4 {
		t.Fatalf("polls = %d, readiness must wait out the text churn", res.Polls)
	}
}

func TestStabilizeContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewStabilizer(testStabilizerConfig(), constantProbes(0, 10, "")).Wait(ctx)
	if res.Stable {
		t.Fatalf("canceled context must not report stable")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
