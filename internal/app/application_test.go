package app

import (
	"path/filepath"
	"testing"

	"github.com/raysh454/acesso/internal/cli"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/testutil"
)

func TestNewApplicationWiresServices(t *testing.T) {
	cfg := DefaultConfig()
	args := &cli.Args{
		Site:     "https://example.com",
		DataDir:  t.TempDir(),
		Headless: true,
	}

	a, err := NewApplication(cfg, args, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	defer a.Close()

	if a.Store == nil || a.Orchestrator == nil {
		t.Fatal("store and orchestrator must be wired")
	}
	if cfg.DataDir != args.DataDir {
		t.Errorf("DataDir override not applied: %q", cfg.DataDir)
	}
	if want := filepath.Join(args.DataDir, "screenshots"); args.Screenshots && cfg.AuditCfg.ScreenshotDir != want {
		t.Errorf("ScreenshotDir = %q, want %q", cfg.AuditCfg.ScreenshotDir, want)
	}
}

func TestRequestFromArgs(t *testing.T) {
	args := &cli.Args{
		Site:              "https://example.com.br",
		Strategy:          "manual",
		URLs:              []string{"https://example.com.br/a"},
		SubdomainPolicy:   "specific",
		AllowedSubdomains: []string{"blog"},
		MaxPages:          20,
		Screenshots:       true,
	}

	req := RequestFromArgs(args)
	if req.Site != args.Site {
		t.Errorf("Site = %q", req.Site)
	}
	if req.Strategy != model.StrategyManual {
		t.Errorf("Strategy = %q", req.Strategy)
	}
	if req.SubdomainPolicy != model.SubdomainSpecific {
		t.Errorf("SubdomainPolicy = %q", req.SubdomainPolicy)
	}
	if len(req.URLs) != 1 || req.MaxPages != 20 || !req.CaptureScreenshot {
		t.Errorf("unexpected request: %+v", req)
	}
}
