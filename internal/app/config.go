package app

import (
	"os"
	"path/filepath"

	"github.com/raysh454/acesso/internal/audit"
	"github.com/raysh454/acesso/internal/browser"
	"github.com/raysh454/acesso/internal/server"
)

// Config aggregates the runtime configuration of every wired component.
type Config struct {
	ServerCfg server.Config

	// DataDir is the base path for the audit database and screenshots.
	DataDir string

	// AxeScriptPath points at the bundled accessibility engine source that
	// gets injected into every audited page. Missing file means pages must
	// already ship the engine themselves.
	AxeScriptPath string

	BrowserCfg browser.Config
	AuditCfg   audit.Config
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		ServerCfg: server.Config{
			ListenAddr: ":8080",
		},
		DataDir:       dataDir,
		AxeScriptPath: filepath.Join("assets", "axe.min.js"),
		BrowserCfg:    browser.DefaultConfig(),
		AuditCfg: audit.Config{
			ScreenshotBudget: audit.DefaultConfig().ScreenshotBudget,
			ScreenshotDir:    filepath.Join(dataDir, "screenshots"),
		},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "acesso")
	}
	return ".acesso"
}
