// Package app is the composition root: it assembles the store, the browser
// session factory, the rule pipeline and the job orchestrator, and runs them
// either as a one-shot audit or behind the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/acesso/internal/audit"
	"github.com/raysh454/acesso/internal/browser"
	"github.com/raysh454/acesso/internal/cli"
	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/rules"
	"github.com/raysh454/acesso/internal/server"
	"github.com/raysh454/acesso/internal/store"
)

// Application is the global runtime state container. It holds config, parsed
// CLI args and the shared services. Pass Application into code that needs the
// global state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.Args

	Logger       logging.Logger
	Store        interfaces.Store
	Orchestrator *audit.Orchestrator

	axeScript string
}

// NewApplication wires the services from config and CLI args. The store is
// opened here; browser sessions are created per job by the runner factory.
func NewApplication(cfg *Config, args *cli.Args, logger logging.Logger) (*Application, error) {
	if cfg == nil || args == nil {
		return nil, errors.New("app requires config and args")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("acesso")
	}
	applyArgs(cfg, args)

	st, err := store.NewSQLite(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	a := &Application{
		Config: cfg,
		Args:   args,
		Logger: logger,
		Store:  st,
	}

	if script, err := os.ReadFile(cfg.AxeScriptPath); err == nil {
		a.axeScript = string(script)
	} else {
		logger.Warn("accessibility engine script not found, pages must ship it themselves",
			logging.Field{Key: "path", Value: cfg.AxeScriptPath})
	}

	a.Orchestrator = audit.NewOrchestrator(a.newRunner, logger)
	return a, nil
}

// applyArgs folds CLI overrides into the config.
func applyArgs(cfg *Config, args *cli.Args) {
	if args.ListenAddr != "" {
		cfg.ServerCfg.ListenAddr = args.ListenAddr
	}
	if args.DataDir != "" {
		cfg.DataDir = args.DataDir
		cfg.AuditCfg.ScreenshotDir = filepath.Join(args.DataDir, "screenshots")
	}
	cfg.BrowserCfg.Headless = args.Headless
	if !args.Screenshots {
		cfg.AuditCfg.ScreenshotDir = ""
	}
}

// newRunner is the per-job runner factory: one browser session per job,
// closed when the job ends.
func (a *Application) newRunner(_ context.Context, req model.AuditRequest) (*audit.Runner, func(), error) {
	session, err := browser.NewSession(a.Config.BrowserCfg, a.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("starting browser: %w", err)
	}
	if req.Auth != nil {
		session.SetAuth(*req.Auth)
	}

	pipeline, err := rules.NewPipeline(rules.NewAxeEngine(a.axeScript), rules.Config{
		IncludePartial:   req.IncludePartial,
		IncludeCognitive: req.IncludeCognitive,
		WCAGLevels:       req.WCAGLevels,
	}, a.Logger)
	if err != nil {
		session.Close()
		return nil, nil, err
	}

	discoverer, err := audit.BuildDiscoverer(req, session, a.Logger)
	if err != nil {
		session.Close()
		return nil, nil, err
	}

	runner := audit.NewRunner(session, discoverer, pipeline, a.Store, a.Logger, a.Config.AuditCfg)
	cleanup := func() {
		if err := session.Close(); err != nil {
			a.Logger.Warn("closing browser session", logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return runner, cleanup, nil
}

// RequestFromArgs translates a one-shot CLI invocation into an audit request.
func RequestFromArgs(args *cli.Args) model.AuditRequest {
	return model.AuditRequest{
		Site:              args.Site,
		Strategy:          model.DiscoveryStrategy(args.Strategy),
		URLs:              args.URLs,
		SitemapURL:        args.SitemapURL,
		SubdomainPolicy:   model.SubdomainPolicy(args.SubdomainPolicy),
		AllowedSubdomains: args.AllowedSubdomains,
		PathScoped:        args.PathScoped,
		ExcludeGlob:       args.ExcludeGlob,
		MaxPages:          args.MaxPages,
		MaxDepth:          args.MaxDepth,
		CaptureScreenshot: args.Screenshots,
	}
}

// RunOnce performs a single audit synchronously and returns the result.
func (a *Application) RunOnce(ctx context.Context, req model.AuditRequest) (*model.Audit, error) {
	runner, cleanup, err := a.newRunner(ctx, req)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	runner.Progress = func(processed, total int) {
		a.Logger.Info("audit progress",
			logging.Field{Key: "processed", Value: processed},
			logging.Field{Key: "total", Value: total})
	}

	result, _, err := runner.Run(ctx, req)
	return result, err
}

// Serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	srv, err := server.NewServer(server.Config{
		ListenAddr: a.Config.ServerCfg.ListenAddr,
		Logger:     a.Logger,
	}, a.Orchestrator, a.Store)
	if err != nil {
		return err
	}

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("api server listening",
			logging.Field{Key: "addr", Value: a.Config.ServerCfg.ListenAddr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases shared resources.
func (a *Application) Close() error {
	return a.Store.Close()
}
