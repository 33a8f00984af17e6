// Package browser drives a headless Chrome session through chromedp. One
// Session is held for a whole crawl and pages are navigated sequentially.
// Each visit waits for the page to stabilize before handing it to rule
// evaluation, so single-page applications are rendered, not just fetched.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

type Config struct {
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	PageTimeout       time.Duration
	EvalTimeout       time.Duration
	ScreenshotTimeout time.Duration
	Stabilizer        StabilizerConfig
}

func DefaultConfig() Config {
	return Config{
		Headless:          true,
		WindowWidth:       1366,
		WindowHeight:      900,
		PageTimeout:       60 * time.Second,
		EvalTimeout:       10 * time.Second,
		ScreenshotTimeout: 15 * time.Second,
		Stabilizer:        DefaultStabilizerConfig(),
	}
}

// Session implements interfaces.Browser over a single Chrome tab.
type Session struct {
	cfg    Config
	logger interfaces.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	auth   model.Auth
	closed bool
}

func NewSession(cfg Config, logger interfaces.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Launch the browser up front so a missing binary fails fast instead of
	// on the first visit.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		cfg:         cfg,
		logger:      logger,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// SetAuth installs credentials applied to every subsequent visit.
func (s *Session) SetAuth(auth model.Auth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Visit navigates to pageURL, waits for stabilization and returns the
// rendered page. The network listener is attached before navigation and
// detached when the visit's derived context is canceled.
func (s *Session) Visit(ctx context.Context, pageURL string) (interfaces.Page, interfaces.VisitMeta, error) {
	if !s.Alive() {
		return nil, interfaces.VisitMeta{}, fmt.Errorf("browser session is closed")
	}
	start := time.Now()

	listenCtx, detach := context.WithCancel(s.tabCtx)
	defer detach()
	tracker := trackNetwork(listenCtx)

	navCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{network.Enable()}
	actions = append(actions, s.authActions(pageURL)...)
	actions = append(actions, chromedp.Navigate(pageURL))

	if err := chromedp.Run(navCtx, actions...); err != nil {
		return nil, s.meta(tracker, start), fmt.Errorf("navigation to %s failed: %w", pageURL, err)
	}

	st := NewStabilizer(s.cfg.Stabilizer, Probes{
		InFlight: tracker.InFlight,
		NodeCount: func(context.Context) (int, error) {
			var n int
			err := chromedp.Run(navCtx,
				chromedp.Evaluate(`document.getElementsByTagName('*').length`, &n))
			return n, err
		},
		TextLength: func(context.Context) (int, error) {
			var n int
			err := chromedp.Run(navCtx,
				chromedp.Evaluate(`document.body ? document.body.innerText.length : 0`, &n))
			return n, err
		},
		Title: func(context.Context) (string, error) {
			var title string
			err := chromedp.Run(navCtx, chromedp.Title(&title))
			return title, err
		},
	})
	if res := st.Wait(navCtx); !res.Stable && s.logger != nil {
		s.logger.Warn("page did not stabilize, evaluating as is",
			interfaces.Field{Key: "url", Value: pageURL},
			interfaces.Field{Key: "unmet", Value: strings.Join(res.Unmet, ",")},
			interfaces.Field{Key: "waited_ms", Value: res.Elapsed.Milliseconds()})
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, s.meta(tracker, start), fmt.Errorf("failed to read rendered document: %w", err)
	}

	meta := s.meta(tracker, start)
	if meta.HTTPStatus >= 400 {
		return nil, meta, fmt.Errorf("http status %d for %s", meta.HTTPStatus, pageURL)
	}
	return &sessionPage{session: s, url: pageURL, html: html}, meta, nil
}

func (s *Session) meta(tracker *netTracker, start time.Time) interfaces.VisitMeta {
	return interfaces.VisitMeta{
		HTTPStatus: tracker.Status(),
		LoadTimeMs: time.Since(start).Milliseconds(),
	}
}

func (s *Session) authActions(pageURL string) []chromedp.Action {
	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()

	var actions []chromedp.Action
	if auth.BearerToken != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{
			"Authorization": "Bearer " + auth.BearerToken,
		}))
	}
	for _, pair := range strings.Split(auth.RawCookies, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		actions = append(actions, network.SetCookie(name, value).WithURL(pageURL))
	}
	return actions
}

// Alive reports whether the tab can still be driven.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.tabCtx.Err() == nil
}

// Screenshot captures the first element matching selector on the currently
// loaded page. It runs on its own budget so a hung capture cannot consume
// the page timeout.
func (s *Session) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	if !s.Alive() {
		return nil, fmt.Errorf("browser session is closed")
	}
	shotCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.ScreenshotTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(shotCtx,
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("screenshot of %q failed: %w", selector, err)
	}
	return buf, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.tabCancel()
	s.allocCancel()
	return nil
}

// sessionPage is the Page handle for the tab's current document. It is only
// valid until the session's next Visit.
type sessionPage struct {
	session *Session
	url     string
	html    string
}

func (p *sessionPage) URL() string  { return p.url }
func (p *sessionPage) HTML() string { return p.html }

func (p *sessionPage) Eval(ctx context.Context, expr string, out any) error {
	if !p.session.Alive() {
		return fmt.Errorf("browser session is closed")
	}
	evalCtx, cancel := context.WithTimeout(p.session.tabCtx, p.session.cfg.EvalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(evalCtx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("page evaluation failed: %w", err)
	}
	return nil
}
