// Package testutil provides shared test doubles for use across package
// tests. All dummies implement the corresponding interfaces from the
// production code, allowing injection into components under test without
// real I/O or a browser.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements interfaces.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, _ ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, _ ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, _ ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, _ ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...interfaces.Field) interfaces.Logger { return l }

// ─── Page ──────────────────────────────────────────────────────────────

// FakePage implements interfaces.Page over static HTML. Eval responses are
// canned per expression prefix; unmatched expressions return EvalErr when
// set, else an "unsupported" error, mimicking an evaluation boundary that
// only accepts known programs.
type FakePage struct {
	PageURL string
	Doc     string

	// EvalResults maps an expression substring to the JSON-decoded value the
	// evaluation should produce.
	EvalResults map[string]any
	EvalErr     error
}

func (p *FakePage) URL() string  { return p.PageURL }
func (p *FakePage) HTML() string { return p.Doc }

func (p *FakePage) Eval(_ context.Context, expr string, out any) error {
	for needle, v := range p.EvalResults {
		if needle != "" && strings.Contains(expr, needle) {
			return assign(out, v)
		}
	}
	if p.EvalErr != nil {
		return p.EvalErr
	}
	return fmt.Errorf("fakepage: no canned result for expression")
}

func assign(out, v any) error {
	switch dst := out.(type) {
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("fakepage: canned value is not bool")
		}
		*dst = b
		return nil
	case *string:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("fakepage: canned value is not string")
		}
		*dst = s
		return nil
	case *int:
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("fakepage: canned value is not int")
		}
		*dst = n
		return nil
	}
	return fmt.Errorf("fakepage: unsupported out type %T", out)
}

// ─── Browser ───────────────────────────────────────────────────────────

// FakeBrowser implements interfaces.Browser over a map of URL -> page HTML.
// URLs present in Errs fail navigation with the mapped error.
type FakeBrowser struct {
	Pages map[string]string
	Errs  map[string]error

	mu      sync.Mutex
	Visited []string
	Dead    bool
}

func (b *FakeBrowser) Visit(_ context.Context, url string) (interfaces.Page, interfaces.VisitMeta, error) {
	b.mu.Lock()
	b.Visited = append(b.Visited, url)
	b.mu.Unlock()

	if err, ok := b.Errs[url]; ok {
		return nil, interfaces.VisitMeta{}, err
	}
	html, ok := b.Pages[url]
	if !ok {
		return nil, interfaces.VisitMeta{HTTPStatus: 404}, fmt.Errorf("net::ERR_HTTP_RESPONSE_CODE_FAILURE 404 for %s", url)
	}
	return &FakePage{PageURL: url, Doc: html, EvalErr: fmt.Errorf("no js engine")},
		interfaces.VisitMeta{HTTPStatus: 200, LoadTimeMs: 12}, nil
}

func (b *FakeBrowser) Alive() bool { return !b.Dead }

func (b *FakeBrowser) Screenshot(_ context.Context, _ string) ([]byte, error) {
	if b.Dead {
		return nil, fmt.Errorf("browser closed")
	}
	return []byte("png"), nil
}

func (b *FakeBrowser) Close() error { return nil }

// ─── Store ─────────────────────────────────────────────────────────────

// MemStore implements interfaces.Store in memory.
type MemStore struct {
	mu         sync.Mutex
	Audits     map[string]*model.Audit
	Violations map[string][]model.AggregatedViolation
	SaveErr    error
}

func NewMemStore() *MemStore {
	return &MemStore{
		Audits:     make(map[string]*model.Audit),
		Violations: make(map[string][]model.AggregatedViolation),
	}
}

func (s *MemStore) SaveAudit(_ context.Context, a *model.Audit) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.Audits[a.ID] = &cp
	return nil
}

func (s *MemStore) GetAudit(_ context.Context, id string) (*model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Audits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrAuditNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (s *MemStore) ListAudits(_ context.Context, site string, limit int) ([]model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Audit
	for _, a := range s.Audits {
		if site == "" || a.Site == site {
			out = append(out, *a)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemStore) SaveViolations(_ context.Context, auditID string, v []model.AggregatedViolation) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Violations[auditID] = append([]model.AggregatedViolation(nil), v...)
	return nil
}

func (s *MemStore) GetViolations(_ context.Context, auditID string) ([]model.AggregatedViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AggregatedViolation(nil), s.Violations[auditID]...), nil
}

func (s *MemStore) Close() error { return nil }
