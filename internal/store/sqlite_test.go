package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raysh454/acesso/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAudit(id string, startedAt time.Time) *model.Audit {
	return &model.Audit{
		ID:   id,
		Site: "https://example.com.br",
		Summary: model.Summary{
			Critical:         2,
			Minor:            5,
			Total:            7,
			CriticalPatterns: 1,
			MinorPatterns:    2,
		},
		HealthScore:      64,
		ScoringModel:     "passfail/v1",
		ProcessedPages:   []string{"https://example.com.br/", "https://example.com.br/sobre"},
		BrokenPagesCount: 1,
		BrokenPages: []model.PageVisit{{
			URL:       "https://example.com.br/morta",
			ErrorType: model.PageErrHTTP,
			ErrorMsg:  "http status 404",
		}},
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Minute),
	}
}

func TestAuditRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleAudit("a-1", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveAudit(ctx, want))

	got, err := s.GetAudit(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, want.Site, got.Site)
	require.Equal(t, want.HealthScore, got.HealthScore)
	require.Equal(t, want.Summary, got.Summary)
	require.Equal(t, want.ProcessedPages, got.ProcessedPages)
	require.Equal(t, want.BrokenPagesCount, got.BrokenPagesCount)
	require.Len(t, got.BrokenPages, 1)
	require.Equal(t, model.PageErrHTTP, got.BrokenPages[0].ErrorType)
	require.True(t, want.StartedAt.Equal(got.StartedAt))
}

func TestGetAuditNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAudit(context.Background(), "nope")
	require.True(t, errors.Is(err, ErrAuditNotFound))
}

func TestListAuditsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		a := sampleAudit(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveAudit(ctx, a))
	}
	other := sampleAudit("other-site", base)
	other.Site = "https://outra.com.br"
	require.NoError(t, s.SaveAudit(ctx, other))

	audits, err := s.ListAudits(ctx, "https://example.com.br", 2)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.Equal(t, "new", audits[0].ID)
	require.Equal(t, "mid", audits[1].ID)
}

func TestViolationsRoundTripPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAudit(ctx, sampleAudit("a-2", time.Now())))

	violations := []model.AggregatedViolation{
		{
			Fingerprint: "image-alt",
			Representative: model.Finding{
				RuleID:      "image-alt",
				Fingerprint: "image-alt",
				Impact:      model.ImpactCritical,
			},
			Occurrences: 5,
			PageURLs:    []string{"https://example.com.br/"},
			Priority:    80,
		},
		{
			Fingerprint: "acesso-justified-text",
			Representative: model.Finding{
				RuleID:      "acesso-justified-text",
				Fingerprint: "acesso-justified-text",
				Impact:      model.ImpactModerate,
			},
			Occurrences: 2,
			PageURLs:    []string{"https://example.com.br/sobre"},
			Priority:    30,
		},
	}
	require.NoError(t, s.SaveViolations(ctx, "a-2", violations))

	got, err := s.GetViolations(ctx, "a-2")
	require.NoError(t, err)
	require.Equal(t, violations, got)

	// Saving again replaces rather than appends.
	require.NoError(t, s.SaveViolations(ctx, "a-2", violations[:1]))
	got, err = s.GetViolations(ctx, "a-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestViolationsEmptyAudit(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetViolations(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, got)
}
