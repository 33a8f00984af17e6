package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/testutil"
)

// stubEngine returns canned findings or fails outright.
type stubEngine struct {
	findings []model.Finding
	err      error
}

func (s stubEngine) Run(_ context.Context, page interfaces.Page, _ []string) ([]model.Finding, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Finding, len(s.findings))
	copy(out, s.findings)
	for i := range out {
		out[i].PageURL = page.URL()
	}
	return out, nil
}

// failingRule always errors; the pipeline must treat it as zero findings.
type failingRule struct{}

func (failingRule) ID() string             { return "always-fails" }
func (failingRule) Impact() model.Impact   { return model.ImpactMinor }
func (failingRule) WCAGCriteria() []string { return nil }
func (failingRule) Check(context.Context, interfaces.Page, *goquery.Document) ([]model.Finding, error) {
	return nil, fmt.Errorf("boom")
}

func page(html string) *testutil.FakePage {
	return &testutil.FakePage{
		PageURL: "https://example.com.br/",
		Doc:     html,
		EvalErr: fmt.Errorf("no js engine in tests"),
	}
}

func TestPipelineEngineFailureAbortsPage(t *testing.T) {
	p, err := NewPipeline(stubEngine{err: fmt.Errorf("driver gone")}, DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), page("<html></html>"))
	require.Error(t, err)
}

func TestPipelineRuleFailureIsIsolated(t *testing.T) {
	logger := &testutil.DummyLogger{}
	p, err := NewPipeline(stubEngine{}, DefaultConfig(), logger)
	require.NoError(t, err)
	p.custom = append(p.custom, failingRule{})

	findings, err := p.Analyze(context.Background(), page(
		`<html lang="pt-BR"><body><p>ok</p></body></html>`))
	require.NoError(t, err, "a failing custom rule must never abort the page")

	for _, f := range findings {
		require.NotEqual(t, "always-fails", f.RuleID)
	}
	require.NotEmpty(t, logger.Warns, "rule failure should be logged")
}

func TestPipelineMarksCustomAndScoresConfidence(t *testing.T) {
	engineFinding := model.Finding{
		RuleID:      "image-alt",
		Impact:      model.ImpactCritical,
		HTML:        `<img src="x.png">`,
		Fingerprint: "image-alt",
	}
	p, err := NewPipeline(stubEngine{findings: []model.Finding{engineFinding}}, DefaultConfig(), nil)
	require.NoError(t, err)

	html := `<html lang="pt-BR"><body>
		<a href="/x">clique aqui</a>
		<img src="foto.jpg" alt="IMG_1234.jpg">
	</body></html>`

	findings, err := p.Analyze(context.Background(), page(html))
	require.NoError(t, err)

	byRule := map[string]model.Finding{}
	for _, f := range findings {
		byRule[f.RuleID] = f
	}

	engine, ok := byRule["image-alt"]
	require.True(t, ok)
	require.False(t, engine.IsCustomRule)
	require.Equal(t, model.ConfidenceCertain, engine.Confidence)
	require.Equal(t, "image-alt", engine.Fingerprint)

	link, ok := byRule["acesso-generic-link-text"]
	require.True(t, ok, "generic link text rule should fire")
	require.True(t, link.IsCustomRule)
	require.Equal(t, "acesso-generic-link-text", link.Fingerprint)

	alt, ok := byRule["acesso-image-alt-filename"]
	require.True(t, ok, "filename alt rule should fire")
	require.Equal(t, model.ImpactSerious, alt.Impact)
}

func TestPipelinePartialRulesOptIn(t *testing.T) {
	html := `<html><body><form>
		<input type="text" name="email_usuario">
	</form></body></html>`

	off, err := NewPipeline(stubEngine{}, DefaultConfig(), nil)
	require.NoError(t, err)
	findings, err := off.Analyze(context.Background(), page(html))
	require.NoError(t, err)
	for _, f := range findings {
		require.NotEqual(t, "acesso-autocomplete-purpose", f.RuleID)
	}

	cfg := DefaultConfig()
	cfg.IncludePartial = true
	on, err := NewPipeline(stubEngine{}, cfg, nil)
	require.NoError(t, err)
	findings, err = on.Analyze(context.Background(), page(html))
	require.NoError(t, err)

	var hit *model.Finding
	for i := range findings {
		if findings[i].RuleID == "acesso-autocomplete-purpose" {
			hit = &findings[i]
		}
	}
	require.NotNil(t, hit, "partial rule should fire when enabled")
	require.True(t, hit.NeedsReview, "partial findings are always needsReview")
	require.NotEqual(t, model.ConfidenceCertain, hit.Confidence)
}
