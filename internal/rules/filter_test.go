package rules

import (
	"testing"

	"github.com/raysh454/acesso/internal/model"
)

func TestFilterDecorativeEmptyAlt(t *testing.T) {
	f := NewFilter(nil)

	finding := model.Finding{
		RuleID: "image-alt",
		Impact: model.ImpactMinor,
		HTML:   `<img alt="">`,
	}

	reasons := f.MatchedReasons(finding)
	found := false
	for _, r := range reasons {
		if r == "image_empty_alt_intentional" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected image_empty_alt_intentional, got %v", reasons)
	}

	survivors := f.Apply("https://example.com/", []model.Finding{finding})
	if len(survivors) != 0 {
		t.Fatalf("decorative image must never reach aggregation, got %d survivors", len(survivors))
	}
}

func TestFilterHiddenElement(t *testing.T) {
	f := NewFilter(nil)
	tests := []struct {
		name string
		html string
	}{
		{"display none", `<div style="display: none">x</div>`},
		{"visibility hidden", `<span style="visibility:hidden">x</span>`},
		{"aria hidden", `<div aria-hidden="true">x</div>`},
		{"hidden attr", `<div hidden>x</div>`},
	}
	for _, tt := range tests {
		finding := model.Finding{RuleID: "label", HTML: tt.html}
		if got := f.Apply("u", []model.Finding{finding}); len(got) != 0 {
			t.Fatalf("%s: hidden element should be filtered", tt.name)
		}
	}
}

func TestFilterNewTabWithWarning(t *testing.T) {
	f := NewFilter(nil)

	warned := model.Finding{
		RuleID:     "acesso-new-tab-no-warning",
		HTML:       `<a href="https://x.com" target="_blank">Docs <i class="fa-external-link"></i></a>`,
		ParentHTML: `<p></p>`,
	}
	if got := f.Apply("u", []model.Finding{warned}); len(got) != 0 {
		t.Fatalf("new-tab link with external icon should be suppressed")
	}

	srOnly := model.Finding{
		RuleID:     "acesso-new-tab-no-warning",
		HTML:       `<a target="_blank">Docs<span class="sr-only">abre em nova aba</span></a>`,
		ParentHTML: `<p></p>`,
	}
	if got := f.Apply("u", []model.Finding{srOnly}); len(got) != 0 {
		t.Fatalf("new-tab link with sr-only warning should be suppressed")
	}

	bare := model.Finding{
		RuleID: "acesso-new-tab-no-warning",
		HTML:   `<a href="https://x.com" target="_blank">Docs</a>`,
	}
	if got := f.Apply("u", []model.Finding{bare}); len(got) != 1 {
		t.Fatalf("unwarned new-tab link must survive the filter")
	}
}

func TestFilterShortJustifiedBlock(t *testing.T) {
	f := NewFilter(nil)

	short := model.Finding{
		RuleID: "acesso-justified-text",
		HTML:   `<p style="text-align: justify">Texto curto.</p>`,
	}
	if got := f.Apply("u", []model.Finding{short}); len(got) != 0 {
		t.Fatalf("justified block under 100 chars should be filtered")
	}

	long := model.Finding{
		RuleID: "acesso-justified-text",
		HTML: `<p style="text-align: justify">` +
			"Um parágrafo consideravelmente mais longo do que cem caracteres, " +
			"cheio de palavras suficientes para que a justificação crie rios de espaço em branco.</p>",
	}
	if got := f.Apply("u", []model.Finding{long}); len(got) != 1 {
		t.Fatalf("long justified block must survive")
	}
}

func TestFilterKeepsUnmatchedFindings(t *testing.T) {
	f := NewFilter(nil)
	finding := model.Finding{
		RuleID: "color-contrast",
		HTML:   `<p class="lead">Contraste baixo</p>`,
	}
	if got := f.Apply("u", []model.Finding{finding}); len(got) != 1 {
		t.Fatalf("ordinary finding must pass through untouched")
	}
}
