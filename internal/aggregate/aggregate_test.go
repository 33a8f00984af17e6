package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raysh454/acesso/internal/model"
)

func finding(rule string, impact model.Impact, selector, html string) model.Finding {
	return model.Finding{
		RuleID:      rule,
		Impact:      impact,
		Selector:    selector,
		HTML:        html,
		Fingerprint: rule,
	}
}

func TestAggregatorGroupsByFingerprint(t *testing.T) {
	a := New(nil)
	a.Add("https://example.com/", []model.Finding{
		finding("image-alt", model.ImpactCritical, "img.hero", `<img src="a.png">`),
		finding("label", model.ImpactSerious, "input#q", `<input id="q">`),
	})
	a.Add("https://example.com/contato", []model.Finding{
		finding("image-alt", model.ImpactCritical, "img.banner", `<img src="b.png">`),
	})

	aggs, sum := a.Finalize()
	require.Len(t, aggs, 2)

	var imageAlt model.AggregatedViolation
	for _, ag := range aggs {
		if ag.Fingerprint == "image-alt" {
			imageAlt = ag
		}
	}
	require.Equal(t, 2, imageAlt.Occurrences)
	require.Len(t, imageAlt.PageURLs, 2)
	require.Equal(t, 2, sum.Critical)
	require.Equal(t, 1, sum.Serious)
	require.Equal(t, 3, sum.Total)
}

func TestAggregatorInvariants(t *testing.T) {
	a := New(nil)
	// Same element repeated on the same page: occurrences grow, pages don't.
	for i := 0; i < 5; i++ {
		a.Add("https://example.com/", []model.Finding{
			finding("link-name", model.ImpactModerate, "a.more", `<a class="more">leia mais</a>`),
		})
	}
	aggs, sum := a.Finalize()
	require.Len(t, aggs, 1)
	ag := aggs[0]

	require.GreaterOrEqual(t, ag.Occurrences, len(ag.PageURLs))
	require.LessOrEqual(t, len(ag.UniqueElements), model.MaxUniqueElements)
	require.Equal(t, sum.Moderate, ag.Occurrences)
	require.Equal(t, 1, len(ag.UniqueElements))
	require.Equal(t, 5, ag.UniqueElements[0].Count)
}

func TestUniqueElementCapKeepsOldest(t *testing.T) {
	a := New(nil)
	for i := 0; i < 30; i++ {
		a.Add("https://example.com/", []model.Finding{
			finding("image-alt", model.ImpactMinor, fmt.Sprintf("img#i%d", i), fmt.Sprintf(`<img id="i%d">`, i)),
		})
	}
	aggs, _ := a.Finalize()
	ag := aggs[0]

	require.Len(t, ag.UniqueElements, model.MaxUniqueElements)
	require.Equal(t, 30, ag.Occurrences)
	// Oldest-discovered kept: the first element is still the sample head.
	require.Equal(t, `<img id="i0">`, ag.UniqueElements[0].HTML)
	// Elements past the cap only count occurrences, never replace samples.
	require.Equal(t, `<img id="i19">`, ag.UniqueElements[19].HTML)
}

func TestPatternCountCollapsesTemplates(t *testing.T) {
	a := New(nil)
	for i := 1; i <= 3; i++ {
		a.Add("https://example.com/lista", []model.Finding{
			finding("image-alt", model.ImpactSerious,
				fmt.Sprintf(".card:nth-child(%d) > img", i),
				fmt.Sprintf(`<img class="produto" data-i="%d">`, i)),
		})
	}
	aggs, sum := a.Finalize()
	require.Equal(t, 3, aggs[0].Occurrences)
	require.Equal(t, 1, aggs[0].PatternCount, "template instances must collapse to one pattern")
	require.Equal(t, 1, sum.SeriousPatterns)
}

func TestNormalizePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".card:nth-child(1) > img", ".card > img"},
		{".card:nth-child(2) > img", ".card > img"},
		{".card:nth-child(3) > img", ".card > img"},
		{"#item-12 .title", "#item* .title"},
		{`li[data-index="7"] > a`, `li[data-index="*"] > a`},
		{"/html/body/ul/li[3]/a", "/html/body/ul/li[*]/a"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizePattern(tt.in)
		if got != tt.want {
			t.Fatalf("NormalizePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
		// Idempotent
		if again := NormalizePattern(got); again != got {
			t.Fatalf("NormalizePattern not idempotent: %q -> %q", got, again)
		}
	}
}
