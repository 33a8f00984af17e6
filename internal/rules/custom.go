package rules

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/readability"
)

const snippetMax = 1000

// CustomRules returns the registered custom rule set. The cognitive rules
// join only when the audit request asked for them.
func CustomRules(includeCognitive bool) []Rule {
	rules := []Rule{
		genericLinkText{},
		imageAltFilename{},
		justifiedText{},
		uppercaseText{},
		missingSkipLink{},
		autoplayMedia{},
		librasPluginMissing{},
	}
	if includeCognitive {
		rules = append(rules, complexText{})
	}
	return rules
}

// baseRule carries the static identity shared by every custom rule.
type baseRule struct {
	id       string
	impact   model.Impact
	criteria []string
}

func (b baseRule) ID() string             { return b.id }
func (b baseRule) Impact() model.Impact   { return b.impact }
func (b baseRule) WCAGCriteria() []string { return b.criteria }

func (b baseRule) finding(page interfaces.Page, s *goquery.Selection, summary string) model.Finding {
	f := model.Finding{
		RuleID:         b.id,
		IsCustomRule:   true,
		Impact:         b.impact,
		WCAGCriteria:   b.criteria,
		PageURL:        page.URL(),
		FailureSummary: summary,
		Fingerprint:    b.id,
	}
	if s != nil && s.Length() > 0 {
		f.Selector = buildSelector(s)
		f.HTML = outerHTML(s, snippetMax)
		f.ParentHTML = parentHTML(s, snippetMax)
	}
	return f
}

// ─── generic link text ─────────────────────────────────────────────────

var genericLinkPhrases = map[string]struct{}{
	"clique aqui": {}, "clique": {}, "aqui": {}, "saiba mais": {},
	"leia mais": {}, "veja mais": {}, "ver mais": {}, "continue": {},
	"click here": {}, "here": {}, "read more": {}, "more": {}, "link": {},
}

type genericLinkText struct{}

func (genericLinkText) ID() string             { return "acesso-generic-link-text" }
func (genericLinkText) Impact() model.Impact   { return model.ImpactModerate }
func (genericLinkText) WCAGCriteria() []string { return []string{"2.4.4"} }

func (r genericLinkText) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(normalizedText(s))
		if text == "" {
			return
		}
		if _, generic := genericLinkPhrases[text]; !generic {
			return
		}
		// An accessible name from aria-label or title rescues the link.
		if label, _ := s.Attr("aria-label"); strings.TrimSpace(label) != "" {
			return
		}
		if title, _ := s.Attr("title"); strings.TrimSpace(title) != "" {
			return
		}
		out = append(out, base.finding(page, s,
			"Link text does not describe its destination out of context"))
	})
	return out, nil
}

// ─── image alt looks like a filename ───────────────────────────────────

var filenameAltRe = regexp.MustCompile(`(?i)(\.(jpe?g|png|gif|webp|svg|bmp|tiff?)$|^(img|dsc|image|foto|photo)[-_]?\d+)`)

type imageAltFilename struct{}

func (imageAltFilename) ID() string             { return "acesso-image-alt-filename" }
func (imageAltFilename) Impact() model.Impact   { return model.ImpactSerious }
func (imageAltFilename) WCAGCriteria() []string { return []string{"1.1.1"} }

func (r imageAltFilename) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("alt")
		alt = strings.TrimSpace(alt)
		if alt == "" {
			return // empty alt is decorative, a different rule's concern
		}
		if filenameAltRe.MatchString(alt) {
			out = append(out, base.finding(page, s,
				"Image alt text looks like a filename, not a description"))
		}
	})
	return out, nil
}

// ─── justified text blocks ─────────────────────────────────────────────

// justifiedText checks computed styles in the page, since justification
// usually comes from stylesheets rather than inline styles. The query runs
// across the evaluation boundary and returns plain data.
type justifiedText struct{}

func (justifiedText) ID() string             { return "acesso-justified-text" }
func (justifiedText) Impact() model.Impact   { return model.ImpactModerate }
func (justifiedText) WCAGCriteria() []string { return []string{"1.4.8"} }

const justifiedTextJS = `(function() {
	var out = [];
	var els = document.querySelectorAll("p, div, li, td, blockquote");
	for (var i = 0; i < els.length && out.length < 50; i++) {
		var el = els[i];
		var text = (el.innerText || "").trim();
		if (text.length < 20) continue;
		if (getComputedStyle(el).textAlign === "justify") {
			out.push({html: el.outerHTML.slice(0, 1000), textLength: text.length});
		}
	}
	return out;
})()`

func (r justifiedText) Check(ctx context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}

	var hits []struct {
		HTML       string `json:"html"`
		TextLength int    `json:"textLength"`
	}
	if err := page.Eval(ctx, justifiedTextJS, &hits); err != nil {
		// Fall back to inline styles when in-page evaluation is unavailable.
		var out []model.Finding
		doc.Find(`[style*="text-align"]`).Each(func(_ int, s *goquery.Selection) {
			style, _ := s.Attr("style")
			if strings.Contains(strings.ToLower(style), "justify") && len(normalizedText(s)) >= 20 {
				out = append(out, base.finding(page, s, "Justified text blocks create uneven spacing that hinders reading"))
			}
		})
		return out, nil
	}

	var out []model.Finding
	for _, h := range hits {
		f := base.finding(page, nil, "Justified text blocks create uneven spacing that hinders reading")
		f.HTML = h.HTML
		out = append(out, f)
	}
	return out, nil
}

// ─── long all-caps text blocks ─────────────────────────────────────────

type uppercaseText struct{}

func (uppercaseText) ID() string             { return "acesso-uppercase-text" }
func (uppercaseText) Impact() model.Impact   { return model.ImpactModerate }
func (uppercaseText) WCAGCriteria() []string { return []string{"1.4.8"} }

func (r uppercaseText) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("p, div, span, li").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return // only leaf text holders, avoids double-reporting parents
		}
		text := normalizedText(s)
		if len(text) < 60 {
			return
		}
		letters := 0
		upper := 0
		for _, c := range text {
			if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
				letters++
				if c >= 'A' && c <= 'Z' {
					upper++
				}
			}
		}
		if letters >= 40 && upper == letters {
			out = append(out, base.finding(page, s,
				"Long all-caps text is hard to read and screamed by screen readers"))
		}
	})
	return out, nil
}

// ─── missing skip link ─────────────────────────────────────────────────

type missingSkipLink struct{}

func (missingSkipLink) ID() string             { return "acesso-missing-skip-link" }
func (missingSkipLink) Impact() model.Impact   { return model.ImpactModerate }
func (missingSkipLink) WCAGCriteria() []string { return []string{"2.4.1"} }

func (r missingSkipLink) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}

	// A nav or substantial link count implies the page needs a bypass.
	if doc.Find("nav a, header a").Length() < 5 {
		return nil, nil
	}

	found := false
	doc.Find("a[href^='#']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i > 4 {
			return false // skip links live at the top of the document
		}
		text := strings.ToLower(normalizedText(s))
		if strings.Contains(text, "pular") || strings.Contains(text, "ir para") ||
			strings.Contains(text, "skip") || strings.Contains(text, "conteúdo") {
			found = true
			return false
		}
		return true
	})
	if found {
		return nil, nil
	}

	body := doc.Find("body")
	f := base.finding(page, body, "No skip link to bypass repeated navigation blocks")
	f.Selector = "body"
	f.HTML = truncate("<body>", snippetMax)
	return []model.Finding{f}, nil
}

// ─── autoplay media without pause controls ─────────────────────────────

type autoplayMedia struct{}

func (autoplayMedia) ID() string             { return "acesso-autoplay-media" }
func (autoplayMedia) Impact() model.Impact   { return model.ImpactSerious }
func (autoplayMedia) WCAGCriteria() []string { return []string{"1.4.2", "2.2.2"} }

func (r autoplayMedia) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("audio[autoplay], video[autoplay]").Each(func(_ int, s *goquery.Selection) {
		if _, muted := s.Attr("muted"); muted && s.Is("video") {
			return // muted autoplay video is tolerated by 1.4.2
		}
		if _, controls := s.Attr("controls"); controls {
			return
		}
		out = append(out, base.finding(page, s,
			"Media autoplays with no visible way to pause or stop it"))
	})
	return out, nil
}

// ─── missing sign-language (Libras) plugin ─────────────────────────────

// librasPluginMissing flags Brazilian pages with no VLibras or Hand Talk
// integration. Low-precision by nature; its confidence table entry keeps it
// at needs_review instead of excluding it outright.
type librasPluginMissing struct{}

func (librasPluginMissing) ID() string             { return "acesso-libras-plugin-missing" }
func (librasPluginMissing) Impact() model.Impact   { return model.ImpactModerate }
func (librasPluginMissing) WCAGCriteria() []string { return []string{"1.2.6"} }

func (r librasPluginMissing) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}

	lang, _ := doc.Find("html").Attr("lang")
	lang = strings.ToLower(lang)
	brazilian := strings.HasPrefix(lang, "pt-br") || strings.HasPrefix(lang, "pt_br") ||
		strings.Contains(page.URL(), ".br/") || strings.HasSuffix(page.URL(), ".br")
	if !brazilian {
		return nil, nil
	}

	html, _ := doc.Html()
	lower := strings.ToLower(html)
	if strings.Contains(lower, "vlibras") || strings.Contains(lower, "handtalk") ||
		strings.Contains(lower, "hand-talk") {
		return nil, nil
	}

	f := base.finding(page, doc.Find("body"), "Brazilian page has no Libras sign-language plugin")
	f.Selector = "body"
	f.HTML = truncate("<body>", snippetMax)
	return []model.Finding{f}, nil
}

// ─── complex text (cognitive accessibility) ────────────────────────────

type complexText struct{}

func (complexText) ID() string             { return "acesso-complex-text" }
func (complexText) Impact() model.Impact   { return model.ImpactMinor }
func (complexText) WCAGCriteria() []string { return []string{"3.1.5"} }

func (r complexText) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}

	var out []model.Finding
	doc.Find("main p, article p, p").Each(func(_ int, s *goquery.Selection) {
		if len(out) >= 10 {
			return
		}
		text := normalizedText(s)
		if len(text) < 200 {
			return
		}
		res := readability.Estimate(text)
		if res.Grade == readability.GradeVeryHard || res.Grade == readability.GradeHard {
			f := base.finding(page, s, "Paragraph requires advanced reading ability")
			f.NeedsReview = true
			out = append(out, f)
		}
	})
	return out, nil
}
