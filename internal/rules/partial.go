package rules

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

// PartialRules returns the opt-in partial-detection set: conditions for WCAG
// criteria that are normally manual checks. Every finding here is marked
// needsReview and the checks bias toward false negatives: silence over a
// wrong accusation.
func PartialRules() []Rule {
	return []Rule{
		autocompletePurpose{},
		underlineNotLink{},
		mediaMissingCaptions{},
		autoNavigatingSelect{},
	}
}

// ─── autocomplete purpose inference ────────────────────────────────────

// Input name/id fragments that strongly imply a known autocomplete purpose.
var purposeHints = map[string]string{
	"email": "email", "e-mail": "email",
	"telefone": "tel", "celular": "tel", "phone": "tel", "tel": "tel",
	"cep": "postal-code", "postal": "postal-code", "zipcode": "postal-code",
	"nome": "name", "name": "name",
	"endereco": "street-address", "endereço": "street-address", "address": "street-address",
}

type autocompletePurpose struct{}

func (autocompletePurpose) ID() string             { return "acesso-autocomplete-purpose" }
func (autocompletePurpose) Impact() model.Impact   { return model.ImpactModerate }
func (autocompletePurpose) WCAGCriteria() []string { return []string{"1.3.5"} }

func (r autocompletePurpose) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("form input[type='text'], form input[type='email'], form input[type='tel'], form input:not([type])").
		Each(func(_ int, s *goquery.Selection) {
			if _, ok := s.Attr("autocomplete"); ok {
				return
			}
			name, _ := s.Attr("name")
			id, _ := s.Attr("id")
			hint := strings.ToLower(name + " " + id)
			for fragment, purpose := range purposeHints {
				if strings.Contains(hint, fragment) {
					f := base.finding(page, s,
						"Input collects "+purpose+" but declares no autocomplete purpose")
					f.NeedsReview = true
					out = append(out, f)
					return
				}
			}
		})
	return out, nil
}

// ─── underlined text that is not a link ────────────────────────────────

type underlineNotLink struct{}

func (underlineNotLink) ID() string             { return "acesso-underline-not-link" }
func (underlineNotLink) Impact() model.Impact   { return model.ImpactMinor }
func (underlineNotLink) WCAGCriteria() []string { return []string{"1.3.3"} }

func (r underlineNotLink) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding

	report := func(s *goquery.Selection) {
		if s.Closest("a").Length() > 0 {
			return // underline inside a link is the expected affordance
		}
		text := normalizedText(s)
		if len(text) < 3 {
			return
		}
		f := base.finding(page, s, "Underlined text that is not a link mimics a link affordance")
		f.NeedsReview = true
		out = append(out, f)
	}

	doc.Find("u").Each(func(_ int, s *goquery.Selection) { report(s) })
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if strings.Contains(strings.ToLower(style), "text-decoration") &&
			strings.Contains(strings.ToLower(style), "underline") {
			report(s)
		}
	})
	return out, nil
}

// ─── video missing captions / audio description ────────────────────────

type mediaMissingCaptions struct{}

func (mediaMissingCaptions) ID() string             { return "acesso-media-missing-captions" }
func (mediaMissingCaptions) Impact() model.Impact   { return model.ImpactSerious }
func (mediaMissingCaptions) WCAGCriteria() []string { return []string{"1.2.2", "1.2.5"} }

func (r mediaMissingCaptions) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		hasCaptions := s.Find("track[kind='captions'], track[kind='subtitles']").Length() > 0
		hasDescription := s.Find("track[kind='descriptions']").Length() > 0
		if hasCaptions && hasDescription {
			return
		}
		// Captions may be burned into the video itself; flag for review only.
		missing := []string{}
		if !hasCaptions {
			missing = append(missing, "captions")
		}
		if !hasDescription {
			missing = append(missing, "audio description")
		}
		f := base.finding(page, s, "Video declares no "+strings.Join(missing, " or ")+" track")
		f.NeedsReview = true
		out = append(out, f)
	})
	return out, nil
}

// ─── auto-navigating select ────────────────────────────────────────────

type autoNavigatingSelect struct{}

func (autoNavigatingSelect) ID() string             { return "acesso-auto-navigating-select" }
func (autoNavigatingSelect) Impact() model.Impact   { return model.ImpactSerious }
func (autoNavigatingSelect) WCAGCriteria() []string { return []string{"3.2.2"} }

func (r autoNavigatingSelect) Check(_ context.Context, page interfaces.Page, doc *goquery.Document) ([]model.Finding, error) {
	base := baseRule{r.ID(), r.Impact(), r.WCAGCriteria()}
	var out []model.Finding
	doc.Find("select[onchange]").Each(func(_ int, s *goquery.Selection) {
		onchange, _ := s.Attr("onchange")
		lower := strings.ToLower(onchange)
		if strings.Contains(lower, "location") || strings.Contains(lower, "submit()") ||
			strings.Contains(lower, "window.open") {
			f := base.finding(page, s, "Changing this select navigates without an explicit action")
			f.NeedsReview = true
			out = append(out, f)
		}
	})
	return out, nil
}
