package rules

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// buildSelector derives a CSS selector for one element: the nearest id wins,
// otherwise a tag path from body with :nth-child indices where siblings
// share a tag. Indices get wildcarded later by pattern normalization, which
// is exactly what lets template-repeated defects collapse.
func buildSelector(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	if id, ok := s.Attr("id"); ok && id != "" {
		return "#" + id
	}

	var parts []string
	cur := s
	for cur.Length() > 0 {
		node := cur.Get(0)
		if node.Type != html.ElementNode || node.Data == "html" || node.Data == "body" {
			break
		}

		part := node.Data
		if class, ok := cur.Attr("class"); ok {
			if first := strings.Fields(class); len(first) > 0 {
				part += "." + first[0]
			}
		}
		if idx := siblingIndex(cur); idx > 0 {
			part += fmt.Sprintf(":nth-child(%d)", idx)
		}

		parts = append([]string{part}, parts...)

		parent := cur.Parent()
		if pid, ok := parent.Attr("id"); ok && pid != "" {
			parts = append([]string{"#" + pid}, parts...)
			break
		}
		cur = parent
	}

	return strings.Join(parts, " > ")
}

// siblingIndex returns the 1-based element index of s among its element
// siblings, or 0 when s is an only child.
func siblingIndex(s *goquery.Selection) int {
	parent := s.Parent()
	if parent.Length() == 0 {
		return 0
	}
	children := parent.Children()
	if children.Length() <= 1 {
		return 0
	}
	node := s.Get(0)
	idx := 0
	found := 0
	children.EachWithBreak(func(i int, c *goquery.Selection) bool {
		idx++
		if c.Get(0) == node {
			found = idx
			return false
		}
		return true
	})
	return found
}

// outerHTML renders the selection's own markup, truncated for findings.
func outerHTML(s *goquery.Selection, max int) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	h, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	h = strings.TrimSpace(h)
	if max > 0 && len(h) > max {
		return h[:max]
	}
	return h
}

// parentHTML renders the parent's markup, truncated.
func parentHTML(s *goquery.Selection, max int) string {
	return outerHTML(s.Parent(), max)
}

// normalizedText collapses whitespace in the selection's visible text.
func normalizedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
