package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textStrategy extracts one field from a document; ok is false when nothing usable was found.
type textStrategy func(doc *goquery.Selection) (value string, ok bool)

// firstOf runs strategies in order and returns the first non-empty result.
func firstOf(doc *goquery.Selection, strategies ...textStrategy) string {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v
		}
	}
	return ""
}

// selectorText reads the text of the first non-blank match of each selector in turn.
func selectorText(selectors ...string) textStrategy {
	return func(doc *goquery.Selection) (string, bool) {
		for _, sel := range selectors {
			var found string
			doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				found = collapseSpace(s.Text())
				return found == ""
			})
			if found != "" {
				return found, true
			}
		}
		return "", false
	}
}

// selectorAttr reads attr from the first match of each selector in turn.
func selectorAttr(attr string, selectors ...string) textStrategy {
	return func(doc *goquery.Selection) (string, bool) {
		for _, sel := range selectors {
			var found string
			doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if v, exists := s.Attr(attr); exists {
					found = collapseSpace(v)
				}
				return found == ""
			})
			if found != "" {
				return found, true
			}
		}
		return "", false
	}
}

// textPattern applies expr to the text of selectors and returns the first capture group.
func textPattern(expr *regexp.Regexp, selectors ...string) textStrategy {
	return func(doc *goquery.Selection) (string, bool) {
		for _, sel := range selectors {
			var found string
			doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				m := expr.FindStringSubmatch(collapseSpace(s.Text()))
				if len(m) > 1 {
					found = strings.TrimSpace(m[1])
				}
				return found == ""
			})
			if found != "" {
				return found, true
			}
		}
		return "", false
	}
}

// paragraphs joins the non-blank paragraph nodes of the first container that has any.
func paragraphs(containers ...string) textStrategy {
	return func(doc *goquery.Selection) (string, bool) {
		for _, sel := range containers {
			container := doc.Find(sel).First()
			if container.Length() == 0 {
				continue
			}
			var lines []string
			container.Find("p").Each(func(_ int, p *goquery.Selection) {
				if text := collapseSpace(p.Text()); text != "" {
					lines = append(lines, text)
				}
			})
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true
			}
		}
		return "", false
	}
}

// listingStrategy locates candidate anchors inside one container layout.
type listingStrategy struct {
	Container string
	Item      string
}

func (l listingStrategy) find(doc *goquery.Selection) *goquery.Selection {
	return doc.Find(l.Container).Find(l.Item)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
