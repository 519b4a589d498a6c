package parser

import (
	"net/url"
	"strings"
)

// DefaultCategory is used when a listing URL matches no known section.
const DefaultCategory = "general"

// categoryFragments is checked in order; first substring match wins.
var categoryFragments = []struct {
	fragment string
	category string
}{
	{"/politics", "politics"},
	{"/economy", "economy"},
	{"/business", "business"},
	{"/technology", "technology"},
	{"/tech", "technology"},
	{"/science", "science"},
	{"/health", "health"},
	{"/environment", "environment"},
	{"/climate", "environment"},
	{"/education", "education"},
	{"/world", "world"},
	{"/sports", "sports"},
}

// InferCategory maps the path of a listing URL onto a section name.
func InferCategory(listingURL string) string {
	p := listingURL
	if u, err := url.Parse(listingURL); err == nil {
		p = u.Path
	}
	lower := strings.ToLower(p)
	for _, c := range categoryFragments {
		if strings.Contains(lower, c.fragment) {
			return c.category
		}
	}
	return DefaultCategory
}
