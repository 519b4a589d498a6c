package scanner

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"NewsIngestor/internal/domain"
)

// Source is one listing page to crawl, bound to the scanner that understands it.
type Source struct {
	SiteName   string
	Category   string
	ListingURL string
	Scanner    Scanner
}

// Scanner captures a single site integration (generic news markup, etc.).
type Scanner interface {
	Name() string
	// ExtractListing returns candidate links in document order; no match is an empty slice.
	ExtractListing(doc *goquery.Document, listingURL string) []domain.CandidateLink
	// ExtractArticle returns a *domain.ExtractionError when required markup is absent.
	ExtractArticle(doc *goquery.Document, link domain.CandidateLink) (domain.ArticleFragment, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
