package parser

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/scanner"
)

const premiumSelector = ".premium, .prime, .locked, .paywall, .subscriber-only, [data-premium], [data-paywall]"

var defaultListingStrategies = []listingStrategy{
	{Container: "div.listing", Item: "li, article, .story-card"},
	{Container: "ul.news-list", Item: "li"},
	{Container: "section.articles", Item: "article"},
	{Container: "main", Item: "article"},
	{Container: "main", Item: "h2, h3"},
}

var defaultBodyContainers = []string{
	`[itemprop="articleBody"]`,
	"div.article-body",
	"div.story-content",
	"div.entry-content",
	"article",
	"main",
}

var bylinePattern = regexp.MustCompile(`(?:^|\s)[Bb]y\s+(\p{Lu}[\p{L}.'-]*(?:\s+\p{Lu}[\p{L}.'-]*){0,3})`)

// NewsScanner extracts listings and articles from common news-site markup.
type NewsScanner struct {
	listing []listingStrategy
	bodies  []string
	now     func() time.Time
	logger  *slog.Logger
}

var _ scanner.Scanner = (*NewsScanner)(nil)

// NewNewsScanner builds the default profile; now defaults to time.Now.
func NewNewsScanner(now func() time.Time, log *slog.Logger) *NewsScanner {
	if now == nil {
		now = time.Now
	}
	return &NewsScanner{
		listing: defaultListingStrategies,
		bodies:  defaultBodyContainers,
		now:     now,
		logger:  log,
	}
}

// Name identifies the strategy inside the registry.
func (n *NewsScanner) Name() string {
	return "news"
}

// ExtractListing tries each container layout and keeps the first that yields links.
// Premium entries are dropped from the result.
func (n *NewsScanner) ExtractListing(doc *goquery.Document, listingURL string) []domain.CandidateLink {
	base, err := url.Parse(listingURL)
	if err != nil {
		base = &url.URL{}
	}

	for i, strategy := range n.listing {
		entries := collectEntries(strategy.find(doc.Selection), base)
		if len(entries) == 0 {
			continue
		}

		links := make([]domain.CandidateLink, 0, len(entries))
		for _, e := range entries {
			if e.premium {
				continue
			}
			links = append(links, e.link)
		}
		n.debug("listing strategy matched",
			"strategy", i,
			"container", strategy.Container,
			"links", len(links),
			"premium_skipped", len(entries)-len(links))
		return links
	}

	n.debug("no listing strategy matched", "url", listingURL)
	return []domain.CandidateLink{}
}

// ExtractArticle pulls body, title, author and publish time from an article page.
func (n *NewsScanner) ExtractArticle(doc *goquery.Document, link domain.CandidateLink) (domain.ArticleFragment, error) {
	root := doc.Selection

	content := firstOf(root, paragraphs(n.bodies...))
	if content == "" {
		return domain.ArticleFragment{}, &domain.ExtractionError{URL: link.URL, Reason: "no article body"}
	}

	title := firstOf(root,
		selectorText("article h1", "h1"),
		selectorAttr("content", `meta[property="og:title"]`),
		selectorText("title"),
	)
	if title == "" {
		title = link.Title
	}
	if title == "" {
		return domain.ArticleFragment{}, &domain.ExtractionError{URL: link.URL, Reason: "no title"}
	}

	author := firstOf(root, authorFromAttributes, authorFromByline)
	published := firstOf(root, publishedFromAttributes, publishedFromText)

	return domain.ArticleFragment{
		Title:       title,
		Content:     content,
		Author:      author,
		PublishedAt: parseDate(published, n.now().UTC()),
	}, nil
}

func authorFromAttributes(doc *goquery.Selection) (string, bool) {
	return firstOfOK(doc,
		selectorAttr("content", `meta[name="author"]`, `meta[name="byl"]`),
		selectorText(`[itemprop="author"] [itemprop="name"]`, `[itemprop="author"]`, `a[rel="author"]`),
	)
}

var authorFromByline = textPattern(bylinePattern, ".byline", ".author", ".article-meta")

func publishedFromAttributes(doc *goquery.Selection) (string, bool) {
	return firstOfOK(doc,
		selectorAttr("content",
			`meta[property="article:published_time"]`,
			`meta[itemprop="datePublished"]`,
			`meta[name="pubdate"]`,
		),
		selectorAttr("datetime", "time[datetime]"),
	)
}

var publishedFromText = textPattern(datePattern, ".publish-date", ".date", "time", ".byline", ".article-meta")

func firstOfOK(doc *goquery.Selection, strategies ...textStrategy) (string, bool) {
	v := firstOf(doc, strategies...)
	return v, v != ""
}

type listingEntry struct {
	link    domain.CandidateLink
	premium bool
}

func collectEntries(items *goquery.Selection, base *url.URL) []listingEntry {
	entries := make([]listingEntry, 0, items.Length())
	seen := map[string]struct{}{}

	items.Each(func(_ int, item *goquery.Selection) {
		anchor := item
		if goquery.NodeName(item) != "a" {
			anchor = item.Find("a[href]").First()
		}
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		abs, ok := resolveLink(base, href)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		title := collapseSpace(anchor.Text())
		if title == "" {
			title = collapseSpace(item.Find("h2, h3, h4").First().Text())
		}
		if title == "" {
			title, _ = anchor.Attr("title")
		}

		entries = append(entries, listingEntry{
			link:    domain.CandidateLink{Title: strings.TrimSpace(title), URL: abs},
			premium: isPremium(item, anchor),
		})
	})

	return entries
}

func isPremium(item, anchor *goquery.Selection) bool {
	return item.Is(premiumSelector) ||
		anchor.Is(premiumSelector) ||
		item.Find(premiumSelector).Length() > 0 ||
		item.ParentsFiltered(premiumSelector).Length() > 0
}

func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func (n *NewsScanner) debug(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
