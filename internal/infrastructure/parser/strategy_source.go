package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"NewsIngestor/internal/config"
	"NewsIngestor/internal/scanner"
)

// BuildSources binds every configured listing URL to its registered scanner.
// Sites keep their config order, categories keep theirs.
func BuildSources(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) ([]scanner.Source, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	var sources []scanner.Source
	for _, site := range sites {
		name := strings.TrimSpace(site.Scanner)
		if name == "" {
			name = "news"
		}
		strategy, err := reg.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		for _, cat := range site.Categories {
			if strings.TrimSpace(cat.URL) == "" {
				return nil, fmt.Errorf("site %s: category %q has no url", site.Name, cat.Name)
			}
			category := strings.TrimSpace(cat.Name)
			if category == "" {
				category = InferCategory(cat.URL)
			}
			sources = append(sources, scanner.Source{
				SiteName:   site.Name,
				Category:   category,
				ListingURL: cat.URL,
				Scanner:    strategy,
			})
		}

		if log != nil {
			log.Debug("site bound", "site", site.Name, "scanner", strategy.Name(), "listings", len(site.Categories))
		}
	}

	return sources, nil
}
