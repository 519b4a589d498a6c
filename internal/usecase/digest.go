package usecase

import (
	"fmt"
	"strings"
	"time"

	"NewsIngestor/internal/domain"
)

// FormatDigest renders a run summary as a short plain-text message.
func FormatDigest(s domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "News ingestion run finished in %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Found %d, new %d, stored %d, interesting %d\n", s.Found, s.New, s.Stored, s.Interesting)

	failures := []struct {
		name  string
		count int
	}{
		{"fetch", s.FetchFailures},
		{"extraction", s.ExtractionFailures},
		{"embedding", s.EmbeddingFailures},
		{"transform", s.TransformFailures},
		{"classification", s.ClassificationFailures},
		{"persistence", s.PersistenceFailures},
	}
	var parts []string
	for _, f := range failures {
		if f.count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", f.name, f.count))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "Failures: %s\n", strings.Join(parts, ", "))
	}

	for _, e := range s.SourceErrors {
		fmt.Fprintf(&b, "Source error: %s\n", e)
	}
	return strings.TrimRight(b.String(), "\n")
}
