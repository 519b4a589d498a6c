package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsIngestor/internal/ports"
)

// Deduplicator answers whether a candidate still needs processing.
type Deduplicator struct {
	sink    ports.Sink
	timeout time.Duration
}

func NewDeduplicator(sink ports.Sink, timeout time.Duration) *Deduplicator {
	return &Deduplicator{sink: sink, timeout: timeout}
}

// IsNew is true when no stored article carries sourceID.
func (d *Deduplicator) IsNew(ctx context.Context, sourceID string) (bool, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	exists, err := d.sink.Exists(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("dedup %s: %w", sourceID, err)
	}
	return !exists, nil
}
