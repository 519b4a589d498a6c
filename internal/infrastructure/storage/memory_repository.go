package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

// MemoryRepository keeps articles in process memory. Used for dry runs and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]domain.Article
	bySource map[string]string
	now      func() time.Time
}

var _ ports.Sink = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]domain.Article),
		bySource: make(map[string]string),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Exists(_ context.Context, sourceID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySource[sourceID]
	return ok, nil
}

func (r *MemoryRepository) Insert(_ context.Context, article domain.Article) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySource[article.SourceID]; ok {
		return domain.Article{}, fmt.Errorf("insert %s: %w", article.SourceID, domain.ErrDuplicate)
	}

	now := r.now().UTC()
	article.ID = uuid.NewString()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.Metadata = domain.MergeMetadata(nil, article.Metadata)

	r.byID[article.ID] = article
	r.bySource[article.SourceID] = article.ID
	return article, nil
}

func (r *MemoryRepository) UpdateClassification(_ context.Context, id string, label domain.Label, patch map[string]any) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, ok := r.byID[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	}

	article.Interest = label
	article.Metadata = domain.MergeMetadata(article.Metadata, patch)
	article.UpdatedAt = r.now().UTC()
	r.byID[id] = article
	return article, nil
}

// Get returns a stored article by id.
func (r *MemoryRepository) Get(id string) (domain.Article, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// All returns every stored article in no particular order.
func (r *MemoryRepository) All() []domain.Article {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Article, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out
}
