package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
	"NewsIngestor/pkg/logger"
)

// Key prefixes.
const (
	articleKeyPrefix = "article"
	sourceKeyPrefix  = "source"
)

func articleKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", articleKeyPrefix, id))
}

func sourceKey(sourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", sourceKeyPrefix, sourceID))
}

// BadgerRepository stores articles in an embedded BadgerDB.
// Records are JSON encoded under article:<id>; source:<sourceID> indexes them.
type BadgerRepository struct {
	db  *badger.DB
	now func() time.Time
}

var _ ports.Sink = (*BadgerRepository)(nil)

// OpenBadger opens (or creates) the database directory at path.
func OpenBadger(path string, inMemory bool, log *slog.Logger) (*BadgerRepository, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = logger.NewBadger(log)
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerRepository{db: db, now: time.Now}, nil
}

func (r *BadgerRepository) Close() error {
	return r.db.Close()
}

func (r *BadgerRepository) Exists(_ context.Context, sourceID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(sourceKey(sourceID))
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup %s: %w", sourceID, err)
	}
	return true, nil
}

func (r *BadgerRepository) Insert(_ context.Context, article domain.Article) (domain.Article, error) {
	now := r.now().UTC()
	article.ID = uuid.NewString()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Metadata == nil {
		article.Metadata = map[string]any{}
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(sourceKey(article.SourceID))
		if err == nil {
			return domain.ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		raw, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		if err := txn.Set(articleKey(article.ID), raw); err != nil {
			return err
		}
		return txn.Set(sourceKey(article.SourceID), []byte(article.ID))
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert %s: %w", article.SourceID, err)
	}
	return article, nil
}

func (r *BadgerRepository) UpdateClassification(_ context.Context, id string, label domain.Label, patch map[string]any) (domain.Article, error) {
	var article domain.Article

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(articleKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &article); err != nil {
			return fmt.Errorf("decode article: %w", err)
		}

		article.Interest = label
		article.Metadata = domain.MergeMetadata(article.Metadata, patch)
		article.UpdatedAt = r.now().UTC()

		raw, err = json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		return txn.Set(articleKey(id), raw)
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("update %s: %w", id, err)
	}
	return article, nil
}
