package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

const articlesTable = "articles"

var articleColumns = []string{
	"id", "source", "source_id", "title", "content", "url", "author", "published_at",
	"embedding", "embedding_model", "embedding_dimensions", "is_interesting", "metadata",
	"created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.Sink = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the articles table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Exists reports whether an article with sourceID is stored.
func (r *PostgresRepository) Exists(ctx context.Context, sourceID string) (bool, error) {
	query, args, err := psql.Select("1").
		From(articlesTable).
		Where(sq.Eq{"source_id": sourceID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Insert stores a new article; the database assigns id and timestamps.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.Article) (domain.Article, error) {
	metadata, err := marshalMetadata(article.Metadata)
	if err != nil {
		return domain.Article{}, err
	}

	var (
		vector any
		model  any
		dims   any
	)
	if article.Embedding != nil {
		vector = pq.Array(article.Embedding.Vector)
		model = article.Embedding.Model
		dims = article.Embedding.Dimensions
	}

	query, args, err := psql.Insert(articlesTable).
		Columns(
			"source", "source_id", "title", "content", "url", "author", "published_at",
			"embedding", "embedding_model", "embedding_dimensions", "is_interesting", "metadata",
		).
		Values(
			article.Source, article.SourceID, article.Title, article.Content, article.URL,
			article.Author, article.PublishedAt.UTC(),
			vector, model, dims, article.Interest.Bool(), metadata,
		).
		Suffix("ON CONFLICT (source_id) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Article{}, fmt.Errorf("insert %s: %w", article.SourceID, domain.ErrDuplicate)
	case err != nil:
		return domain.Article{}, fmt.Errorf("insert %s: %w", article.SourceID, err)
	}

	return article, nil
}

// UpdateClassification sets the label and merges patch into metadata with jsonb concatenation.
func (r *PostgresRepository) UpdateClassification(ctx context.Context, id string, label domain.Label, patch map[string]any) (domain.Article, error) {
	patchJSON, err := marshalMetadata(patch)
	if err != nil {
		return domain.Article{}, err
	}

	query, args, err := psql.Update(articlesTable).
		Set("is_interesting", label.Bool()).
		Set("metadata", sq.Expr("COALESCE(metadata, '{}'::jsonb) || ?::jsonb", patchJSON)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(articleColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build update: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Article{}, fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	case err != nil:
		return domain.Article{}, fmt.Errorf("update %s: %w", id, err)
	}
	return article, nil
}

func scanArticle(row *sql.Row) (domain.Article, error) {
	var (
		a        domain.Article
		author   sql.NullString
		vector   pq.Float32Array
		model    sql.NullString
		dims     sql.NullInt64
		interest sql.NullBool
		metadata []byte
	)

	err := row.Scan(
		&a.ID, &a.Source, &a.SourceID, &a.Title, &a.Content, &a.URL, &author, &a.PublishedAt,
		&vector, &model, &dims, &interest, &metadata, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	if author.Valid {
		a.Author = &author.String
	}
	if len(vector) > 0 {
		a.Embedding = &domain.Embedding{Vector: []float32(vector), Model: model.String, Dimensions: int(dims.Int64)}
	}
	var label *bool
	if interest.Valid {
		label = &interest.Bool
	}
	a.Interest = domain.LabelFromNullable(label)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return domain.Article{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return a, nil
}

// marshalMetadata returns a string; lib/pq would send []byte as bytea.
func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(raw), nil
}
