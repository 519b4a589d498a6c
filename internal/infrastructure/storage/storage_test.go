package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleArticle() domain.Article {
	author := "Jane Roe"
	return domain.Article{
		Source:      "news",
		SourceID:    "news:big-story",
		Title:       "Big story",
		Content:     "Body",
		URL:         "https://example.com/tech/big-story",
		Author:      &author,
		PublishedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Embedding:   &domain.Embedding{Vector: []float32{0.5, 0.25}, Model: "embed-small", Dimensions: 2},
		Metadata:    map[string]any{domain.MetaCategory: "tech"},
	}
}

func TestPostgresEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExists(t *testing.T) {
	repo, mock := newMock(t)
	query := regexp.QuoteMeta("SELECT 1 FROM articles WHERE source_id = $1 LIMIT 1")

	mock.ExpectQuery(query).WithArgs("news:known").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs("news:unknown").WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := repo.Exists(context.Background(), "news:known")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), "news:unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExistsError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT 1 FROM articles").WillReturnError(errors.New("connection reset"))

	_, err := repo.Exists(context.Background(), "news:x")
	assert.ErrorContains(t, err, "connection reset")
}

func TestPostgresInsert(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("7d9f", created, created))

	stored, err := repo.Insert(context.Background(), sampleArticle())
	require.NoError(t, err)

	assert.Equal(t, "7d9f", stored.ID)
	assert.Equal(t, created, stored.CreatedAt)
	assert.Equal(t, "Big story", stored.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertDuplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO articles").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	_, err := repo.Insert(context.Background(), sampleArticle())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestPostgresUpdateClassification(t *testing.T) {
	repo, mock := newMock(t)
	ts := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(articleColumns).AddRow(
		"7d9f", "news", "news:big-story", "Big story", "Body", "https://example.com/tech/big-story",
		nil, ts, "{0.5,0.25}", "embed-small", int64(2), true,
		[]byte(`{"category":"tech","reasoning":"concrete"}`), ts, ts,
	)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE articles SET is_interesting = $1, metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb")).
		WillReturnRows(rows)

	got, err := repo.UpdateClassification(context.Background(), "7d9f", domain.LabelInteresting, map[string]any{"reasoning": "concrete"})
	require.NoError(t, err)

	assert.Equal(t, domain.LabelInteresting, got.Interest)
	assert.Nil(t, got.Author)
	require.NotNil(t, got.Embedding)
	assert.Equal(t, []float32{0.5, 0.25}, got.Embedding.Vector)
	assert.Equal(t, 2, got.Embedding.Dimensions)
	assert.Equal(t, "tech", got.Metadata["category"])
	assert.Equal(t, "concrete", got.Metadata["reasoning"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateClassificationNullLabel(t *testing.T) {
	repo, mock := newMock(t)
	ts := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(articleColumns).AddRow(
		"7d9f", "news", "news:big-story", "Big story", "Body", "https://example.com/tech/big-story",
		"Meera Iyer", ts, nil, nil, nil, nil, nil, ts, ts,
	)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE articles SET is_interesting = $1")).WillReturnRows(rows)

	got, err := repo.UpdateClassification(context.Background(), "7d9f", domain.LabelUnknown, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.LabelUnknown, got.Interest)
	require.NotNil(t, got.Author)
	assert.Equal(t, "Meera Iyer", *got.Author)
	assert.Nil(t, got.Embedding)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateClassificationNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("UPDATE articles").WillReturnRows(sqlmock.NewRows(articleColumns))

	_, err := repo.UpdateClassification(context.Background(), "missing", domain.LabelUnknown, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// sinkContract runs the behaviour every sink must share.
func sinkContract(t *testing.T, sink ports.Sink) {
	t.Helper()
	ctx := context.Background()

	ok, err := sink.Exists(ctx, "news:big-story")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := sink.Insert(ctx, sampleArticle())
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	ok, err = sink.Exists(ctx, "news:big-story")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = sink.Insert(ctx, sampleArticle())
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	updated, err := sink.UpdateClassification(ctx, stored.ID, domain.LabelNotInteresting, map[string]any{domain.MetaReasoning: "generic"})
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotInteresting, updated.Interest)
	assert.Equal(t, "tech", updated.Metadata[domain.MetaCategory])
	assert.Equal(t, "generic", updated.Metadata[domain.MetaReasoning])

	_, err = sink.UpdateClassification(ctx, "missing", domain.LabelUnknown, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	sinkContract(t, repo)
	assert.Len(t, repo.All(), 1)
}

func TestMemoryRepositoryDoesNotAliasMetadata(t *testing.T) {
	repo := NewMemoryRepository()
	a := sampleArticle()
	stored, err := repo.Insert(context.Background(), a)
	require.NoError(t, err)

	a.Metadata["category"] = "changed"
	got, ok := repo.Get(stored.ID)
	require.True(t, ok)
	assert.Equal(t, "tech", got.Metadata["category"])
}

func TestBadgerRepository(t *testing.T) {
	repo, err := OpenBadger("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	sinkContract(t, repo)
}

func TestBadgerRepositoryOnDisk(t *testing.T) {
	dir := t.TempDir()
	repo, err := OpenBadger(dir, false, nil)
	require.NoError(t, err)

	stored, err := repo.Insert(context.Background(), sampleArticle())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := OpenBadger(dir, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	ok, err := reopened.Exists(context.Background(), "news:big-story")
	require.NoError(t, err)
	assert.True(t, ok)

	updated, err := reopened.UpdateClassification(context.Background(), stored.ID, domain.LabelInteresting, nil)
	require.NoError(t, err)
	assert.Equal(t, "Big story", updated.Title)
	require.NotNil(t, updated.Embedding)
	assert.Equal(t, "embed-small", updated.Embedding.Model)
}
