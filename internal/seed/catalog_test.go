package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedbook/internal/db"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

const catalogJSON = `{
  "authors": [
    {
      "name": "Machado de Assis",
      "biography": "Brazilian novelist.",
      "books": [
        {"title": "Dom Casmurro", "isbn": "978-0-306-40615-7"},
        {"title": "Quincas Borba"},
        {"title": "Broken", "isbn": "123"}
      ]
    },
    {"name": "  "}
  ]
}`

func newImporter(t *testing.T) (*Importer, repository.BookRepository) {
	t.Helper()
	gormDB, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	books := repository.NewBookRepository(gormDB)
	return NewImporter(repository.NewAuthorRepository(gormDB), books), books
}

func TestFetch_FileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	fromFile, err := Fetch(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, fromFile.Authors, 2)
	assert.Len(t, fromFile.Authors[0].Books, 3)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	fromURL, err := Fetch(context.Background(), srv.URL+"/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromURL)

	_, err = Fetch(context.Background(), srv.URL+"/missing.json")
	assert.Error(t, err)
}

func TestImporter_IsIdempotent(t *testing.T) {
	im, books := newImporter(t)
	ctx := context.Background()

	var catalog Catalog
	catalog.Authors = []CatalogAuthor{
		{Name: "Machado de Assis", Biography: "Brazilian novelist.", Books: []CatalogBook{
			{Title: "Dom Casmurro", ISBN: "978-0-306-40615-7"},
			{Title: "Quincas Borba"},
			{Title: "Broken", ISBN: "123"},
		}},
		{Name: "  "},
	}

	res, err := im.Import(ctx, &catalog)
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsCreated: 1, BooksCreated: 2, Skipped: 2}, res)

	catalog.Authors[0].Books[1].Description = "A philosopher's dog."
	res, err = im.Import(ctx, &catalog)
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsUpdated: 1, BooksUpdated: 2, Skipped: 2}, res)

	list, total, err := books.List(ctx, model.ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "9780306406157", list[0].ISBN)
	assert.Equal(t, "A philosopher's dog.", list[1].Description)
}
