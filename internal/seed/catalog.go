package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"pedbook/internal/model"
	"pedbook/internal/repository"
	"pedbook/internal/service"
)

// CatalogAuthor is one author of a seed catalog with the books to create.
type CatalogAuthor struct {
	Name      string        `json:"name" validate:"required"`
	Biography string        `json:"biography"`
	Books     []CatalogBook `json:"books" validate:"dive"`
}

// CatalogBook is one book of a seed catalog.
type CatalogBook struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ISBN        string `json:"isbn"`
}

// Catalog is the seed file format.
type Catalog struct {
	Authors []CatalogAuthor `json:"authors" validate:"required,dive"`
}

// Result counts what an import changed.
type Result struct {
	AuthorsCreated int `json:"authors_created"`
	AuthorsUpdated int `json:"authors_updated"`
	BooksCreated   int `json:"books_created"`
	BooksUpdated   int `json:"books_updated"`
	Skipped        int `json:"skipped"`
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Fetch reads a catalog from a local file or an http(s) URL.
func Fetch(ctx context.Context, source string) (*Catalog, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("catalog source returned status code: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		body = f
	}
	defer body.Close()

	var catalog Catalog
	if err := json.NewDecoder(body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &catalog, nil
}

// Importer upserts catalog entries: authors by name, books by title within an author.
type Importer struct {
	authors repository.AuthorRepository
	books   repository.BookRepository
}

// NewImporter creates an Importer.
func NewImporter(authors repository.AuthorRepository, books repository.BookRepository) *Importer {
	return &Importer{authors: authors, books: books}
}

// Import writes the catalog. Entries with a blank name or title, or an invalid
// ISBN, are skipped and counted.
func (im *Importer) Import(ctx context.Context, catalog *Catalog) (Result, error) {
	var res Result
	for _, item := range catalog.Authors {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			log.Printf("Skipping author without a name")
			res.Skipped++
			continue
		}

		author, created, err := im.upsertAuthor(ctx, name, item.Biography)
		if err != nil {
			return res, err
		}
		if created {
			res.AuthorsCreated++
		} else {
			res.AuthorsUpdated++
		}

		for _, b := range item.Books {
			title := strings.TrimSpace(b.Title)
			code, err := service.NormalizeISBN(b.ISBN)
			if title == "" || err != nil {
				log.Printf("Skipping book %q of %s: missing title or invalid isbn", b.Title, name)
				res.Skipped++
				continue
			}

			created, err := im.upsertBook(ctx, author.ID, title, strings.TrimSpace(b.Description), code)
			if err != nil {
				return res, err
			}
			if created {
				res.BooksCreated++
			} else {
				res.BooksUpdated++
			}
		}
	}
	return res, nil
}

func (im *Importer) upsertAuthor(ctx context.Context, name, biography string) (*model.Author, bool, error) {
	author, err := im.authors.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		author = &model.Author{Name: name, Biography: strings.TrimSpace(biography)}
		if err := im.authors.Create(ctx, author); err != nil {
			return nil, false, fmt.Errorf("create author %s: %w", name, err)
		}
		return author, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find author %s: %w", name, err)
	}

	if bio := strings.TrimSpace(biography); bio != "" && bio != author.Biography {
		author.Biography = bio
		if err := im.authors.Update(ctx, author); err != nil {
			return nil, false, fmt.Errorf("update author %s: %w", name, err)
		}
	}
	return author, false, nil
}

func (im *Importer) upsertBook(ctx context.Context, authorID uint, title, description, isbn string) (bool, error) {
	book, err := im.books.FindByTitleAndAuthor(ctx, title, authorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		book = &model.Book{Title: title, Description: description, ISBN: isbn, AuthorID: authorID}
		if err := im.books.Create(ctx, book); err != nil {
			return false, fmt.Errorf("create book %s: %w", title, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("find book %s: %w", title, err)
	}

	if description != "" {
		book.Description = description
	}
	if isbn != "" {
		book.ISBN = isbn
	}
	book.Author = nil
	if err := im.books.Update(ctx, book); err != nil {
		return false, fmt.Errorf("update book %s: %w", title, err)
	}
	return false, nil
}
