package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pedbook/internal/cache"
	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
)

type catalogFixture struct {
	authors *MockAuthorRepository
	books   *MockBookRepository
	loans   *MockLoanRepository
	images  *MockImageStore
	authorS AuthorService
	bookS   BookService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		authors: new(MockAuthorRepository),
		books:   new(MockBookRepository),
		loans:   new(MockLoanRepository),
		images:  new(MockImageStore),
	}
	disabled := cache.New("", "", 0)
	f.authorS = NewAuthorService(f.authors, f.images, disabled)
	f.bookS = NewBookService(f.books, f.loans, f.authorS, f.images, disabled)
	return f
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "", want: ""},
		{raw: "978-0-306-40615-7", want: "9780306406157"},
		{raw: "0 306 40615 2", want: "0306406152"},
		{raw: "080442957x", want: "080442957X"},
		{raw: "978-0-306-40615-8", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeISBN(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrInvalidISBN, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestBookService_CreateBook(t *testing.T) {
	f := newCatalogFixture()
	author := &model.Author{ID: 2, Name: "Machado de Assis"}
	f.authors.On("FindByID", mock.Anything, uint(2)).Return(author, nil)
	f.books.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
		return b.Title == "Dom Casmurro" && b.ISBN == "9780306406157"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Book).ID = 10
	})
	f.books.On("FindByID", mock.Anything, uint(10)).Return(&model.Book{ID: 10, Title: "Dom Casmurro", AuthorID: 2}, nil)

	book, err := f.bookS.CreateBook(context.Background(), BookInput{Title: " Dom Casmurro ", ISBN: "978-0-306-40615-7", AuthorID: 2})
	require.NoError(t, err)
	assert.Equal(t, uint(10), book.ID)
	require.NotNil(t, book.Author)
	assert.Equal(t, "Machado de Assis", book.Author.Name)
}

func TestBookService_CreateBookUnknownAuthor(t *testing.T) {
	f := newCatalogFixture()
	f.authors.On("FindByID", mock.Anything, uint(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.bookS.CreateBook(context.Background(), BookInput{Title: "Helena", AuthorID: 2})
	assert.ErrorIs(t, err, apperrors.ErrAuthorNotFound)
	f.books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookService_DeleteBlockedByActiveLoans(t *testing.T) {
	f := newCatalogFixture()
	f.books.On("FindByID", mock.Anything, uint(10)).Return(&model.Book{ID: 10}, nil)
	f.loans.On("CountActiveByBook", mock.Anything, uint(10)).Return(int64(1), nil)

	assert.ErrorIs(t, f.bookS.DeleteBook(context.Background(), 10), apperrors.ErrBookHasActiveLoans)
	f.books.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestBookService_DeleteThenGetIsNotFound(t *testing.T) {
	f := newCatalogFixture()
	f.books.On("FindByID", mock.Anything, uint(10)).Return(&model.Book{ID: 10}, nil).Once()
	f.loans.On("CountActiveByBook", mock.Anything, uint(10)).Return(int64(0), nil)
	f.books.On("Delete", mock.Anything, uint(10)).Return(nil)
	f.books.On("FindByID", mock.Anything, uint(10)).Return(nil, gorm.ErrRecordNotFound)

	ctx := context.Background()
	require.NoError(t, f.bookS.DeleteBook(ctx, 10))
	_, err := f.bookS.GetBook(ctx, 10)
	assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
}

func TestBookService_SetBookPhotoReplacesPrevious(t *testing.T) {
	f := newCatalogFixture()
	body := bytes.NewReader([]byte("img"))
	f.books.On("FindByID", mock.Anything, uint(10)).Return(&model.Book{ID: 10, Photo: "/uploads/books/old-1a2b3c4d.png"}, nil)
	f.images.On("Save", KindBooks, "cover.png", body).Return("/uploads/books/cover-5e6f7a8b.png", nil)
	f.books.On("Update", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)
	f.images.On("Remove", "/uploads/books/old-1a2b3c4d.png").Return(nil)

	book, err := f.bookS.SetBookPhoto(context.Background(), 10, "cover.png", body)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/books/cover-5e6f7a8b.png", book.Photo)
	f.images.AssertExpectations(t)
}

func TestAuthorService_DeleteBlockedByBooks(t *testing.T) {
	f := newCatalogFixture()
	f.authors.On("FindByID", mock.Anything, uint(2)).Return(&model.Author{ID: 2}, nil)
	f.authors.On("CountBooks", mock.Anything, uint(2)).Return(int64(3), nil)

	assert.ErrorIs(t, f.authorS.DeleteAuthor(context.Background(), 2), apperrors.ErrAuthorHasBooks)
	f.authors.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAuthorService_GetMissingAuthor(t *testing.T) {
	f := newCatalogFixture()
	f.authors.On("FindByID", mock.Anything, uint(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.authorS.GetAuthor(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrAuthorNotFound)
}
