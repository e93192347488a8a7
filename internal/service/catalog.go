package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/readalikeapp/readalike-server/internal/domain"
	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/normalize"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// CatalogService manages books and authors.
type CatalogService struct {
	store  store.Store
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store store.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger,
	}
}

// CreateBookRequest contains the data for adding a book to the catalog.
type CreateBookRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Author   string `json:"author" validate:"required,max=255"`
	Genre    string `json:"genre" validate:"omitempty,oneof=fiction nonfiction"`
	SubGenre string `json:"sub_genre" validate:"omitempty,max=100"`
	ISBN     string `json:"isbn" validate:"omitempty,max=17"`
}

// CreateBook adds a book to the catalog, reusing an existing entry when the
// ISBN or the (title, author) pair already matches one. The returned bool
// reports whether a new book was created.
func (s *CatalogService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, bool, error) {
	if err := validate.Validate(req); err != nil {
		return nil, false, err
	}

	// ISBN is the strongest identity signal, so it wins over title matching.
	isbn := normalize.ISBN(req.ISBN)
	if isbn != "" {
		existing, err := s.store.GetBookByISBN(ctx, isbn)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("lookup book by isbn: %w", err)
		}
	}

	author, authorCreated, err := s.store.FindOrCreateAuthor(ctx, req.Author)
	if err != nil {
		return nil, false, fmt.Errorf("find or create author: %w", err)
	}
	if authorCreated {
		s.logger.Debug("Author created", "author_id", author.ID, "name", author.Name)
	}

	genre := domain.Genre(req.Genre)
	if genre == "" {
		genre = domain.GenreFiction
	}

	bookID, err := id.Generate("bok")
	if err != nil {
		return nil, false, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Record: domain.Record{
			ID: bookID,
		},
		Title:           strings.TrimSpace(req.Title),
		NormalizedTitle: normalize.Key(req.Title),
		AuthorID:        author.ID,
		Author:          author.Name,
		Genre:           genre,
		SubGenre:        strings.TrimSpace(req.SubGenre),
		ISBN:            isbn,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Someone already added this title for this author.
			existing, getErr := s.store.GetBookByTitleAuthor(ctx, book.NormalizedTitle, author.ID)
			if getErr != nil {
				return nil, false, fmt.Errorf("fetch existing book: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("Book created", "book_id", bookID, "title", book.Title, "author", author.Name)
	return book, true, nil
}

// GetBook retrieves a single book.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns books matching the filter, title order.
func (s *CatalogService) ListBooks(ctx context.Context, filter store.BookFilter) ([]*domain.Book, error) {
	filter.Validate()

	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// TopFavoritedBooks returns the most-favorited books with their counts.
// Books nobody favorited are left out.
func (s *CatalogService) TopFavoritedBooks(ctx context.Context, limit int) ([]*store.BookFavoriteCount, error) {
	top, err := s.store.TopFavoritedBooks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top favorited books: %w", err)
	}
	return top, nil
}
