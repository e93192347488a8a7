package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/service"
	"github.com/readalikeapp/readalike-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns catalog books, optionally filtered by genre",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Add book",
		Description: "Adds a book to the shared catalog, reusing an existing entry when the ISBN or title and author already match one",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "topBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/top",
		Summary:     "Most favorited books",
		Description: "Returns the most favorited catalog books",
		Tags:        []string{"Books"},
	}, s.handleTopBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookID}",
		Summary:     "Get book",
		Description: "Returns a catalog book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)
}

// === DTOs ===

// BookResponse contains catalog book data in API responses.
type BookResponse struct {
	ID        string `json:"id" doc:"Book ID"`
	Title     string `json:"title" doc:"Book title"`
	Author    string `json:"author" doc:"Author display name"`
	Genre     string `json:"genre" doc:"Genre (fiction or nonfiction)"`
	SubGenre  string `json:"sub_genre,omitempty" doc:"Free-text sub-genre"`
	ISBN      string `json:"isbn,omitempty" doc:"ISBN-13 when known"`
	IsPopular bool   `json:"is_popular" doc:"Whether the book is flagged as popular"`
}

// ListBooksInput contains query parameters for listing books.
type ListBooksInput struct {
	Genre    string `query:"genre" doc:"Filter by genre (fiction or nonfiction)"`
	SubGenre string `query:"sub_genre" doc:"Filter by sub-genre"`
	Popular  bool   `query:"popular" doc:"Only popular books"`
	Limit    int    `query:"limit" default:"100" minimum:"1" maximum:"500" doc:"Page size"`
	Offset   int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// ListBooksResponse contains a page of catalog books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Catalog books"`
}

// ListBooksOutput wraps the book list for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// CreateBookRequest is the request body for adding a book.
type CreateBookRequest struct {
	Title    string `json:"title" validate:"required,max=255" doc:"Book title"`
	Author   string `json:"author" validate:"required,max=255" doc:"Author name"`
	Genre    string `json:"genre,omitempty" validate:"omitempty,oneof=fiction nonfiction" doc:"Genre, defaults to fiction"`
	SubGenre string `json:"sub_genre,omitempty" validate:"omitempty,max=100" doc:"Free-text sub-genre"`
	ISBN     string `json:"isbn,omitempty" validate:"omitempty,max=17" doc:"ISBN, hyphens allowed"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// CreateBookResponse pairs the stored book with whether it already existed.
type CreateBookResponse struct {
	Book    BookResponse `json:"book" doc:"Stored catalog book"`
	Created bool         `json:"created" doc:"False when an existing entry was reused"`
}

// CreateBookOutput wraps the create book response for Huma.
type CreateBookOutput struct {
	Body CreateBookResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
}

// BookOutput wraps a single book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// TopBooksInput contains query parameters for the top books list.
type TopBooksInput struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"How many books to return"`
}

// TopBookResponse pairs a book with its favorite count.
type TopBookResponse struct {
	Book          BookResponse `json:"book" doc:"Catalog book"`
	FavoriteCount int          `json:"favorite_count" doc:"How many readers favorited it"`
}

// TopBooksResponse contains the most favorited books.
type TopBooksResponse struct {
	Books []TopBookResponse `json:"books" doc:"Most favorited books, descending"`
}

// TopBooksOutput wraps the top books response for Huma.
type TopBooksOutput struct {
	Body TopBooksResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	books, err := s.services.Catalog.ListBooks(ctx, store.BookFilter{
		Genre:       domain.Genre(input.Genre),
		SubGenre:    input.SubGenre,
		PopularOnly: input.Popular,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = mapBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*CreateBookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, created, err := s.services.Catalog.CreateBook(ctx, service.CreateBookRequest{
		Title:    input.Body.Title,
		Author:   input.Body.Author,
		Genre:    input.Body.Genre,
		SubGenre: input.Body.SubGenre,
		ISBN:     input.Body.ISBN,
	})
	if err != nil {
		return nil, err
	}

	return &CreateBookOutput{
		Body: CreateBookResponse{
			Book:    mapBookResponse(book),
			Created: created,
		},
	}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Catalog.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleTopBooks(ctx context.Context, input *TopBooksInput) (*TopBooksOutput, error) {
	counts, err := s.services.Catalog.TopFavoritedBooks(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	resp := make([]TopBookResponse, len(counts))
	for i, c := range counts {
		resp[i] = TopBookResponse{
			Book:          mapBookResponse(c.Book),
			FavoriteCount: c.FavoriteCount,
		}
	}

	return &TopBooksOutput{Body: TopBooksResponse{Books: resp}}, nil
}

func mapBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     string(b.Genre),
		SubGenre:  b.SubGenre,
		ISBN:      b.ISBN,
		IsPopular: b.IsPopular,
	}
}
