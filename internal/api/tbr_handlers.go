package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTBRRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTBR",
		Method:      http.MethodGet,
		Path:        "/api/v1/tbr",
		Summary:     "List to-be-read entries",
		Description: "Returns the current user's to-be-read list, most recently added first",
		Tags:        []string{"TBR"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTBR)

	huma.Register(s.api, huma.Operation{
		OperationID: "addTBR",
		Method:      http.MethodPut,
		Path:        "/api/v1/tbr/{bookID}",
		Summary:     "Add a book to the to-be-read list",
		Description: "Puts a book on the current user's to-be-read pile with an optional note",
		Tags:        []string{"TBR"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddTBR)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeTBR",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tbr/{bookID}",
		Summary:     "Remove a book from the to-be-read list",
		Tags:        []string{"TBR"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveTBR)
}

// === DTOs ===

// TBREntryResponse contains a to-be-read entry with its book.
type TBREntryResponse struct {
	Book    BookResponse `json:"book"`
	Note    string       `json:"note,omitempty" doc:"Optional note on why this book is on the list"`
	AddedAt time.Time    `json:"added_at"`
}

// ListTBRResponse contains the user's to-be-read list.
type ListTBRResponse struct {
	Entries []TBREntryResponse `json:"entries"`
	Total   int                `json:"total"`
}

// ListTBROutput wraps the to-be-read list for Huma.
type ListTBROutput struct {
	Body ListTBRResponse
}

// AddTBRRequest contains the optional note for a to-be-read entry.
type AddTBRRequest struct {
	Note string `json:"note,omitempty" validate:"omitempty,max=500" doc:"Optional note, up to 500 characters"`
}

// AddTBRInput combines the path parameter and body for adding an entry.
type AddTBRInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
	Body   AddTBRRequest
}

// TBREntryOutput wraps a single to-be-read entry for Huma.
type TBREntryOutput struct {
	Body TBREntryResponse
}

// RemoveTBRInput contains the path parameter for removing an entry.
type RemoveTBRInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleListTBR(ctx context.Context, _ *struct{}) (*ListTBROutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.TBR.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ListTBRResponse{
		Entries: make([]TBREntryResponse, 0, len(entries)),
		Total:   len(entries),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, TBREntryResponse{
			Book:    mapBookResponse(entry.Book),
			Note:    entry.Note,
			AddedAt: entry.AddedAt,
		})
	}

	return &ListTBROutput{Body: resp}, nil
}

func (s *Server) handleAddTBR(ctx context.Context, input *AddTBRInput) (*TBREntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.TBR.Add(ctx, userID, input.BookID, input.Body.Note)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	return &TBREntryOutput{
		Body: TBREntryResponse{
			Book:    mapBookResponse(book),
			Note:    entry.Note,
			AddedAt: entry.CreatedAt,
		},
	}, nil
}

func (s *Server) handleRemoveTBR(ctx context.Context, input *RemoveTBRInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.TBR.Remove(ctx, userID, input.BookID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Removed from to-be-read list"}}, nil
}
