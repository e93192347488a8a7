package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerFavoriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Description: "Returns the current user's favorites, newest first",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/favorites/{bookID}",
		Summary:     "Add favorite",
		Description: "Marks a book as a favorite, with an optional explanation. Adding a favorite triggers a digest pass for readers sharing a favorite with you.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/favorites/{bookID}",
		Summary:     "Remove favorite",
		Description: "Removes a book from the current user's favorites",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFavoriteExplanation",
		Method:      http.MethodPut,
		Path:        "/api/v1/favorites/{bookID}/explanation",
		Summary:     "Set favorite explanation",
		Description: "Sets or clears the note explaining why this book is a favorite",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetFavoriteExplanation)
}

// === DTOs ===

// FavoriteResponse contains one favorite with its book.
type FavoriteResponse struct {
	Book        BookResponse `json:"book" doc:"Favorited book"`
	Explanation string       `json:"explanation,omitempty" doc:"Why this book is a favorite"`
	FavoritedAt time.Time    `json:"favorited_at" doc:"When it was favorited"`
}

// ListFavoritesResponse contains the user's favorites.
type ListFavoritesResponse struct {
	Favorites []FavoriteResponse `json:"favorites" doc:"Favorites, newest first"`
}

// ListFavoritesOutput wraps the favorites list for Huma.
type ListFavoritesOutput struct {
	Body ListFavoritesResponse
}

// AddFavoriteRequest is the request body for adding a favorite.
type AddFavoriteRequest struct {
	Explanation string `json:"explanation,omitempty" validate:"omitempty,max=500" doc:"Why you love this book (optional)"`
}

// AddFavoriteInput wraps the add favorite request for Huma.
type AddFavoriteInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
	Body   AddFavoriteRequest
}

// FavoriteOutput wraps a single favorite response for Huma.
type FavoriteOutput struct {
	Body FavoriteResponse
}

// RemoveFavoriteInput contains parameters for removing a favorite.
type RemoveFavoriteInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
}

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// SetExplanationRequest is the request body for updating an explanation.
// An empty explanation clears the note.
type SetExplanationRequest struct {
	Explanation string `json:"explanation" validate:"max=500" doc:"New explanation, empty to clear"`
}

// SetExplanationInput wraps the explanation update for Huma.
type SetExplanationInput struct {
	BookID string `path:"bookID" doc:"Book ID"`
	Body   SetExplanationRequest
}

// === Handlers ===

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*ListFavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	favorites, err := s.services.Favorite.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]FavoriteResponse, len(favorites))
	for i, f := range favorites {
		resp[i] = FavoriteResponse{
			Book:        mapBookResponse(f.Book),
			Explanation: f.Explanation,
			FavoritedAt: f.FavoritedAt,
		}
	}

	return &ListFavoritesOutput{Body: ListFavoritesResponse{Favorites: resp}}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *AddFavoriteInput) (*FavoriteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	fav, err := s.services.Favorite.AddFavorite(ctx, userID, input.BookID, input.Body.Explanation)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	return &FavoriteOutput{
		Body: FavoriteResponse{
			Book:        mapBookResponse(book),
			Explanation: fav.Explanation,
			FavoritedAt: fav.CreatedAt,
		},
	}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *RemoveFavoriteInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Favorite.RemoveFavorite(ctx, userID, input.BookID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Favorite removed"}}, nil
}

func (s *Server) handleSetFavoriteExplanation(ctx context.Context, input *SetExplanationInput) (*FavoriteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	fav, err := s.services.Favorite.SetExplanation(ctx, userID, input.BookID, input.Body.Explanation)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	return &FavoriteOutput{
		Body: FavoriteResponse{
			Book:        mapBookResponse(book),
			Explanation: fav.Explanation,
			FavoritedAt: fav.CreatedAt,
		},
	}, nil
}
