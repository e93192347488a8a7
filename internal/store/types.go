package store

import (
	"github.com/readalikeapp/readalike-server/internal/domain"
)

// BookFilter narrows ListBooks results.
type BookFilter struct {
	Genre       domain.Genre // empty means all genres
	SubGenre    string       // empty means all sub-genres
	PopularOnly bool
	Limit       int // defaults to 100 with a maximum of 500
	Offset      int
}

// Validate checks and corrects filter parameters.
func (f *BookFilter) Validate() {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// BookFavoriteCount pairs a book with how many users favorited it.
type BookFavoriteCount struct {
	Book          *domain.Book `json:"book"`
	FavoriteCount int          `json:"favorite_count"`
}
