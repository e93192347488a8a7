package domain

// Author represents a book author. Authors are deduplicated on the
// normalized form of their name, so "Ursula K. Le Guin" and
// "ursula k. le guin" resolve to the same row.
type Author struct {
	Record
	Name           string `json:"name"`
	NormalizedName string `json:"-"`
}

// Genre is the coarse fiction/non-fiction split. Finer categories live in
// Book.SubGenre as free text.
type Genre string

const (
	GenreFiction    Genre = "fiction"
	GenreNonfiction Genre = "nonfiction"
)

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	return g == GenreFiction || g == GenreNonfiction
}

// Book represents one book in the shared catalog. Every user favorites the
// same catalog row, which is what makes overlap computation possible.
//
// Title plus author identifies a book; the normalized title backs the
// uniqueness constraint. ISBN is optional but unique when present.
type Book struct {
	Record
	Title           string `json:"title"`
	NormalizedTitle string `json:"-"`
	AuthorID        string `json:"author_id"`
	// Author is the display name, denormalized onto reads via join.
	Author    string `json:"author"`
	Genre     Genre  `json:"genre"`
	SubGenre  string `json:"sub_genre,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	IsPopular bool   `json:"is_popular"`
}

// Label returns "Title by Author", the display form used in email and logs.
func (b *Book) Label() string {
	if b.Author == "" {
		return b.Title
	}
	return b.Title + " by " + b.Author
}
