package domain

// MaxExplanationLength caps the optional note a reader can attach to a
// favorite, in characters.
const MaxExplanationLength = 500

// Favorite marks one book as loved by one user. A user favorites a given
// book at most once; the pair (UserID, BookID) is unique.
//
// The optional explanation ("read this in one sitting on a train") travels
// with the favorite and surfaces in recommendations built from it.
type Favorite struct {
	Record
	UserID      string `json:"user_id"`
	BookID      string `json:"book_id"`
	Explanation string `json:"explanation,omitempty"`
}

// HasExplanation reports whether the reader attached a note to this favorite.
func (f *Favorite) HasExplanation() bool {
	return f.Explanation != ""
}
