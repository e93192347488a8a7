package domain

// MaxTBRNoteLength caps the optional note on a to-be-read entry.
const MaxTBRNoteLength = 500

// ToBeRead is one entry on a user's to-be-read pile. Like favorites, the
// pair (UserID, BookID) is unique. Favoriting a book removes it from the
// pile, since a loved book has by definition been read.
type ToBeRead struct {
	Record
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
	Note   string `json:"note,omitempty"`
}
