package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// TBRService manages to-be-read piles.
type TBRService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTBRService creates a new to-be-read service.
func NewTBRService(store store.Store, logger *slog.Logger) *TBRService {
	return &TBRService{
		store:  store,
		logger: logger,
	}
}

// TBREntryWithBook pairs a to-be-read entry with its book for display.
type TBREntryWithBook struct {
	Book    *domain.Book `json:"book"`
	Note    string       `json:"note,omitempty"`
	AddedAt time.Time    `json:"added_at"`
}

// Add puts a book on the user's to-be-read pile with an optional note.
func (s *TBRService) Add(ctx context.Context, userID, bookID, note string) (*domain.ToBeRead, error) {
	if len(note) > domain.MaxTBRNoteLength {
		return nil, domainerrors.Validationf("note must not exceed %d characters", domain.MaxTBRNoteLength)
	}

	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	entryID, err := id.Generate("tbr")
	if err != nil {
		return nil, fmt.Errorf("generate entry ID: %w", err)
	}

	entry := &domain.ToBeRead{
		Record: domain.Record{
			ID: entryID,
		},
		UserID: userID,
		BookID: bookID,
		Note:   note,
	}
	entry.InitTimestamps()

	if err := s.store.AddToBeRead(ctx, entry); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("book already on to-be-read pile")
		}
		return nil, fmt.Errorf("add to-be-read: %w", err)
	}

	return entry, nil
}

// Remove takes a book off the user's to-be-read pile.
func (s *TBRService) Remove(ctx context.Context, userID, bookID string) error {
	if err := s.store.RemoveToBeRead(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("book not on to-be-read pile")
		}
		return fmt.Errorf("remove to-be-read: %w", err)
	}
	return nil
}

// List returns the user's to-be-read pile with book details, newest first.
func (s *TBRService) List(ctx context.Context, userID string) ([]TBREntryWithBook, error) {
	entries, err := s.store.ListToBeRead(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list to-be-read: %w", err)
	}
	if len(entries) == 0 {
		return []TBREntryWithBook{}, nil
	}

	bookIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		bookIDs = append(bookIDs, entry.BookID)
	}
	books, err := s.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	booksByID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		booksByID[b.ID] = b
	}

	out := make([]TBREntryWithBook, 0, len(entries))
	for _, entry := range entries {
		book := booksByID[entry.BookID]
		if book == nil {
			continue
		}
		out = append(out, TBREntryWithBook{
			Book:    book,
			Note:    entry.Note,
			AddedAt: entry.CreatedAt,
		})
	}
	return out, nil
}
