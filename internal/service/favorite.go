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

// FavoriteService manages a user's favorite books. Adding a favorite is the
// event that drives everything else: it feeds the overlap engine and kicks
// off a digest pass over the actor's neighborhood.
type FavoriteService struct {
	store  store.Store
	digest *DigestService
	logger *slog.Logger
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(store store.Store, digest *DigestService, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		store:  store,
		digest: digest,
		logger: logger,
	}
}

// FavoriteWithBook pairs a favorite with its book for display.
type FavoriteWithBook struct {
	Book        *domain.Book `json:"book"`
	Explanation string       `json:"explanation,omitempty"`
	FavoritedAt time.Time    `json:"favorited_at"`
}

// AddFavorite marks a book as one of the user's favorites, with an optional
// explanation. The book leaves the user's to-be-read pile if it was there,
// and the digest pass runs for everyone sharing a favorite with this user.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, bookID, explanation string) (*domain.Favorite, error) {
	if len(explanation) > domain.MaxExplanationLength {
		return nil, domainerrors.Validationf("explanation must not exceed %d characters", domain.MaxExplanationLength)
	}

	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	favID, err := id.Generate("fav")
	if err != nil {
		return nil, fmt.Errorf("generate favorite ID: %w", err)
	}

	fav := &domain.Favorite{
		Record: domain.Record{
			ID: favID,
		},
		UserID:      userID,
		BookID:      bookID,
		Explanation: explanation,
	}
	fav.InitTimestamps()

	if err := s.store.CreateFavorite(ctx, fav); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("book already favorited")
		}
		return nil, fmt.Errorf("create favorite: %w", err)
	}

	// Reading intent satisfied.
	if err := s.store.RemoveToBeRead(ctx, userID, bookID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("Failed to clear to-be-read entry", "user_id", userID, "book_id", bookID, "error", err)
	}

	// The digest pass runs inline; its failures never surface to the
	// favoriting request.
	if sent, err := s.digest.RunDigestPass(ctx, userID); err != nil {
		s.logger.Warn("Digest pass failed", "actor_id", userID, "error", err)
	} else if sent > 0 {
		s.logger.Debug("Digest pass dispatched email", "actor_id", userID, "sent", sent)
	}

	return fav, nil
}

// RemoveFavorite unfavorites a book.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, bookID string) error {
	if err := s.store.DeleteFavorite(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("favorite not found")
		}
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// SetExplanation sets or clears the free-text explanation on a favorite.
func (s *FavoriteService) SetExplanation(ctx context.Context, userID, bookID, explanation string) (*domain.Favorite, error) {
	if len(explanation) > domain.MaxExplanationLength {
		return nil, domainerrors.Validationf("explanation must not exceed %d characters", domain.MaxExplanationLength)
	}

	if err := s.store.UpdateFavoriteExplanation(ctx, userID, bookID, explanation); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("favorite not found")
		}
		return nil, fmt.Errorf("update explanation: %w", err)
	}

	fav, err := s.store.GetFavorite(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return fav, nil
}

// ListFavorites returns the user's favorites with book details, newest first.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]FavoriteWithBook, error) {
	favs, err := s.store.GetFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure("load favorites", err)
	}
	if len(favs) == 0 {
		return []FavoriteWithBook{}, nil
	}

	bookIDs := make([]string, 0, len(favs))
	for _, fav := range favs {
		bookIDs = append(bookIDs, fav.BookID)
	}
	books, err := s.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, storeFailure("load favorite books", err)
	}
	booksByID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		booksByID[b.ID] = b
	}

	out := make([]FavoriteWithBook, 0, len(favs))
	for _, fav := range favs {
		book := booksByID[fav.BookID]
		if book == nil {
			continue
		}
		out = append(out, FavoriteWithBook{
			Book:        book,
			Explanation: fav.Explanation,
			FavoritedAt: fav.CreatedAt,
		})
	}
	return out, nil
}
