package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/readalikeapp/readalike-server/internal/domain"
	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// RecommendationService computes favorite-overlap recommendations: readers
// who share favorites with the target, and the books those readers loved
// that the target hasn't favorited yet.
type RecommendationService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(store store.Store, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		store:  store,
		logger: logger,
	}
}

// storeFailure wraps a store read error, surfacing transient backend
// failures as a retryable domain error. The caller may retry wholesale;
// the engine itself never does.
func storeFailure(op string, err error) error {
	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() == http.StatusServiceUnavailable {
		return domainerrors.Unavailable(op + " temporarily unavailable").WithCause(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetRecommendations computes the recommendation groups for one user.
//
// The result is deterministic for a fixed store state: same groups, same
// order, on every call. An empty favorites set or an empty neighborhood is
// a valid result carried in the diagnostic, never an error.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string) (*domain.Recommendations, error) {
	targetBooks, err := s.store.GetFavoriteBookIDs(ctx, userID)
	if err != nil {
		return nil, storeFailure("load favorites", err)
	}

	rec := &domain.Recommendations{Groups: []domain.RecommendationGroup{}}
	rec.Diagnostic.TotalFavorites = len(targetBooks)

	if len(targetBooks) == 0 {
		rec.Diagnostic.Reason = domain.ReasonNoFavorites
		return rec, nil
	}

	targetSet := make(map[string]bool, len(targetBooks))
	for _, bookID := range targetBooks {
		targetSet[bookID] = true
	}

	neighborIDs, err := s.store.UsersSharingFavorites(ctx, targetBooks, userID)
	if err != nil {
		return nil, storeFailure("find similar readers", err)
	}
	rec.Diagnostic.SimilarUsersCount = len(neighborIDs)
	if len(neighborIDs) == 0 {
		rec.Diagnostic.Reason = domain.ReasonNoSimilarReaders
		return rec, nil
	}

	neighborFavorites, err := s.store.GetFavoritesByUsers(ctx, neighborIDs)
	if err != nil {
		return nil, storeFailure("load neighbor favorites", err)
	}

	// Split each neighbor's favorites into shared books (why we trust their
	// taste) and candidates (what we might recommend).
	type neighborTaste struct {
		sharedBookIDs []string
		candidates    []*domain.Favorite
	}
	tastes := make(map[string]*neighborTaste, len(neighborIDs))
	for _, fav := range neighborFavorites {
		taste := tastes[fav.UserID]
		if taste == nil {
			taste = &neighborTaste{}
			tastes[fav.UserID] = taste
		}
		if targetSet[fav.BookID] {
			taste.sharedBookIDs = append(taste.sharedBookIDs, fav.BookID)
		} else {
			taste.candidates = append(taste.candidates, fav)
		}
	}

	// Attribute every candidate book to exactly one neighbor: the one with
	// the most shared favorites. On equal overlap the lexicographically
	// smaller neighbor ID wins; neighborIDs arrives sorted ascending and a
	// tie never replaces the incumbent, which gives exactly that.
	type attribution struct {
		neighborID string
		overlap    int
		favorite   *domain.Favorite
	}
	winners := make(map[string]attribution)
	for _, neighborID := range neighborIDs {
		taste := tastes[neighborID]
		if taste == nil {
			continue
		}
		overlap := len(taste.sharedBookIDs)
		for _, fav := range taste.candidates {
			if current, ok := winners[fav.BookID]; !ok || overlap > current.overlap {
				winners[fav.BookID] = attribution{neighborID: neighborID, overlap: overlap, favorite: fav}
			}
		}
	}

	rec.Diagnostic.RecommendationsCount = len(winners)
	if len(winners) == 0 {
		// Every neighbor's favorites are a subset of the target's. They
		// still count as similar readers; there's just nothing new to show.
		return rec, nil
	}

	candidateIDs := make([]string, 0, len(winners))
	attributedTo := make(map[string][]attribution)
	for bookID, won := range winners {
		candidateIDs = append(candidateIDs, bookID)
		attributedTo[won.neighborID] = append(attributedTo[won.neighborID], won)
	}

	books, err := s.store.GetBooksByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, storeFailure("load recommended books", err)
	}
	booksByID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		booksByID[b.ID] = b
	}

	sharedIDSet := make(map[string]bool)
	groupNeighborIDs := make([]string, 0, len(attributedTo))
	for neighborID := range attributedTo {
		groupNeighborIDs = append(groupNeighborIDs, neighborID)
		for _, bookID := range tastes[neighborID].sharedBookIDs {
			sharedIDSet[bookID] = true
		}
	}
	sharedIDs := make([]string, 0, len(sharedIDSet))
	for bookID := range sharedIDSet {
		sharedIDs = append(sharedIDs, bookID)
	}
	titles, err := s.store.GetBookTitles(ctx, sharedIDs)
	if err != nil {
		return nil, storeFailure("load shared titles", err)
	}

	neighbors, err := s.store.GetUsersByIDs(ctx, groupNeighborIDs)
	if err != nil {
		return nil, storeFailure("load similar readers", err)
	}
	handles := make(map[string]string, len(neighbors))
	for _, u := range neighbors {
		handles[u.ID] = u.Handle
	}

	// Strongest overlap first; ties in neighbor ID order.
	slices.SortFunc(groupNeighborIDs, func(a, b string) int {
		if d := len(tastes[b].sharedBookIDs) - len(tastes[a].sharedBookIDs); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})

	for _, neighborID := range groupNeighborIDs {
		taste := tastes[neighborID]

		sharedTitles := make([]string, 0, len(taste.sharedBookIDs))
		for _, bookID := range taste.sharedBookIDs {
			if title, ok := titles[bookID]; ok {
				sharedTitles = append(sharedTitles, title)
			}
		}
		slices.Sort(sharedTitles)

		attributed := attributedTo[neighborID]
		group := domain.RecommendationGroup{
			NeighborID:     neighborID,
			NeighborHandle: handles[neighborID],
			OverlapCount:   len(taste.sharedBookIDs),
			SharedTitles:   sharedTitles,
			Books:          make([]domain.RecommendedBook, 0, len(attributed)),
		}
		for _, won := range attributed {
			book := booksByID[won.favorite.BookID]
			if book == nil {
				// Book removed between queries; leave it out.
				continue
			}
			group.Books = append(group.Books, domain.RecommendedBook{
				Book:        book,
				Explanation: won.favorite.Explanation,
			})
		}
		slices.SortFunc(group.Books, func(a, b domain.RecommendedBook) int {
			if c := strings.Compare(a.Book.Title, b.Book.Title); c != 0 {
				return c
			}
			return strings.Compare(a.Book.ID, b.Book.ID)
		})

		rec.Groups = append(rec.Groups, group)
	}

	return rec, nil
}
