package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// DigestDispatcher delivers one rendered digest email. The scheduler decides
// whether and what to send; the dispatcher owns rendering and transport.
type DigestDispatcher interface {
	SendDigest(ctx context.Context, user *domain.User, unsubscribeToken string,
		books []*domain.Book, totalCount, additionalCount int) error
}

// DigestService decides which readers get a recommendation digest after
// someone adds a favorite, and dispatches the payloads.
type DigestService struct {
	store      store.Store
	dispatcher DigestDispatcher
	window     time.Duration
	maxBooks   int
	logger     *slog.Logger
}

// NewDigestService creates a new digest service.
func NewDigestService(store store.Store, dispatcher DigestDispatcher, cfg config.DigestConfig, logger *slog.Logger) *DigestService {
	return &DigestService{
		store:      store,
		dispatcher: dispatcher,
		window:     cfg.Window,
		maxBooks:   cfg.MaxBooks,
		logger:     logger,
	}
}

// RunDigestPass evaluates every user sharing a favorite with the actor and
// sends a digest to each one that is due. Returns the number of emails
// dispatched. Per-recipient failures are logged and skipped; they never
// abort the rest of the pass.
func (s *DigestService) RunDigestPass(ctx context.Context, actorID string) (int, error) {
	actorBooks, err := s.store.GetFavoriteBookIDs(ctx, actorID)
	if err != nil {
		return 0, storeFailure("load actor favorites", err)
	}
	if len(actorBooks) == 0 {
		return 0, nil
	}

	recipientIDs, err := s.store.UsersSharingFavorites(ctx, actorBooks, actorID)
	if err != nil {
		return 0, storeFailure("find digest recipients", err)
	}
	if len(recipientIDs) == 0 {
		return 0, nil
	}

	recipients, err := s.store.GetUsersByIDs(ctx, recipientIDs)
	if err != nil {
		return 0, storeFailure("load digest recipients", err)
	}

	now := time.Now()
	sent := 0
	for _, recipient := range recipients {
		delivered, err := s.digestFor(ctx, recipient, now)
		if err != nil {
			s.logger.Warn("Digest delivery failed",
				"user_id", recipient.ID,
				"error", err,
			)
			continue
		}
		if delivered {
			sent++
		}
	}

	if sent > 0 {
		s.logger.Info("Digest pass complete",
			"actor_id", actorID,
			"recipients", len(recipients),
			"sent", sent,
		)
	}
	return sent, nil
}

// digestFor evaluates one recipient and sends their digest if due.
// Reports whether an email was dispatched.
func (s *DigestService) digestFor(ctx context.Context, recipient *domain.User, now time.Time) (bool, error) {
	if !recipient.CanReceiveEmail() {
		return false, nil
	}

	pref, err := s.store.GetOrCreateEmailPreference(ctx, recipient.ID)
	if err != nil {
		return false, fmt.Errorf("load email preference: %w", err)
	}
	if !pref.ReceiveRecommendations {
		return false, nil
	}
	if !pref.DueForDigest(now, s.window) {
		return false, nil
	}

	recipientBooks, err := s.store.GetFavoriteBookIDs(ctx, recipient.ID)
	if err != nil {
		return false, fmt.Errorf("load favorites: %w", err)
	}
	if len(recipientBooks) == 0 {
		return false, nil
	}
	recipientSet := make(map[string]bool, len(recipientBooks))
	for _, bookID := range recipientBooks {
		recipientSet[bookID] = true
	}

	neighborIDs, err := s.store.UsersSharingFavorites(ctx, recipientBooks, recipient.ID)
	if err != nil {
		return false, fmt.Errorf("find similar readers: %w", err)
	}
	if len(neighborIDs) == 0 {
		return false, nil
	}

	neighborFavorites, err := s.store.GetFavoritesByUsers(ctx, neighborIDs)
	if err != nil {
		return false, fmt.Errorf("load neighbor favorites: %w", err)
	}

	since := now.Add(-s.window)

	// A recent neighbor is one whose copy of a shared favorite was added
	// inside the window; their fresh enthusiasm is what makes the digest
	// timely. The total counts every candidate regardless of age.
	candidateSet := make(map[string]bool)
	recentNeighborSet := make(map[string]bool)
	for _, fav := range neighborFavorites {
		if recipientSet[fav.BookID] {
			if !fav.CreatedAt.Before(since) {
				recentNeighborSet[fav.UserID] = true
			}
			continue
		}
		candidateSet[fav.BookID] = true
	}
	if len(recentNeighborSet) == 0 {
		return false, nil
	}
	totalCount := len(candidateSet)

	recentNeighborIDs := make([]string, 0, len(recentNeighborSet))
	for neighborID := range recentNeighborSet {
		recentNeighborIDs = append(recentNeighborIDs, neighborID)
	}
	slices.Sort(recentNeighborIDs)

	newBookSet := make(map[string]bool)
	for _, neighborID := range recentNeighborIDs {
		recentBooks, err := s.store.GetRecentFavoriteBookIDs(ctx, neighborID, since)
		if err != nil {
			return false, fmt.Errorf("load recent favorites: %w", err)
		}
		for _, bookID := range recentBooks {
			if !recipientSet[bookID] {
				newBookSet[bookID] = true
			}
		}
	}
	// Nothing new means no email, even when the throttle has elapsed.
	if len(newBookSet) == 0 {
		return false, nil
	}

	newBookIDs := make([]string, 0, len(newBookSet))
	for bookID := range newBookSet {
		newBookIDs = append(newBookIDs, bookID)
	}
	books, err := s.store.GetBooksByIDs(ctx, newBookIDs)
	if err != nil {
		return false, fmt.Errorf("load new books: %w", err)
	}
	slices.SortFunc(books, func(a, b *domain.Book) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(books) > s.maxBooks {
		books = books[:s.maxBooks]
	}
	additionalCount := max(0, totalCount-s.maxBooks)

	if err := s.dispatcher.SendDigest(ctx, recipient, pref.UnsubscribeToken, books, totalCount, additionalCount); err != nil {
		return false, fmt.Errorf("send digest: %w", err)
	}

	// The guarded update re-checks the throttle so a concurrent pass that
	// beat us to it doesn't get overwritten.
	recorded, err := s.store.MarkRecommendationSent(ctx, recipient.ID, now, s.window)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	if !recorded {
		s.logger.Info("Digest send already recorded by a concurrent pass", "user_id", recipient.ID)
	}

	return true, nil
}
