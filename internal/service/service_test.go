package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/normalize"
	"github.com/readalikeapp/readalike-server/internal/store"
	"github.com/readalikeapp/readalike-server/internal/store/sqlite"
)

// Shared fixtures for the service test suites. Every suite runs against a
// real SQLite store in a temp directory rather than a mock, so the tests
// exercise the actual SQL the services depend on.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestUser creates an active member with a deterministic ID derived
// from the handle, so tests can reason about ID ordering.
func createTestUser(t *testing.T, s store.Store, handle string) *domain.User {
	t.Helper()
	user := &domain.User{
		Handle:       handle,
		Email:        handle + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         domain.RoleMember,
		Status:       domain.UserStatusActive,
	}
	user.ID = "usr-" + handle
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestBook(t *testing.T, s store.Store, bookID, title, author string) *domain.Book {
	t.Helper()
	ctx := context.Background()
	a, _, err := s.FindOrCreateAuthor(ctx, author)
	require.NoError(t, err)
	book := &domain.Book{
		Title:           title,
		NormalizedTitle: normalize.Key(title),
		AuthorID:        a.ID,
		Author:          a.Name,
		Genre:           domain.GenreFiction,
	}
	book.ID = bookID
	book.InitTimestamps()
	require.NoError(t, s.CreateBook(ctx, book))
	return book
}

// favoriteAt records a favorite with an explicit creation time, which is how
// the digest tests control what counts as recent.
func favoriteAt(t *testing.T, s store.Store, userID, bookID string, at time.Time, explanation string) *domain.Favorite {
	t.Helper()
	fav := &domain.Favorite{
		UserID:      userID,
		BookID:      bookID,
		Explanation: explanation,
	}
	fav.ID = "fav-" + userID + "-" + bookID
	fav.CreatedAt = at
	fav.UpdatedAt = at
	require.NoError(t, s.CreateFavorite(context.Background(), fav))
	return fav
}
