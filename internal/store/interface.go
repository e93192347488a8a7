// Package store defines the persistence interface for the Readalike server.
package store

import (
	"context"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Authors
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	FindOrCreateAuthor(ctx context.Context, name string) (*domain.Author, bool, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	GetBookByTitleAuthor(ctx context.Context, normalizedTitle, authorID string) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error)
	GetBookTitles(ctx context.Context, ids []string) (map[string]string, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error)
	TopFavoritedBooks(ctx context.Context, limit int) ([]*BookFavoriteCount, error)

	// Favorites
	CreateFavorite(ctx context.Context, fav *domain.Favorite) error
	GetFavorite(ctx context.Context, userID, bookID string) (*domain.Favorite, error)
	DeleteFavorite(ctx context.Context, userID, bookID string) error
	UpdateFavoriteExplanation(ctx context.Context, userID, bookID, explanation string) error
	GetFavoritesByUser(ctx context.Context, userID string) ([]*domain.Favorite, error)
	GetFavoritesByUsers(ctx context.Context, userIDs []string) ([]*domain.Favorite, error)
	GetFavoriteBookIDs(ctx context.Context, userID string) ([]string, error)
	GetRecentFavoriteBookIDs(ctx context.Context, userID string, since time.Time) ([]string, error)
	UsersSharingFavorites(ctx context.Context, bookIDs []string, excludeUserID string) ([]string, error)
	MergeFavorites(ctx context.Context, fromUserID, intoUserID string) (int, error)

	// Email Preferences
	GetOrCreateEmailPreference(ctx context.Context, userID string) (*domain.EmailPreference, error)
	GetEmailPreferenceByToken(ctx context.Context, token string) (*domain.EmailPreference, error)
	UpdateEmailPreference(ctx context.Context, pref *domain.EmailPreference) error
	MarkRecommendationSent(ctx context.Context, userID string, sentAt time.Time, window time.Duration) (bool, error)

	// To-Be-Read
	AddToBeRead(ctx context.Context, entry *domain.ToBeRead) error
	RemoveToBeRead(ctx context.Context, userID, bookID string) error
	ListToBeRead(ctx context.Context, userID string) ([]*domain.ToBeRead, error)

	// Feedback
	CreateFeedback(ctx context.Context, fb *domain.Feedback) error
	CountFeedback(ctx context.Context) (int, error)
}
