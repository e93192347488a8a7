package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// favoriteColumns is the ordered list of columns selected in favorite
// queries. Must match the scan order in scanFavorite.
const favoriteColumns = `id, created_at, updated_at, user_id, book_id, explanation`

// scanFavorite scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Favorite.
func scanFavorite(scanner interface{ Scan(dest ...any) error }) (*domain.Favorite, error) {
	var f domain.Favorite

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&f.ID,
		&createdAt,
		&updatedAt,
		&f.UserID,
		&f.BookID,
		&f.Explanation,
	)
	if err != nil {
		return nil, err
	}

	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	f.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// CreateFavorite inserts a new favorite.
// Returns store.ErrAlreadyExists if the user already favorited the book.
func (s *Store) CreateFavorite(ctx context.Context, fav *domain.Favorite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, created_at, updated_at, user_id, book_id, explanation)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fav.ID,
		formatTime(fav.CreatedAt),
		formatTime(fav.UpdatedAt),
		fav.UserID,
		fav.BookID,
		fav.Explanation,
	)
	if err != nil {
		if isConstraintErr(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetFavorite retrieves one user's favorite of one book.
// Returns store.ErrNotFound if the user has not favorited the book.
func (s *Store) GetFavorite(ctx context.Context, userID, bookID string) (*domain.Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? AND book_id = ?`,
		userID, bookID)

	f, err := scanFavorite(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFavorite removes a favorite. Unlike users, favorites delete hard;
// an unfavorited book leaves no trace.
// Returns store.ErrNotFound if the favorite does not exist.
func (s *Store) DeleteFavorite(ctx context.Context, userID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateFavoriteExplanation sets or clears the explanation on a favorite.
// Returns store.ErrNotFound if the favorite does not exist.
func (s *Store) UpdateFavoriteExplanation(ctx context.Context, userID, bookID, explanation string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE favorites SET explanation = ?, updated_at = ?
		WHERE user_id = ? AND book_id = ?`,
		explanation, formatTime(time.Now()), userID, bookID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetFavoritesByUser returns one user's favorites, newest first.
func (s *Store) GetFavoritesByUser(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id ASC`,
		userID)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	return collectFavorites(rows)
}

// GetFavoritesByUsers returns all favorites of the given users in one query.
// The overlap engine feeds an entire neighbor set through this instead of
// fetching per user.
func (s *Store) GetFavoritesByUsers(ctx context.Context, userIDs []string) ([]*domain.Favorite, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + favoriteColumns + ` FROM favorites
		WHERE user_id IN (` + placeholders(len(userIDs)) + `)
		ORDER BY user_id ASC, book_id ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(userIDs)...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	return collectFavorites(rows)
}

func collectFavorites(rows *sql.Rows) ([]*domain.Favorite, error) {
	var favs []*domain.Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return favs, nil
}

// GetFavoriteBookIDs returns the set of book IDs one user has favorited,
// ordered by book ID.
func (s *Store) GetFavoriteBookIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id FROM favorites WHERE user_id = ? ORDER BY book_id ASC`, userID)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// GetRecentFavoriteBookIDs returns the book IDs a user favorited at or after
// since, ordered by book ID.
func (s *Store) GetRecentFavoriteBookIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id FROM favorites
		WHERE user_id = ? AND created_at >= ?
		ORDER BY book_id ASC`,
		userID, formatTime(since))
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// UsersSharingFavorites returns the IDs of users who favorited at least one
// of the given books, excluding excludeUserID and soft-deleted users.
// Results are sorted so callers iterate recipients in a stable order.
func (s *Store) UsersSharingFavorites(ctx context.Context, bookIDs []string, excludeUserID string) ([]string, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT f.user_id FROM favorites f
		JOIN users u ON u.id = f.user_id AND u.deleted_at IS NULL
		WHERE f.book_id IN (` + placeholders(len(bookIDs)) + `) AND f.user_id != ?
		ORDER BY f.user_id ASC`
	args := append(toAnySlice(bookIDs), excludeUserID)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// MergeFavorites moves fromUserID's favorites onto intoUserID and deletes
// whatever remains of the source rows. When both users favorited the same
// book the target's copy wins, explanation included. Returns the number of
// favorites moved. Calling it again is a no-op returning zero.
func (s *Store) MergeFavorites(ctx context.Context, fromUserID, intoUserID string) (int, error) {
	if fromUserID == intoUserID {
		return 0, store.ErrInvalidInput.WithMessage("cannot merge a user into itself")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Move favorites the target does not already have.
	result, err := tx.ExecContext(ctx, `
		UPDATE favorites SET user_id = ?, updated_at = ?
		WHERE user_id = ?
		AND book_id NOT IN (SELECT book_id FROM favorites WHERE user_id = ?)`,
		intoUserID, formatTime(time.Now()), fromUserID, intoUserID)
	if err != nil {
		return 0, fmt.Errorf("move favorites: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Drop the duplicates left behind.
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ?`, fromUserID); err != nil {
		return 0, fmt.Errorf("delete source favorites: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(moved), nil
}
