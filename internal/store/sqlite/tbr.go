package sqlite

import (
	"context"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// tbrColumns is the ordered list of columns selected in to-be-read queries.
// Must match the scan order in scanToBeRead.
const tbrColumns = `id, created_at, updated_at, user_id, book_id, note`

// scanToBeRead scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ToBeRead.
func scanToBeRead(scanner interface{ Scan(dest ...any) error }) (*domain.ToBeRead, error) {
	var e domain.ToBeRead

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&e.UserID,
		&e.BookID,
		&e.Note,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// AddToBeRead inserts a new to-be-read entry.
// Returns store.ErrAlreadyExists if the book is already on the user's pile.
func (s *Store) AddToBeRead(ctx context.Context, entry *domain.ToBeRead) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO to_be_read (id, created_at, updated_at, user_id, book_id, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
		entry.UserID,
		entry.BookID,
		entry.Note,
	)
	if err != nil {
		if isConstraintErr(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// RemoveToBeRead deletes a to-be-read entry.
// Returns store.ErrNotFound if the entry does not exist.
func (s *Store) RemoveToBeRead(ctx context.Context, userID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM to_be_read WHERE user_id = ? AND book_id = ?`, userID, bookID)
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

// ListToBeRead returns one user's to-be-read pile, newest first.
func (s *Store) ListToBeRead(ctx context.Context, userID string) ([]*domain.ToBeRead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tbrColumns+` FROM to_be_read WHERE user_id = ? ORDER BY created_at DESC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ToBeRead
	for rows.Next() {
		e, err := scanToBeRead(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
