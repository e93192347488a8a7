package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/normalize"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// authorColumns is the ordered list of columns selected in author queries.
// Must match the scan order in scanAuthor.
const authorColumns = `id, created_at, updated_at, deleted_at, name, normalized_name`

// scanAuthor scans a sql.Row (or sql.Rows via its Scan method) into a domain.Author.
func scanAuthor(scanner interface{ Scan(dest ...any) error }) (*domain.Author, error) {
	var a domain.Author

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&a.Name,
		&a.NormalizedName,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	a.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// GetAuthor retrieves an author by ID.
// Returns store.ErrNotFound if the author does not exist.
func (s *Store) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = ? AND deleted_at IS NULL`, authorID)

	a, err := scanAuthor(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// getAuthorByKey retrieves an author by normalized name.
func (s *Store) getAuthorByKey(ctx context.Context, key string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE normalized_name = ? AND deleted_at IS NULL`, key)

	a, err := scanAuthor(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindOrCreateAuthor finds an author by the normalized form of name or
// creates one. Returns (author, created, error) where created is true if a
// new author was made. "Ursula K. Le Guin" and "ursula k. le guin" resolve
// to the same row.
func (s *Store) FindOrCreateAuthor(ctx context.Context, name string) (*domain.Author, bool, error) {
	key := normalize.Key(name)
	if key == "" {
		return nil, false, store.ErrInvalidInput.WithMessage("author name is empty")
	}

	existing, err := s.getAuthorByKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	authorID, err := id.Generate("aut")
	if err != nil {
		return nil, false, fmt.Errorf("generate author id: %w", err)
	}

	now := time.Now().UTC()
	a := &domain.Author{
		Record: domain.Record{
			ID:        authorID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:           name,
		NormalizedName: key,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO authors (id, created_at, updated_at, deleted_at, name, normalized_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
		nullTimeString(a.DeletedAt),
		a.Name,
		a.NormalizedName,
	)
	if err != nil {
		if isConstraintErr(err) {
			// Race: another request created this author first.
			existing, err := s.getAuthorByKey(ctx, key)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return a, true, nil
}

// bookColumns is the ordered list of columns selected in book queries.
// Book reads always join authors to denormalize the display name, so the
// columns carry table prefixes. Must match the scan order in scanBook.
const bookColumns = `b.id, b.created_at, b.updated_at, b.deleted_at, b.title,
	b.normalized_title, b.author_id, a.name, b.genre, b.sub_genre, b.isbn, b.is_popular`

// scanBook scans a joined books/authors row into a domain.Book. Queries
// selecting trailing columns beyond bookColumns pass destinations for them
// via extra.
func scanBook(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		genre     string
		isbn      sql.NullString
		isPopular int
	)

	dest := []any{
		&b.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&b.Title,
		&b.NormalizedTitle,
		&b.AuthorID,
		&b.Author,
		&genre,
		&b.SubGenre,
		&isbn,
		&isPopular,
	}
	dest = append(dest, extra...)

	err := scanner.Scan(dest...)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	b.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	b.Genre = domain.Genre(genre)
	if isbn.Valid {
		b.ISBN = isbn.String
	}
	b.IsPopular = isPopular != 0

	return &b, nil
}

// CreateBook inserts a new book. The caller is expected to have set
// NormalizedTitle and resolved AuthorID.
// Returns store.ErrAlreadyExists when the (normalized_title, author) pair or
// the ISBN is already present.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, deleted_at, title, normalized_title,
			author_id, genre, sub_genre, isbn, is_popular
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		nullTimeString(book.DeletedAt),
		book.Title,
		book.NormalizedTitle,
		book.AuthorID,
		string(book.Genre),
		book.SubGenre,
		nullString(book.ISBN),
		boolToInt(book.IsPopular),
	)
	if err != nil {
		if isConstraintErr(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID with its author name joined in.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.id = ? AND b.deleted_at IS NULL`, bookID)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByISBN retrieves a book by exact ISBN.
// Returns store.ErrNotFound if no book carries that ISBN.
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.isbn = ? AND b.deleted_at IS NULL`, isbn)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByTitleAuthor retrieves a book by its dedup key, the normalized
// title plus author. Returns store.ErrNotFound if absent.
func (s *Store) GetBookByTitleAuthor(ctx context.Context, normalizedTitle, authorID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.normalized_title = ? AND b.author_id = ? AND b.deleted_at IS NULL`,
		normalizedTitle, authorID)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBooksByIDs retrieves all non-deleted books with the given IDs.
// Missing IDs are silently skipped.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.id IN (` + placeholders(len(ids)) + `) AND b.deleted_at IS NULL`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBookTitles returns a book_id -> title map for the given IDs.
// Missing IDs are silently skipped.
func (s *Store) GetBookTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	query := `SELECT id, title FROM books
		WHERE id IN (` + placeholders(len(ids)) + `) AND deleted_at IS NULL`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, title string
		if err := rows.Scan(&bookID, &title); err != nil {
			return nil, err
		}
		titles[bookID] = title
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return titles, nil
}

// ListBooks returns books matching the filter, ordered by title.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter) ([]*domain.Book, error) {
	filter.Validate()

	query := `SELECT ` + bookColumns + ` FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.deleted_at IS NULL`
	args := []any{}

	if filter.Genre != "" {
		query += ` AND b.genre = ?`
		args = append(args, string(filter.Genre))
	}
	if filter.SubGenre != "" {
		query += ` AND b.sub_genre = ?`
		args = append(args, filter.SubGenre)
	}
	if filter.PopularOnly {
		query += ` AND b.is_popular = 1`
	}

	query += ` ORDER BY b.title ASC, b.id ASC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// TopFavoritedBooks returns the most-favorited books, ordered by favorite
// count descending then title. Books without favorites are excluded.
func (s *Store) TopFavoritedBooks(ctx context.Context, limit int) ([]*store.BookFavoriteCount, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`, COUNT(f.id) AS favorite_count
		FROM books b
		JOIN authors a ON a.id = b.author_id
		JOIN favorites f ON f.book_id = b.id
		WHERE b.deleted_at IS NULL
		GROUP BY b.id
		ORDER BY favorite_count DESC, b.title ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.BookFavoriteCount
	for rows.Next() {
		var count int
		b, err := scanBook(rows, &count)
		if err != nil {
			return nil, err
		}
		out = append(out, &store.BookFavoriteCount{Book: b, FavoriteCount: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
