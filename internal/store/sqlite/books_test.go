package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/normalize"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// seedBook creates an author and a book for tests, returning the book.
func seedBook(t *testing.T, s *Store, bookID, title, authorName string) *domain.Book {
	t.Helper()
	ctx := context.Background()

	author, _, err := s.FindOrCreateAuthor(ctx, authorName)
	if err != nil {
		t.Fatalf("FindOrCreateAuthor(%q): %v", authorName, err)
	}

	now := time.Now()
	book := &domain.Book{
		Record: domain.Record{
			ID:        bookID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:           title,
		NormalizedTitle: normalize.Key(title),
		AuthorID:        author.ID,
		Author:          author.Name,
		Genre:           domain.GenreFiction,
	}
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook(%q): %v", title, err)
	}
	return book
}

func TestFindOrCreateAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1, created, err := s.FindOrCreateAuthor(ctx, "Ursula K. Le Guin")
	if err != nil {
		t.Fatalf("FindOrCreateAuthor: %v", err)
	}
	if !created {
		t.Error("first call should create")
	}
	if a1.Name != "Ursula K. Le Guin" {
		t.Errorf("Name: got %q", a1.Name)
	}

	// Different casing resolves to the same author.
	a2, created, err := s.FindOrCreateAuthor(ctx, "ursula k. le guin")
	if err != nil {
		t.Fatalf("FindOrCreateAuthor: %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if a2.ID != a1.ID {
		t.Errorf("expected same author, got %q and %q", a1.ID, a2.ID)
	}

	// The stored display name keeps the first spelling.
	if a2.Name != "Ursula K. Le Guin" {
		t.Errorf("Name: got %q", a2.Name)
	}

	got, err := s.GetAuthor(ctx, a1.ID)
	if err != nil {
		t.Fatalf("GetAuthor: %v", err)
	}
	if got.NormalizedName != "ursula k. le guin" {
		t.Errorf("NormalizedName: got %q", got.NormalizedName)
	}

	if _, _, err := s.FindOrCreateAuthor(ctx, "   "); err == nil {
		t.Error("blank author name should fail")
	}
}

func TestCreateAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := seedBook(t, s, "bok-1", "The Dispossessed", "Ursula K. Le Guin")

	got, err := s.GetBook(ctx, "bok-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != "The Dispossessed" {
		t.Errorf("Title: got %q", got.Title)
	}
	if got.Author != "Ursula K. Le Guin" {
		t.Errorf("Author: got %q, want joined author name", got.Author)
	}
	if got.AuthorID != book.AuthorID {
		t.Errorf("AuthorID: got %q, want %q", got.AuthorID, book.AuthorID)
	}
	if got.Genre != domain.GenreFiction {
		t.Errorf("Genre: got %q", got.Genre)
	}

	if _, err := s.GetBook(ctx, "bok-missing"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateBook_DuplicateTitleAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := seedBook(t, s, "bok-1", "It", "Stephen King")

	// Same title, same author, different casing: rejected.
	dup := &domain.Book{
		Record:          domain.Record{ID: "bok-2", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Title:           "IT",
		NormalizedTitle: normalize.Key("IT"),
		AuthorID:        first.AuthorID,
		Genre:           domain.GenreFiction,
	}
	if err := s.CreateBook(ctx, dup); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Same title by a different author is fine.
	seedBook(t, s, "bok-3", "It", "William Mayne")

	// Lookup by the dedup key.
	got, err := s.GetBookByTitleAuthor(ctx, normalize.Key("it"), first.AuthorID)
	if err != nil {
		t.Fatalf("GetBookByTitleAuthor: %v", err)
	}
	if got.ID != "bok-1" {
		t.Errorf("got %q, want bok-1", got.ID)
	}
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _, err := s.FindOrCreateAuthor(ctx, "Frank Herbert")
	if err != nil {
		t.Fatalf("FindOrCreateAuthor: %v", err)
	}

	now := time.Now()
	b1 := &domain.Book{
		Record:          domain.Record{ID: "bok-1", CreatedAt: now, UpdatedAt: now},
		Title:           "Dune",
		NormalizedTitle: "dune",
		AuthorID:        author.ID,
		Genre:           domain.GenreFiction,
		ISBN:            "9780441172719",
	}
	if err := s.CreateBook(ctx, b1); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	b2 := &domain.Book{
		Record:          domain.Record{ID: "bok-2", CreatedAt: now, UpdatedAt: now},
		Title:           "Dune Messiah",
		NormalizedTitle: "dune messiah",
		AuthorID:        author.ID,
		Genre:           domain.GenreFiction,
		ISBN:            "9780441172719",
	}
	if err := s.CreateBook(ctx, b2); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists for duplicate isbn, got %v", err)
	}

	got, err := s.GetBookByISBN(ctx, "9780441172719")
	if err != nil {
		t.Fatalf("GetBookByISBN: %v", err)
	}
	if got.ID != "bok-1" {
		t.Errorf("got %q, want bok-1", got.ID)
	}

	// Books without ISBNs never collide with each other.
	b3 := &domain.Book{
		Record:          domain.Record{ID: "bok-3", CreatedAt: now, UpdatedAt: now},
		Title:           "Children of Dune",
		NormalizedTitle: "children of dune",
		AuthorID:        author.ID,
		Genre:           domain.GenreFiction,
	}
	b4 := &domain.Book{
		Record:          domain.Record{ID: "bok-4", CreatedAt: now, UpdatedAt: now},
		Title:           "God Emperor of Dune",
		NormalizedTitle: "god emperor of dune",
		AuthorID:        author.ID,
		Genre:           domain.GenreFiction,
	}
	if err := s.CreateBook(ctx, b3); err != nil {
		t.Fatalf("CreateBook without isbn: %v", err)
	}
	if err := s.CreateBook(ctx, b4); err != nil {
		t.Fatalf("CreateBook without isbn: %v", err)
	}
}

func TestGetBooksByIDsAndTitles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedBook(t, s, "bok-1", "Dune", "Frank Herbert")
	seedBook(t, s, "bok-2", "Beloved", "Toni Morrison")

	books, err := s.GetBooksByIDs(ctx, []string{"bok-1", "bok-2", "bok-missing"})
	if err != nil {
		t.Fatalf("GetBooksByIDs: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}

	titles, err := s.GetBookTitles(ctx, []string{"bok-1", "bok-2"})
	if err != nil {
		t.Fatalf("GetBookTitles: %v", err)
	}
	if titles["bok-1"] != "Dune" || titles["bok-2"] != "Beloved" {
		t.Errorf("unexpected titles map: %v", titles)
	}

	titles, err = s.GetBookTitles(ctx, nil)
	if err != nil {
		t.Fatalf("GetBookTitles(nil): %v", err)
	}
	if len(titles) != 0 {
		t.Errorf("expected empty map, got %v", titles)
	}
}

func TestListBooks_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _, err := s.FindOrCreateAuthor(ctx, "Various")
	if err != nil {
		t.Fatalf("FindOrCreateAuthor: %v", err)
	}

	now := time.Now()
	mk := func(id, title string, genre domain.Genre, subGenre string, popular bool) {
		b := &domain.Book{
			Record:          domain.Record{ID: id, CreatedAt: now, UpdatedAt: now},
			Title:           title,
			NormalizedTitle: normalize.Key(title),
			AuthorID:        author.ID,
			Genre:           genre,
			SubGenre:        subGenre,
			IsPopular:       popular,
		}
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook(%q): %v", title, err)
		}
	}

	mk("bok-1", "A Wizard of Earthsea", domain.GenreFiction, "Fantasy", true)
	mk("bok-2", "Zen Mind", domain.GenreNonfiction, "", false)
	mk("bok-3", "Mistborn", domain.GenreFiction, "Fantasy", false)

	// No filter: everything, title order.
	books, err := s.ListBooks(ctx, store.BookFilter{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}
	if books[0].Title != "A Wizard of Earthsea" || books[2].Title != "Zen Mind" {
		t.Errorf("unexpected order: %s ... %s", books[0].Title, books[2].Title)
	}

	// Genre filter.
	books, err = s.ListBooks(ctx, store.BookFilter{Genre: domain.GenreNonfiction})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 || books[0].ID != "bok-2" {
		t.Errorf("genre filter: got %d books", len(books))
	}

	// Popular filter.
	books, err = s.ListBooks(ctx, store.BookFilter{PopularOnly: true})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 || books[0].ID != "bok-1" {
		t.Errorf("popular filter: got %d books", len(books))
	}

	// Limit and offset.
	books, err = s.ListBooks(ctx, store.BookFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Mistborn" {
		t.Errorf("limit/offset: got %v", books)
	}
}

func TestTopFavoritedBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedBook(t, s, "bok-1", "Dune", "Frank Herbert")
	seedBook(t, s, "bok-2", "Beloved", "Toni Morrison")
	seedBook(t, s, "bok-3", "Circe", "Madeline Miller")

	for _, h := range []string{"a", "b", "c"} {
		if err := s.CreateUser(ctx, makeTestUser("usr-"+h, h)); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	now := time.Now()
	fav := func(favID, userID, bookID string) {
		f := &domain.Favorite{
			Record: domain.Record{ID: favID, CreatedAt: now, UpdatedAt: now},
			UserID: userID,
			BookID: bookID,
		}
		if err := s.CreateFavorite(ctx, f); err != nil {
			t.Fatalf("CreateFavorite: %v", err)
		}
	}

	// bok-2 has two favorites, bok-1 has one, bok-3 none.
	fav("fav-1", "usr-a", "bok-2")
	fav("fav-2", "usr-b", "bok-2")
	fav("fav-3", "usr-c", "bok-1")

	top, err := s.TopFavoritedBooks(ctx, 10)
	if err != nil {
		t.Fatalf("TopFavoritedBooks: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Book.ID != "bok-2" || top[0].FavoriteCount != 2 {
		t.Errorf("top[0]: got %s with %d", top[0].Book.ID, top[0].FavoriteCount)
	}
	if top[1].Book.ID != "bok-1" || top[1].FavoriteCount != 1 {
		t.Errorf("top[1]: got %s with %d", top[1].Book.ID, top[1].FavoriteCount)
	}
}
