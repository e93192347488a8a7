// Package main provides a tool to seed the database with test readers and books.
//
// It creates a small catalog and a cast of readers whose favorites
// deliberately overlap, so the recommendation and digest features have real
// data to chew on.
//
// Usage:
//
//	DATA_PATH=~/Readalike/data go run ./cmd/seed
//	DATA_PATH=~/Readalike/data go run ./cmd/seed --password=letmein123
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/readalikeapp/readalike-server/internal/auth"
	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/normalize"
	"github.com/readalikeapp/readalike-server/internal/store"
	"github.com/readalikeapp/readalike-server/internal/store/sqlite"
)

var password = flag.String("password", "readalike123", "Password for all seeded accounts")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Readalike/data")
	}
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	dbPath := filepath.Join(dataPath, "readalike.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	// Seed the catalog first so favorites have something to point at.
	bookIDs := seedCatalog(ctx, s)

	passwordHash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for _, reader := range seedReaders {
		userID, created := ensureReader(ctx, s, reader, passwordHash)
		if userID == "" {
			continue
		}
		if created {
			fmt.Printf("Created reader: @%s (%s)\n", reader.handle, orNone(reader.email))
		} else {
			fmt.Printf("Reader @%s already exists, adding favorites only\n", reader.handle)
		}

		favoritesAdded := 0
		for _, idx := range reader.favorites {
			bookID := bookIDs[idx]
			if bookID == "" {
				continue
			}

			// Spread favorites over the past two weeks so digest recency
			// windows have a mix of fresh and stale entries.
			favoritedAt := now.AddDate(0, 0, -rng.Intn(14)).Add(-time.Duration(rng.Intn(12)) * time.Hour)

			fav := &domain.Favorite{
				Record: domain.Record{
					ID:        id.MustGenerate("fav"),
					CreatedAt: favoritedAt,
					UpdatedAt: favoritedAt,
				},
				UserID:      userID,
				BookID:      bookID,
				Explanation: reader.notes[idx],
			}

			if err := s.CreateFavorite(ctx, fav); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					continue
				}
				log.Printf("  Failed to favorite %s for @%s: %v", seedBooks[idx].title, reader.handle, err)
				continue
			}
			favoritesAdded++
		}

		fmt.Printf("  Added %d favorites\n", favoritesAdded)
	}

	fmt.Println("\nSeeding complete!")
	fmt.Printf("All accounts share the password %q\n", *password)
}

// seedCatalog creates the books (and their authors), reusing rows that
// already exist. Returns the book ID for each seedBooks index.
func seedCatalog(ctx context.Context, s *sqlite.Store) []string {
	bookIDs := make([]string, len(seedBooks))

	for i, sb := range seedBooks {
		author, _, err := s.FindOrCreateAuthor(ctx, sb.author)
		if err != nil {
			log.Printf("Failed to create author %s: %v", sb.author, err)
			continue
		}

		book := &domain.Book{
			Record: domain.Record{
				ID: id.MustGenerate("bok"),
			},
			Title:           sb.title,
			NormalizedTitle: normalize.Key(sb.title),
			AuthorID:        author.ID,
			Author:          author.Name,
			Genre:           sb.genre,
			SubGenre:        sb.subGenre,
			ISBN:            normalize.ISBN(sb.isbn),
		}
		book.InitTimestamps()

		err = s.CreateBook(ctx, book)
		switch {
		case err == nil:
			bookIDs[i] = book.ID
			fmt.Printf("Created book: %s\n", book.Label())
		case errors.Is(err, store.ErrAlreadyExists):
			existing, getErr := s.GetBookByTitleAuthor(ctx, book.NormalizedTitle, author.ID)
			if getErr != nil {
				log.Printf("Failed to fetch existing book %s: %v", sb.title, getErr)
				continue
			}
			bookIDs[i] = existing.ID
		default:
			log.Printf("Failed to create book %s: %v", sb.title, err)
		}
	}

	return bookIDs
}

// ensureReader creates the account if the handle is free, or resolves the
// existing account. Returns the user ID and whether a new account was made.
func ensureReader(ctx context.Context, s *sqlite.Store, reader seedReader, passwordHash string) (string, bool) {
	if existing, err := s.GetUserByHandle(ctx, reader.handle); err == nil {
		return existing.ID, false
	}

	now := time.Now()
	user := &domain.User{
		Record: domain.Record{
			ID:        id.MustGenerate("usr"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Handle:       reader.handle,
		Email:        reader.email,
		PasswordHash: passwordHash,
		Role:         domain.RoleMember,
		Status:       domain.UserStatusActive,
		DisplayName:  reader.displayName,
		LastLoginAt:  now,
	}

	if err := s.CreateUser(ctx, user); err != nil {
		log.Printf("Failed to create reader @%s: %v", reader.handle, err)
		return "", false
	}
	return user.ID, true
}

func orNone(email string) string {
	if strings.TrimSpace(email) == "" {
		return "no email"
	}
	return email
}

// seedBook describes one catalog entry.
type seedBook struct {
	title    string
	author   string
	genre    domain.Genre
	subGenre string
	isbn     string
}

var seedBooks = []seedBook{
	{"The Left Hand of Darkness", "Ursula K. Le Guin", domain.GenreFiction, "Science Fiction", "978-0441478125"},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", domain.GenreFiction, "Fantasy", "978-0547773742"},
	{"The Dispossessed", "Ursula K. Le Guin", domain.GenreFiction, "Science Fiction", "978-0060512750"},
	{"Annihilation", "Jeff VanderMeer", domain.GenreFiction, "Science Fiction", "978-0374104092"},
	{"Piranesi", "Susanna Clarke", domain.GenreFiction, "Fantasy", "978-1635575637"},
	{"Circe", "Madeline Miller", domain.GenreFiction, "Mythology", "978-0316556347"},
	{"The Song of Achilles", "Madeline Miller", domain.GenreFiction, "Mythology", "978-0062060624"},
	{"Braiding Sweetgrass", "Robin Wall Kimmerer", domain.GenreNonfiction, "Nature", "978-1571313560"},
	{"The Sixth Extinction", "Elizabeth Kolbert", domain.GenreNonfiction, "Science", "978-1250062185"},
	{"Thinking, Fast and Slow", "Daniel Kahneman", domain.GenreNonfiction, "Psychology", "978-0374533557"},
	{"The Name of the Wind", "Patrick Rothfuss", domain.GenreFiction, "Fantasy", "978-0756404741"},
	{"Project Hail Mary", "Andy Weir", domain.GenreFiction, "Science Fiction", "978-0593135204"},
}

// seedReader describes one test account: its identity and which catalog
// entries it loves. The favorite lists overlap on purpose; that overlap is
// what drives recommendations.
type seedReader struct {
	handle      string
	displayName string
	email       string
	favorites   []int          // indexes into seedBooks
	notes       map[int]string // favorite explanations by seedBooks index
}

var seedReaders = []seedReader{
	{
		handle:      "avidreader",
		displayName: "Alex Rivera",
		email:       "avidreader@example.com",
		favorites:   []int{0, 1, 3, 5, 8},
		notes: map[int]string{
			0: "Read it every winter. The ice crossing never loses its grip.",
			5: "Witchcraft as self-invention. Gorgeous.",
		},
	},
	{
		handle:      "nightowl",
		displayName: "Jordan Chen",
		email:       "nightowl@example.com",
		favorites:   []int{0, 3, 4, 5, 11},
		notes: map[int]string{
			4: "The House is the best character of the decade.",
		},
	},
	{
		handle:      "bookwyrm",
		displayName: "Sam Taylor",
		email:       "bookwyrm@example.com",
		favorites:   []int{1, 2, 4, 10},
	},
	{
		handle:      "marginalia",
		displayName: "Casey Morgan",
		email:       "", // never receives digests
		favorites:   []int{5, 6, 7, 9},
		notes: map[int]string{
			7: "Changed how I walk through a forest.",
		},
	},
	{
		handle:      "dogeared",
		displayName: "Riley Kim",
		email:       "dogeared@example.com",
		favorites:   []int{0, 2, 3, 9, 11},
	},
}
