// Package main provides a read-only inspection tool for the Readalike database.
//
// Usage:
//
//	DATA_PATH=~/Readalike/data go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/readalikeapp/readalike-server/internal/store"
	"github.com/readalikeapp/readalike-server/internal/store/sqlite"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Readalike/data")
	}
	dbPath := filepath.Join(dataPath, "readalike.db")

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	users, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	books, err := s.ListBooks(ctx, store.BookFilter{Limit: 500})
	if err != nil {
		log.Fatalf("Failed to list books: %v", err)
	}

	totalFavorites := 0
	withEmail := 0
	for _, user := range users {
		favs, err := s.GetFavoritesByUser(ctx, user.ID)
		if err != nil {
			log.Printf("Failed to load favorites for %s: %v", user.Handle, err)
			continue
		}

		explained := 0
		for _, f := range favs {
			if f.HasExplanation() {
				explained++
			}
		}
		totalFavorites += len(favs)
		if user.Email != "" {
			withEmail++
		}

		fmt.Printf("@%s (%s)\n", user.Handle, user.ID)
		fmt.Printf("  Favorites: %d (%d with notes)\n", len(favs), explained)
		if user.Email == "" {
			fmt.Printf("  No email on file\n")
		}
		fmt.Println()
	}

	fmt.Println("=== Most Favorited ===")
	top, err := s.TopFavoritedBooks(ctx, 10)
	if err != nil {
		log.Fatalf("Failed to rank books: %v", err)
	}
	for _, entry := range top {
		fmt.Printf("  %3d  %s\n", entry.FavoriteCount, entry.Book.Label())
	}
	if len(top) == 0 {
		fmt.Println("  (no favorites yet)")
	}
	fmt.Println()

	feedbackCount, err := s.CountFeedback(ctx)
	if err != nil {
		log.Printf("Failed to count feedback: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Readers: %d (%d with email)\n", len(users), withEmail)
	fmt.Printf("Books: %d\n", len(books))
	fmt.Printf("Favorites: %d\n", totalFavorites)
	if len(users) > 0 {
		fmt.Printf("Average favorites per reader: %.1f\n", float64(totalFavorites)/float64(len(users)))
	}
	fmt.Printf("Feedback entries: %d\n", feedbackCount)
}
