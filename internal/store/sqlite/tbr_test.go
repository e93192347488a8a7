package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/store"
)

func makeTBR(id, userID, bookID, note string, createdAt time.Time) *domain.ToBeRead {
	return &domain.ToBeRead{
		Record: domain.Record{ID: id, CreatedAt: createdAt, UpdatedAt: createdAt},
		UserID: userID,
		BookID: bookID,
		Note:   note,
	}
}

func TestAddAndListToBeRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedReaders(t, s, []string{"alice"}, []string{"Dune", "Beloved"})
	base := time.Now().Add(-time.Hour)
	if err := s.AddToBeRead(ctx, makeTBR("tbr-1", "usr-alice", "bok-1", "for the beach", base)); err != nil {
		t.Fatalf("AddToBeRead: %v", err)
	}
	if err := s.AddToBeRead(ctx, makeTBR("tbr-2", "usr-alice", "bok-2", "", base.Add(time.Minute))); err != nil {
		t.Fatalf("AddToBeRead: %v", err)
	}

	entries, err := s.ListToBeRead(ctx, "usr-alice")
	if err != nil {
		t.Fatalf("ListToBeRead: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].BookID != "bok-2" || entries[1].BookID != "bok-1" {
		t.Errorf("unexpected order: %s, %s", entries[0].BookID, entries[1].BookID)
	}
	if entries[1].Note != "for the beach" {
		t.Errorf("Note: got %q", entries[1].Note)
	}

	// Same book twice is rejected.
	err = s.AddToBeRead(ctx, makeTBR("tbr-3", "usr-alice", "bok-1", "", time.Now()))
	if err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRemoveToBeRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedReaders(t, s, []string{"alice"}, []string{"Dune"})
	if err := s.AddToBeRead(ctx, makeTBR("tbr-1", "usr-alice", "bok-1", "", time.Now())); err != nil {
		t.Fatalf("AddToBeRead: %v", err)
	}

	if err := s.RemoveToBeRead(ctx, "usr-alice", "bok-1"); err != nil {
		t.Fatalf("RemoveToBeRead: %v", err)
	}
	entries, err := s.ListToBeRead(ctx, "usr-alice")
	if err != nil {
		t.Fatalf("ListToBeRead: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty pile, got %d entries", len(entries))
	}

	if err := s.RemoveToBeRead(ctx, "usr-alice", "bok-1"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
