package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook_CreatesThenReuses(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/books",
		map[string]any{"title": "The Dispossessed", "author": "Ursula K. Le Guin"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[CreateBookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Created)
	assert.Equal(t, "The Dispossessed", envelope.Data.Book.Title)
	assert.Equal(t, "Ursula K. Le Guin", envelope.Data.Book.Author)
	assert.Equal(t, "fiction", envelope.Data.Book.Genre)
	bookID := envelope.Data.Book.ID

	// Same title and author in a different casing resolves to the same book.
	resp = ts.api.Post("/api/v1/books",
		map[string]any{"title": "the dispossessed", "author": "ursula k. le guin"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Created)
	assert.Equal(t, bookID, envelope.Data.Book.ID)
}

func TestCreateBook_ReusesByISBN(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/books",
		map[string]any{"title": "Dune", "author": "Frank Herbert", "isbn": "978-0-441-01359-3"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[CreateBookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	bookID := envelope.Data.Book.ID

	// A differently punctuated ISBN still matches the existing entry.
	resp = ts.api.Post("/api/v1/books",
		map[string]any{"title": "Dune (Reissue)", "author": "Frank Herbert", "isbn": "9780441013593"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Created)
	assert.Equal(t, bookID, envelope.Data.Book.ID)
	assert.Equal(t, "Dune", envelope.Data.Book.Title)
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/books",
		map[string]any{"title": "Anonymous Book", "author": "Nobody"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.createTestUser(t, "alice")
	bookID := ts.createTestBook(t, token, "Piranesi", "Susanna Clarke")

	// Books are public; no token needed to read them.
	resp := ts.api.Get("/api/v1/books/" + bookID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[BookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, bookID, envelope.Data.ID)
	assert.Equal(t, "Piranesi", envelope.Data.Title)
	assert.Equal(t, "Susanna Clarke", envelope.Data.Author)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/books/bok_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestListBooks_SortedAndFiltered(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/books",
		map[string]any{"title": "Zorba the Greek", "author": "Nikos Kazantzakis"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/books",
		map[string]any{"title": "A Wizard of Earthsea", "author": "Ursula K. Le Guin"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/books",
		map[string]any{"title": "The Soul of a New Machine", "author": "Tracy Kidder", "genre": "nonfiction"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	// Full list comes back in title order.
	resp = ts.api.Get("/api/v1/books")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[ListBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Books, 3)
	assert.Equal(t, "A Wizard of Earthsea", envelope.Data.Books[0].Title)
	assert.Equal(t, "The Soul of a New Machine", envelope.Data.Books[1].Title)
	assert.Equal(t, "Zorba the Greek", envelope.Data.Books[2].Title)

	// Genre filter narrows the list.
	resp = ts.api.Get("/api/v1/books?genre=nonfiction")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Books, 1)
	assert.Equal(t, "The Soul of a New Machine", envelope.Data.Books[0].Title)
}

func TestTopBooks_OrderedByFavoriteCount(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceToken, _ := ts.createTestUser(t, "alice")
	bobToken, _ := ts.createTestUser(t, "bob")

	hitID := ts.createTestBook(t, aliceToken, "The Hit", "Popular Author")
	nicheID := ts.createTestBook(t, aliceToken, "The Niche", "Obscure Author")
	ts.createTestBook(t, aliceToken, "The Ignored", "Forgotten Author")

	ts.addFavorite(t, aliceToken, hitID)
	ts.addFavorite(t, bobToken, hitID)
	ts.addFavorite(t, aliceToken, nicheID)

	resp := ts.api.Get("/api/v1/books/top")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[TopBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	// Unfavorited books stay out of the ranking.
	require.Len(t, envelope.Data.Books, 2)
	assert.Equal(t, "The Hit", envelope.Data.Books[0].Book.Title)
	assert.Equal(t, 2, envelope.Data.Books[0].FavoriteCount)
	assert.Equal(t, "The Niche", envelope.Data.Books[1].Book.Title)
	assert.Equal(t, 1, envelope.Data.Books[1].FavoriteCount)
}
