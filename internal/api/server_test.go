package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/readalikeapp/readalike-server/internal/auth"
	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/service"
	"github.com/readalikeapp/readalike-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for unmarshaling in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// recordingDispatcher captures digest sends instead of delivering email.
type recordingDispatcher struct {
	mu    sync.Mutex
	sends []recordedDigest
}

type recordedDigest struct {
	UserID          string
	BookTitles      []string
	TotalCount      int
	AdditionalCount int
}

func (d *recordingDispatcher) SendDigest(_ context.Context, user *domain.User, _ string,
	books []*domain.Book, totalCount, additionalCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	d.sends = append(d.sends, recordedDigest{
		UserID:          user.ID,
		BookTitles:      titles,
		TotalCount:      totalCount,
		AdditionalCount: additionalCount,
	})
	return nil
}

func (d *recordingDispatcher) sent() []recordedDigest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recordedDigest(nil), d.sends...)
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api          humatest.TestAPI
	cleanup      func()
	tokenService *auth.TokenService
	dispatcher   *recordingDispatcher
}

// setupTestServer creates a test server backed by a throwaway SQLite file.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "readalike-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

	// Create test config.
	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:     "Test Server",
			SiteName: "Readalike Test",
			BaseURL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			AccessTokenDuration: 15 * time.Minute,
		},
		Digest: config.DigestConfig{
			Window:   7 * 24 * time.Hour,
			MaxBooks: 10,
		},
	}

	// Load or generate auth key.
	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	cfg.Auth.AccessTokenKey = authKey

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		cfg.Auth.AccessTokenDuration,
	)
	require.NoError(t, err)

	// Create services. The digest dispatcher records sends in memory.
	dispatcher := &recordingDispatcher{}
	digestService := service.NewDigestService(st, dispatcher, cfg.Digest, logger)

	services := &Services{
		Auth:           service.NewAuthService(st, tokenService, logger),
		Catalog:        service.NewCatalogService(st, logger),
		Favorite:       service.NewFavoriteService(st, digestService, logger),
		Recommendation: service.NewRecommendationService(st, logger),
		Preference:     service.NewPreferenceService(st, logger),
		TBR:            service.NewTBRService(st, logger),
		Feedback:       service.NewFeedbackService(st, logger),
	}

	router := chi.NewRouter()

	// Add auth middleware before routes
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Readalike API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
	}

	// Register routes.
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerFavoriteRoutes()
	s.registerRecommendationRoutes()
	s.registerPreferenceRoutes()
	s.registerTBRRoutes()
	s.registerFeedbackRoutes()

	testAPI := humatest.Wrap(t, api)

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:       s,
		api:          testAPI,
		cleanup:      cleanup,
		tokenService: tokenService,
		dispatcher:   dispatcher,
	}
}

// createTestUser signs up a user and returns the access token and user ID.
func (ts *testServer) createTestUser(t *testing.T, handle string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"handle":   handle,
		"password": "TestPassword123!",
		"email":    handle + "@test.com",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Signup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	claims, err := ts.tokenService.VerifyAccessToken(envelope.Data.AccessToken)
	require.NoError(t, err)

	return envelope.Data.AccessToken, claims.UserID
}

// createTestBook adds a book through the catalog API and returns its ID.
func (ts *testServer) createTestBook(t *testing.T, token, title, author string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books",
		map[string]any{"title": title, "author": author},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create book failed: %s", resp.Body.String())

	var envelope testEnvelope[CreateBookResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	return envelope.Data.Book.ID
}

// addFavorite favorites a book for the token's user.
func (ts *testServer) addFavorite(t *testing.T, token, bookID string) {
	t.Helper()

	resp := ts.api.Put("/api/v1/favorites/"+bookID,
		map[string]any{},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Add favorite failed: %s", resp.Body.String())
}
