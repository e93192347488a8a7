package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readalikeapp/readalike-server/internal/api"
	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/logger"
	"github.com/readalikeapp/readalike-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Get all services
	authService := do.MustInvoke[*service.AuthService](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)
	favoriteService := do.MustInvoke[*service.FavoriteService](i)
	recommendationService := do.MustInvoke[*service.RecommendationService](i)
	preferenceService := do.MustInvoke[*service.PreferenceService](i)
	tbrService := do.MustInvoke[*service.TBRService](i)
	feedbackService := do.MustInvoke[*service.FeedbackService](i)

	services := &api.Services{
		Auth:           authService,
		Catalog:        catalogService,
		Favorite:       favoriteService,
		Recommendation: recommendationService,
		Preference:     preferenceService,
		TBR:            tbrService,
		Feedback:       feedbackService,
	}

	handler := api.NewServer(cfg, storeHandle.Store, services, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
