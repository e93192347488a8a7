// Package di provides dependency injection configuration for the Readalike server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readalikeapp/readalike-server/internal/auth"
	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/di/providers"
	"github.com/readalikeapp/readalike-server/internal/logger"
	"github.com/readalikeapp/readalike-server/internal/mail"
	"github.com/readalikeapp/readalike-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Mail layer
	do.Provide(injector, providers.ProvideMailer)
	do.Provide(injector, providers.ProvideDigestService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideFavoriteService)
	do.Provide(injector, providers.ProvideRecommendationService)
	do.Provide(injector, providers.ProvidePreferenceService)
	do.Provide(injector, providers.ProvideTBRService)
	do.Provide(injector, providers.ProvideFeedbackService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*mail.Mailer](injector)
	_ = do.MustInvoke[*service.DigestService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.FavoriteService](injector)
	_ = do.MustInvoke[*service.RecommendationService](injector)
	_ = do.MustInvoke[*service.PreferenceService](injector)
	_ = do.MustInvoke[*service.TBRService](injector)
	_ = do.MustInvoke[*service.FeedbackService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
