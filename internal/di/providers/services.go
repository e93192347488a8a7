package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalikeapp/readalike-server/internal/auth"
	"github.com/readalikeapp/readalike-server/internal/logger"
	"github.com/readalikeapp/readalike-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideCatalogService provides the book catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, log.Logger), nil
}

// ProvideFavoriteService provides the favorites service.
func ProvideFavoriteService(i do.Injector) (*service.FavoriteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	digestService := do.MustInvoke[*service.DigestService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFavoriteService(storeHandle.Store, digestService, log.Logger), nil
}

// ProvideRecommendationService provides the overlap recommendation service.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendationService(storeHandle.Store, log.Logger), nil
}

// ProvidePreferenceService provides the email preference service.
func ProvidePreferenceService(i do.Injector) (*service.PreferenceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPreferenceService(storeHandle.Store, log.Logger), nil
}

// ProvideTBRService provides the to-be-read pile service.
func ProvideTBRService(i do.Injector) (*service.TBRService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTBRService(storeHandle.Store, log.Logger), nil
}

// ProvideFeedbackService provides the user feedback service.
func ProvideFeedbackService(i do.Injector) (*service.FeedbackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedbackService(storeHandle.Store, log.Logger), nil
}
