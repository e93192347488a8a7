package api

import (
	"github.com/readalikeapp/readalike-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth           *service.AuthService
	Catalog        *service.CatalogService
	Favorite       *service.FavoriteService
	Recommendation *service.RecommendationService
	Preference     *service.PreferenceService
	TBR            *service.TBRService
	Feedback       *service.FeedbackService
}
