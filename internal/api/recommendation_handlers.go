package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalikeapp/readalike-server/internal/color"
	"github.com/readalikeapp/readalike-server/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Get recommendations",
		Description: "Returns books favorited by readers who share favorites with you, grouped by reader and ordered by taste overlap",
		Tags:        []string{"Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecommendations)
}

// === DTOs ===

// RecommendedBookResponse is one candidate book inside a group.
type RecommendedBookResponse struct {
	Book        BookResponse `json:"book" doc:"Recommended book"`
	Explanation string       `json:"explanation,omitempty" doc:"The recommending reader's note about this book"`
}

// RecommendationGroupResponse collects the books attributed to one similar reader.
type RecommendationGroupResponse struct {
	NeighborID     string                    `json:"neighbor_id" doc:"Recommending reader's ID"`
	NeighborHandle string                    `json:"neighbor_handle" doc:"Recommending reader's handle"`
	AvatarColor    string                    `json:"avatar_color" doc:"Stable hex color for the reader's avatar"`
	OverlapCount   int                       `json:"overlap_count" doc:"How many favorites you share with this reader"`
	SharedTitles   []string                  `json:"shared_titles" doc:"Titles you both favorited"`
	Books          []RecommendedBookResponse `json:"books" doc:"Their favorites you haven't favorited yet"`
}

// RecommendationDiagnosticResponse summarizes the result.
type RecommendationDiagnosticResponse struct {
	TotalFavorites       int    `json:"total_favorites" doc:"How many favorites you have"`
	SimilarUsersCount    int    `json:"similar_users_count" doc:"How many readers share at least one favorite with you"`
	RecommendationsCount int    `json:"recommendations_count" doc:"Total candidate books across all groups"`
	Reason               string `json:"reason,omitempty" doc:"Why the result is empty, when it is"`
}

// RecommendationsResponse contains the full recommendation result.
type RecommendationsResponse struct {
	Groups     []RecommendationGroupResponse    `json:"groups" doc:"Recommendation groups, strongest overlap first"`
	Diagnostic RecommendationDiagnosticResponse `json:"diagnostic" doc:"Result summary"`
}

// RecommendationsOutput wraps the recommendations response for Huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// === Handlers ===

func (s *Server) handleGetRecommendations(ctx context.Context, _ *struct{}) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.services.Recommendation.GetRecommendations(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &RecommendationsOutput{Body: mapRecommendationsResponse(recs)}, nil
}

func mapRecommendationsResponse(recs *domain.Recommendations) RecommendationsResponse {
	groups := make([]RecommendationGroupResponse, len(recs.Groups))
	for i, g := range recs.Groups {
		books := make([]RecommendedBookResponse, len(g.Books))
		for j, b := range g.Books {
			books[j] = RecommendedBookResponse{
				Book:        mapBookResponse(b.Book),
				Explanation: b.Explanation,
			}
		}
		groups[i] = RecommendationGroupResponse{
			NeighborID:     g.NeighborID,
			NeighborHandle: g.NeighborHandle,
			AvatarColor:    color.ForUser(g.NeighborID),
			OverlapCount:   g.OverlapCount,
			SharedTitles:   g.SharedTitles,
			Books:          books,
		}
	}

	return RecommendationsResponse{
		Groups: groups,
		Diagnostic: RecommendationDiagnosticResponse{
			TotalFavorites:       recs.Diagnostic.TotalFavorites,
			SimilarUsersCount:    recs.Diagnostic.SimilarUsersCount,
			RecommendationsCount: recs.Diagnostic.RecommendationsCount,
			Reason:               recs.Diagnostic.Reason,
		},
	}
}
