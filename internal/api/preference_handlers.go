package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalikeapp/readalike-server/internal/domain"
)

func (s *Server) registerPreferenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/preferences",
		Summary:     "Get email preferences",
		Description: "Returns the current user's digest subscription state",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "unsubscribe",
		Method:      http.MethodPost,
		Path:        "/api/v1/preferences/unsubscribe",
		Summary:     "Unsubscribe from digests",
		Description: "Stops future recommendation digest email for the current user",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnsubscribe)

	huma.Register(s.api, huma.Operation{
		OperationID: "resubscribe",
		Method:      http.MethodPost,
		Path:        "/api/v1/preferences/resubscribe",
		Summary:     "Resubscribe to digests",
		Description: "Re-enables recommendation digest email for the current user",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResubscribe)

	// The email link target. GET serves humans clicking the link; POST
	// serves one-click unsubscribe per RFC 8058. Both are unauthenticated,
	// the token is the credential.
	huma.Register(s.api, huma.Operation{
		OperationID: "unsubscribeByToken",
		Method:      http.MethodGet,
		Path:        "/api/v1/unsubscribe/{token}",
		Summary:     "Unsubscribe via email link",
		Description: "Unsubscribes the account holding this token from digest email",
		Tags:        []string{"Preferences"},
	}, s.handleUnsubscribeByToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "unsubscribeByTokenOneClick",
		Method:      http.MethodPost,
		Path:        "/api/v1/unsubscribe/{token}",
		Summary:     "One-click unsubscribe",
		Description: "List-Unsubscribe-Post target for mail clients",
		Tags:        []string{"Preferences"},
	}, s.handleUnsubscribeByToken)
}

// === DTOs ===

// PreferenceResponse contains digest subscription state.
type PreferenceResponse struct {
	ReceiveRecommendations bool       `json:"receive_recommendations" doc:"Whether digest email is enabled"`
	UnsubscribedAt         *time.Time `json:"unsubscribed_at,omitempty" doc:"When the user unsubscribed, if they did"`
	LastRecommendationSent *time.Time `json:"last_recommendation_sent,omitempty" doc:"When the last digest went out"`
}

// PreferenceOutput wraps the preference response for Huma.
type PreferenceOutput struct {
	Body PreferenceResponse
}

// UnsubscribeByTokenInput contains the unsubscribe token from the email link.
type UnsubscribeByTokenInput struct {
	Token string `path:"token" doc:"Unsubscribe token from the email link"`
}

// === Handlers ===

func (s *Server) handleGetPreferences(ctx context.Context, _ *struct{}) (*PreferenceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.services.Preference.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &PreferenceOutput{Body: mapPreferenceResponse(pref)}, nil
}

func (s *Server) handleUnsubscribe(ctx context.Context, _ *struct{}) (*PreferenceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.services.Preference.Unsubscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &PreferenceOutput{Body: mapPreferenceResponse(pref)}, nil
}

func (s *Server) handleResubscribe(ctx context.Context, _ *struct{}) (*PreferenceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.services.Preference.Resubscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &PreferenceOutput{Body: mapPreferenceResponse(pref)}, nil
}

func (s *Server) handleUnsubscribeByToken(ctx context.Context, input *UnsubscribeByTokenInput) (*MessageOutput, error) {
	if err := s.services.Preference.UnsubscribeByToken(ctx, input.Token); err != nil {
		return nil, err
	}

	return &MessageOutput{
		Body: MessageResponse{Message: "You have been unsubscribed from recommendation emails."},
	}, nil
}

func mapPreferenceResponse(pref *domain.EmailPreference) PreferenceResponse {
	return PreferenceResponse{
		ReceiveRecommendations: pref.ReceiveRecommendations,
		UnsubscribedAt:         pref.UnsubscribedAt,
		LastRecommendationSent: pref.LastRecommendationSent,
	}
}
