package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalikeapp/readalike-server/internal/color"
	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Create account",
		Description: "Creates a new reader account and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMe)
}

// === DTOs ===

// SignupRequest is the request body for creating an account.
type SignupRequest struct {
	Handle      string `json:"handle" validate:"required,min=3,max=30,alphanum" doc:"Unique public handle"`
	Password    string `json:"password" validate:"required,min=8,max=1024" doc:"Account password"`
	Email       string `json:"email,omitempty" validate:"omitempty,email" doc:"Email for digest delivery (optional)"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=100" doc:"Display name (optional)"`
}

// SignupInput wraps the signup request with headers for Huma.
type SignupInput struct {
	Body          SignupRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Handle   string `json:"handle" validate:"required" doc:"Account handle"`
	Password string `json:"password" validate:"required,max=1024" doc:"Account password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// UserResponse contains user account data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Handle      string    `json:"handle" doc:"Public handle"`
	Email       string    `json:"email,omitempty" doc:"Email address"`
	DisplayName string    `json:"display_name,omitempty" doc:"Display name"`
	Role        string    `json:"role" doc:"Account role (admin or member)"`
	AvatarColor string    `json:"avatar_color" doc:"Stable hex color for the user's avatar"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	LastLoginAt time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains the access token and user info.
type AuthResponse struct {
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	TokenType   string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn   int64        `json:"expires_in" doc:"Token expiry in seconds"`
	User        UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MeOutput wraps the current user response for Huma.
type MeOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*AuthOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Signup(ctx, service.SignupRequest{
		Handle:      input.Body.Handle,
		Password:    input.Body.Password,
		Email:       input.Body.Email,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Handle:   input.Body.Handle,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	return &MeOutput{Body: mapUserResponse(user)}, nil
}

// === Helpers ===

// checkAuthRate applies the per-IP limiter to credential endpoints.
func (s *Server) checkAuthRate(xForwardedFor, xRealIP string) error {
	if !s.authRateLimiter.Allow(extractIP(xForwardedFor, xRealIP)) {
		return huma.Error429TooManyRequests("Too many attempts. Please try again later.")
	}
	return nil
}

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken: resp.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   resp.ExpiresIn,
		User:        mapUserResponse(resp.User),
	}
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Handle:      u.Handle,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		AvatarColor: color.ForUser(u.ID),
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
