package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalikeapp/readalike-server/internal/service"
)

func (s *Server) registerFeedbackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitFeedback",
		Method:      http.MethodPost,
		Path:        "/api/v1/feedback",
		Summary:     "Submit feedback",
		Description: "Accepts a feedback submission, anonymously or from a signed-in user",
		Tags:        []string{"Feedback"},
	}, s.handleSubmitFeedback)
}

// === DTOs ===

// FeedbackRequest contains a feedback submission from the client.
type FeedbackRequest struct {
	Message      string `json:"message" validate:"required,max=2000" doc:"Feedback text"`
	PageURL      string `json:"page_url,omitempty" validate:"omitempty,max=500" doc:"Page the feedback was submitted from"`
	Rating       int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5" doc:"Optional 1-5 rating"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email" doc:"Optional email for follow-up"`
}

// SubmitFeedbackInput combines the body with request metadata headers.
type SubmitFeedbackInput struct {
	Body          FeedbackRequest
	UserAgent     string `header:"User-Agent" doc:"Client user agent, recorded with the submission"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// === Handlers ===

func (s *Server) handleSubmitFeedback(ctx context.Context, input *SubmitFeedbackInput) (*MessageOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}

	// Feedback is open to anonymous visitors. Attach the user ID only when
	// a valid token came along.
	userID, _ := GetUserID(ctx)

	req := service.FeedbackRequest{
		Message:      input.Body.Message,
		PageURL:      input.Body.PageURL,
		Rating:       input.Body.Rating,
		ContactEmail: input.Body.ContactEmail,
		UserID:       userID,
		UserAgent:    input.UserAgent,
	}

	if _, err := s.services.Feedback.Submit(ctx, req); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Thanks for the feedback!"}}, nil
}
