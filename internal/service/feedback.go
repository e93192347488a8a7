package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// FeedbackService accepts feedback submissions. Write-only from the API;
// operators read the table with their own tools.
type FeedbackService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store store.Store, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		store:  store,
		logger: logger,
	}
}

// FeedbackRequest contains a feedback submission. UserID and UserAgent are
// filled in by the handler, not the client.
type FeedbackRequest struct {
	Message      string `json:"message" validate:"required,max=2000"`
	PageURL      string `json:"page_url" validate:"omitempty,max=500"`
	Rating       int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	UserID       string `json:"-"`
	UserAgent    string `json:"-"`
}

// Submit stores a feedback entry. Anonymous submissions are fine.
func (s *FeedbackService) Submit(ctx context.Context, req FeedbackRequest) (*domain.Feedback, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	fbID, err := id.Generate("fbk")
	if err != nil {
		return nil, fmt.Errorf("generate feedback ID: %w", err)
	}

	fb := &domain.Feedback{
		Record: domain.Record{
			ID: fbID,
		},
		UserID:       req.UserID,
		PageURL:      req.PageURL,
		Rating:       req.Rating,
		Message:      req.Message,
		ContactEmail: req.ContactEmail,
		UserAgent:    req.UserAgent,
	}
	fb.InitTimestamps()

	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.Info("Feedback received", "feedback_id", fbID, "anonymous", req.UserID == "")
	return fb, nil
}

// Count returns the total number of feedback submissions.
func (s *FeedbackService) Count(ctx context.Context) (int, error) {
	n, err := s.store.CountFeedback(ctx)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}
