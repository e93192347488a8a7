package sqlite

import (
	"context"

	"github.com/readalikeapp/readalike-server/internal/domain"
)

// CreateFeedback inserts a feedback submission. Feedback is write-only
// through the store; operators read it with their own tools.
func (s *Store) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (
			id, created_at, updated_at, user_id, page_url, rating,
			message, contact_email, user_agent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID,
		formatTime(fb.CreatedAt),
		formatTime(fb.UpdatedAt),
		nullString(fb.UserID),
		fb.PageURL,
		nullInt64(fb.Rating),
		fb.Message,
		fb.ContactEmail,
		fb.UserAgent,
	)
	return err
}

// CountFeedback returns the total number of feedback submissions.
func (s *Store) CountFeedback(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
