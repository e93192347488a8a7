package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readalikeapp/readalike-server/internal/domain"
	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// PreferenceService manages digest email preferences: lazily created,
// subscribed by default, flipped only by explicit unsubscribe/resubscribe.
type PreferenceService struct {
	store  store.Store
	logger *slog.Logger
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(store store.Store, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{
		store:  store,
		logger: logger,
	}
}

// GetPreference returns the user's email preference, creating it on first
// access.
func (s *PreferenceService) GetPreference(ctx context.Context, userID string) (*domain.EmailPreference, error) {
	pref, err := s.store.GetOrCreateEmailPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get email preference: %w", err)
	}
	return pref, nil
}

// Unsubscribe stops digest email for the authenticated user. Idempotent.
func (s *PreferenceService) Unsubscribe(ctx context.Context, userID string) (*domain.EmailPreference, error) {
	pref, err := s.store.GetOrCreateEmailPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get email preference: %w", err)
	}

	if pref.ReceiveRecommendations {
		pref.Unsubscribe(time.Now())
		if err := s.store.UpdateEmailPreference(ctx, pref); err != nil {
			return nil, fmt.Errorf("update email preference: %w", err)
		}
		s.logger.Info("User unsubscribed from digests", "user_id", userID)
	}
	return pref, nil
}

// UnsubscribeByToken stops digest email via the opaque token carried in
// email links. No authentication; the token is the proof. Idempotent, so a
// twice-clicked link still lands on success.
func (s *PreferenceService) UnsubscribeByToken(ctx context.Context, token string) error {
	pref, err := s.store.GetEmailPreferenceByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("unknown unsubscribe token")
		}
		return fmt.Errorf("lookup unsubscribe token: %w", err)
	}

	if pref.ReceiveRecommendations {
		pref.Unsubscribe(time.Now())
		if err := s.store.UpdateEmailPreference(ctx, pref); err != nil {
			return fmt.Errorf("update email preference: %w", err)
		}
		s.logger.Info("User unsubscribed from digests via email link", "user_id", pref.UserID)
	}
	return nil
}

// Resubscribe re-enables digest email for the authenticated user.
// Idempotent.
func (s *PreferenceService) Resubscribe(ctx context.Context, userID string) (*domain.EmailPreference, error) {
	pref, err := s.store.GetOrCreateEmailPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get email preference: %w", err)
	}

	if !pref.ReceiveRecommendations {
		pref.Resubscribe()
		if err := s.store.UpdateEmailPreference(ctx, pref); err != nil {
			return nil, fmt.Errorf("update email preference: %w", err)
		}
		s.logger.Info("User resubscribed to digests", "user_id", userID)
	}
	return pref, nil
}
