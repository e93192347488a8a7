package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/readalikeapp/readalike-server/internal/domain"
	"github.com/readalikeapp/readalike-server/internal/id"
	"github.com/readalikeapp/readalike-server/internal/store"
)

// preferenceColumns is the ordered list of columns selected in email
// preference queries. Must match the scan order in scanPreference.
const preferenceColumns = `id, created_at, updated_at, user_id,
	receive_recommendations, unsubscribe_token, unsubscribed_at, last_recommendation_sent`

// scanPreference scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.EmailPreference.
func scanPreference(scanner interface{ Scan(dest ...any) error }) (*domain.EmailPreference, error) {
	var p domain.EmailPreference

	var (
		createdAt      string
		updatedAt      string
		receive        int
		unsubscribedAt sql.NullString
		lastSent       sql.NullString
	)

	err := scanner.Scan(
		&p.ID,
		&createdAt,
		&updatedAt,
		&p.UserID,
		&receive,
		&p.UnsubscribeToken,
		&unsubscribedAt,
		&lastSent,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	p.ReceiveRecommendations = receive != 0
	p.UnsubscribedAt, err = parseNullableTime(unsubscribedAt)
	if err != nil {
		return nil, err
	}
	p.LastRecommendationSent, err = parseNullableTime(lastSent)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// getEmailPreference retrieves the preference row for a user.
func (s *Store) getEmailPreference(ctx context.Context, userID string) (*domain.EmailPreference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM email_preferences WHERE user_id = ?`, userID)

	p, err := scanPreference(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetOrCreateEmailPreference retrieves a user's email preference, creating
// the row on first access: subscribed, with a fresh unsubscribe token.
func (s *Store) GetOrCreateEmailPreference(ctx context.Context, userID string) (*domain.EmailPreference, error) {
	existing, err := s.getEmailPreference(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	prefID, err := id.Generate("pref")
	if err != nil {
		return nil, fmt.Errorf("generate preference id: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.EmailPreference{
		Record: domain.Record{
			ID:        prefID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:                 userID,
		ReceiveRecommendations: true,
		UnsubscribeToken:       uuid.NewString(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO email_preferences (
			id, created_at, updated_at, user_id,
			receive_recommendations, unsubscribe_token, unsubscribed_at, last_recommendation_sent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		p.UserID,
		boolToInt(p.ReceiveRecommendations),
		p.UnsubscribeToken,
		nullTimeString(p.UnsubscribedAt),
		nullTimeString(p.LastRecommendationSent),
	)
	if err != nil {
		if isConstraintErr(err) {
			// Race: another request created the row first.
			return s.getEmailPreference(ctx, userID)
		}
		return nil, err
	}

	return p, nil
}

// GetEmailPreferenceByToken retrieves a preference by its unsubscribe token.
// Returns store.ErrNotFound for unknown tokens.
func (s *Store) GetEmailPreferenceByToken(ctx context.Context, token string) (*domain.EmailPreference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM email_preferences WHERE unsubscribe_token = ?`, token)

	p, err := scanPreference(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateEmailPreference performs a full row update on an existing preference.
// Returns store.ErrNotFound if the row does not exist.
func (s *Store) UpdateEmailPreference(ctx context.Context, pref *domain.EmailPreference) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE email_preferences SET
			updated_at = ?,
			receive_recommendations = ?,
			unsubscribe_token = ?,
			unsubscribed_at = ?,
			last_recommendation_sent = ?
		WHERE user_id = ?`,
		formatTime(pref.UpdatedAt),
		boolToInt(pref.ReceiveRecommendations),
		pref.UnsubscribeToken,
		nullTimeString(pref.UnsubscribedAt),
		nullTimeString(pref.LastRecommendationSent),
		pref.UserID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkRecommendationSent records a digest send at sentAt, but only if the
// previous send is at least window old. The throttle re-check and the write
// are a single guarded UPDATE, so two concurrent digest passes cannot both
// record a send inside one window. Returns whether the write happened.
func (s *Store) MarkRecommendationSent(ctx context.Context, userID string, sentAt time.Time, window time.Duration) (bool, error) {
	cutoff := sentAt.Add(-window)

	result, err := s.db.ExecContext(ctx, `
		UPDATE email_preferences
		SET last_recommendation_sent = ?, updated_at = ?
		WHERE user_id = ?
		AND (last_recommendation_sent IS NULL OR last_recommendation_sent <= ?)`,
		formatTime(sentAt), formatTime(sentAt), userID, formatTime(cutoff))
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// Either throttled or the row is missing; only the latter is an error.
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM email_preferences WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
