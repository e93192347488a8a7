package domain

import "time"

// EmailPreference tracks a user's digest subscription. A row is created
// lazily the first time the system needs it, subscribed by default.
//
// Subscription state only moves through Unsubscribe and Resubscribe; nothing
// else may flip ReceiveRecommendations. In particular a send failure, a
// missing email address, or a throttled digest leaves the state untouched.
type EmailPreference struct {
	Record
	UserID                 string     `json:"user_id"`
	ReceiveRecommendations bool       `json:"receive_recommendations"`
	UnsubscribeToken       string     `json:"-"` // opaque, used in email links, never in API responses
	UnsubscribedAt         *time.Time `json:"unsubscribed_at,omitempty"`
	LastRecommendationSent *time.Time `json:"last_recommendation_sent,omitempty"`
}

// Unsubscribe stops future digest email. Calling it again is a no-op.
func (p *EmailPreference) Unsubscribe(now time.Time) {
	if !p.ReceiveRecommendations {
		return
	}
	p.ReceiveRecommendations = false
	p.UnsubscribedAt = &now
	p.Touch()
}

// Resubscribe re-enables digest email and clears the unsubscribe timestamp.
// Calling it again is a no-op.
func (p *EmailPreference) Resubscribe() {
	if p.ReceiveRecommendations {
		return
	}
	p.ReceiveRecommendations = true
	p.UnsubscribedAt = nil
	p.Touch()
}

// DueForDigest reports whether enough time has passed since the last send.
// A preference that has never been sent to is always due.
func (p *EmailPreference) DueForDigest(now time.Time, window time.Duration) bool {
	if p.LastRecommendationSent == nil {
		return true
	}
	return now.Sub(*p.LastRecommendationSent) >= window
}
