package domain

// MaxFeedbackLength caps a feedback message, in characters.
const MaxFeedbackLength = 2000

// Feedback is a note from a reader about the site. Submissions are
// write-only through the API; someone reads them straight out of the
// database when they care to. Anonymous submissions are allowed, so
// UserID may be empty.
type Feedback struct {
	Record
	UserID       string `json:"user_id,omitempty"`
	PageURL      string `json:"page_url,omitempty"`
	Rating       int    `json:"rating,omitempty"` // 1-5, 0 means not given
	Message      string `json:"message"`
	ContactEmail string `json:"contact_email,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
}
