package models

// Subscription records a student's opt-in notification endpoints for one
// class. At least one of Email or WebhookURL is populated.
type Subscription struct {
	StudentID  int64  `json:"student_id"`
	ClassID    int64  `json:"class_id"`
	Email      string `json:"email,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// HasEndpoint reports whether at least one delivery endpoint is set.
func (s *Subscription) HasEndpoint() bool {
	return s.Email != "" || s.WebhookURL != ""
}
