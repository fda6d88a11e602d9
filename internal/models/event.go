package models

import "time"

// EventType names a committed enrollment state transition.
type EventType string

const (
	EventAdmitted            EventType = "ADMITTED"
	EventWaitlisted          EventType = "WAITLISTED"
	EventDropped             EventType = "DROPPED"
	EventRemovedFromWaitlist EventType = "REMOVED_FROM_WAITLIST"
)

// EnrollmentEvent is the immutable fact record published after every
// committed transition. Consumers own their retry and idempotency.
type EnrollmentEvent struct {
	ID        string    `json:"id"`
	StudentID int64     `json:"student_id"`
	ClassID   int64     `json:"class_id"`
	Event     EventType `json:"event"`
	Rank      int       `json:"rank,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
