package models

import "time"

// Timeline event names used by the metrics engine
const (
	EventCommented = "commented"
	EventClosed    = "closed"
	EventReopened  = "reopened"
	EventLabeled   = "labeled"
	EventAssigned  = "assigned"
)

// TimelineEvent is one entry of an issue's timeline
type TimelineEvent struct {
	Event     string    `json:"event"`
	Actor     *User     `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
