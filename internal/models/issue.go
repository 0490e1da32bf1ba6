package models

import (
	"strings"
	"time"
)

// Issue is a snapshot of a forge issue. ClosedAt is set iff State is closed.
type Issue struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	State     State      `json:"state"`
	Labels    []Label    `json:"labels"`
	Assignees []User     `json:"assignees"`
	Milestone *Milestone `json:"milestone,omitempty"`
	Author    User       `json:"author"`
	Comments  int        `json:"comments"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	ClosedBy  *User      `json:"closed_by,omitempty"`
}

// IsClosed reports whether the issue has been closed
func (i *Issue) IsClosed() bool {
	return i.State == StateClosed && i.ClosedAt != nil
}

// Age is now minus creation for open issues, and the time to close once closed
func (i *Issue) Age(now time.Time) time.Duration {
	if i.IsClosed() {
		return i.ClosedAt.Sub(i.CreatedAt)
	}
	return now.Sub(i.CreatedAt)
}

// HasLabel reports whether the issue carries a label with the given name, ignoring case
func (i *Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}
