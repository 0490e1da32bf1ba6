package models

import "time"

// Milestone groups issues towards a due date
type Milestone struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	State        State      `json:"state"`
	OpenIssues   int        `json:"open_issues"`
	ClosedIssues int        `json:"closed_issues"`
	DueOn        *time.Time `json:"due_on,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// CompletionPercent returns closed/(open+closed)*100, or 0 for an empty milestone
func (m *Milestone) CompletionPercent() float64 {
	total := m.OpenIssues + m.ClosedIssues
	if total == 0 {
		return 0
	}
	return float64(m.ClosedIssues) / float64(total) * 100
}

// IsOverdue reports whether the milestone is still open past its due date
func (m *Milestone) IsOverdue(now time.Time) bool {
	return m.State == StateOpen && m.DueOn != nil && now.After(*m.DueOn)
}
