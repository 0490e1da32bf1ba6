package models

import "time"

// PullRequest is a snapshot of a forge pull request. Merged implies closed with MergedAt set.
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body,omitempty"`
	State        State      `json:"state"`
	Draft        bool       `json:"draft"`
	Author       User       `json:"author"`
	Labels       []Label    `json:"labels"`
	Milestone    *Milestone `json:"milestone,omitempty"`
	HeadRef      string     `json:"head_ref"`
	BaseRef      string     `json:"base_ref"`
	Merged       bool       `json:"merged"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// ChangedLines is additions plus deletions
func (p *PullRequest) ChangedLines() int {
	return p.Additions + p.Deletions
}

// IsMerged reports whether the pull request was merged
func (p *PullRequest) IsMerged() bool {
	return p.Merged && p.MergedAt != nil
}
