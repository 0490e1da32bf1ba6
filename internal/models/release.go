package models

import "time"

type Release struct {
	ID          int64      `json:"id"`
	TagName     string     `json:"tag_name"`
	Name        *string    `json:"name,omitempty"`
	Body        *string    `json:"body,omitempty"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	Author      User       `json:"author"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// IsStable reports whether the release is neither a draft nor a prerelease
func (r *Release) IsStable() bool {
	return !r.Draft && !r.Prerelease
}
