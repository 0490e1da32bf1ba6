package models

import (
	"cmp"
	"slices"
)

// User is a forge account. Grouping and display use Login.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Label is a repository label attached to issues and pull requests
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// SortLabels orders labels by name, then id. Issues carry labels in this order on every read path.
func SortLabels(labels []Label) {
	slices.SortStableFunc(labels, func(a, b Label) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortUsers orders users by id
func SortUsers(users []User) {
	slices.SortStableFunc(users, func(a, b User) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
