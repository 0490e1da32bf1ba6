package models

import (
	"fmt"
	"strings"
)

// State is the lifecycle state shared by issues, pull requests and milestones
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// ParseState normalises a forge state string. Anything other than "closed" is open.
func ParseState(s string) State {
	if strings.EqualFold(s, string(StateClosed)) {
		return StateClosed
	}
	return StateOpen
}

// StateFilter selects entities by state when listing
type StateFilter string

const (
	FilterOpen   StateFilter = "open"
	FilterClosed StateFilter = "closed"
	FilterAll    StateFilter = "all"
)

// Matches reports whether an entity in state s passes the filter
func (f StateFilter) Matches(s State) bool {
	switch f {
	case FilterOpen:
		return s == StateOpen
	case FilterClosed:
		return s == StateClosed
	default:
		return true
	}
}

// RepoRef identifies a repository by owner and name
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns "owner/name"
func (r RepoRef) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

func (r RepoRef) String() string {
	return r.FullName()
}
