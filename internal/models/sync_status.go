package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityKind names a synced entity type
type EntityKind string

const (
	KindIssues     EntityKind = "issues"
	KindPulls      EntityKind = "pulls"
	KindReleases   EntityKind = "releases"
	KindMilestones EntityKind = "milestones"
)

// SyncStatus records which entity types of a repository have been synced and when
type SyncStatus struct {
	RepositoryID       int64      `json:"repository_id"`
	IssuesSynced       bool       `json:"issues_synced"`
	PullsSynced        bool       `json:"pulls_synced"`
	ReleasesSynced     bool       `json:"releases_synced"`
	MilestonesSynced   bool       `json:"milestones_synced"`
	IssuesSyncedAt     *time.Time `json:"issues_synced_at,omitempty"`
	PullsSyncedAt      *time.Time `json:"pulls_synced_at,omitempty"`
	ReleasesSyncedAt   *time.Time `json:"releases_synced_at,omitempty"`
	MilestonesSyncedAt *time.Time `json:"milestones_synced_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MarkAll sets every flag and timestamp to at
func (s *SyncStatus) MarkAll(at time.Time) {
	s.IssuesSynced, s.PullsSynced, s.ReleasesSynced, s.MilestonesSynced = true, true, true, true
	s.IssuesSyncedAt, s.PullsSyncedAt, s.ReleasesSyncedAt, s.MilestonesSyncedAt = &at, &at, &at, &at
	s.UpdatedAt = at
}

// SyncedAt returns the last sync time of kind, if it has been synced
func (s *SyncStatus) SyncedAt(kind EntityKind) (time.Time, bool) {
	var ok bool
	var at *time.Time
	switch kind {
	case KindIssues:
		ok, at = s.IssuesSynced, s.IssuesSyncedAt
	case KindPulls:
		ok, at = s.PullsSynced, s.PullsSyncedAt
	case KindReleases:
		ok, at = s.ReleasesSynced, s.ReleasesSyncedAt
	case KindMilestones:
		ok, at = s.MilestonesSynced, s.MilestonesSyncedAt
	}
	if !ok || at == nil {
		return time.Time{}, false
	}
	return *at, true
}

// IsFresh reports whether kind was synced no longer than maxAge before now
func (s *SyncStatus) IsFresh(kind EntityKind, maxAge time.Duration, now time.Time) bool {
	at, ok := s.SyncedAt(kind)
	if !ok {
		return false
	}
	return now.Sub(at) <= maxAge
}

// BatchProgress tracks the progress of batch processing
type BatchProgress struct {
	TotalBatches     int       `json:"total_batches"`
	ProcessedBatches int       `json:"processed_batches"`
	TotalItems       int       `json:"total_items"`
	ProcessedItems   int       `json:"processed_items"`
	StartTime        time.Time `json:"start_time"`
	LastUpdateTime   time.Time `json:"last_update_time"`
	Errors           []string  `json:"errors,omitempty"`
}

// String returns the JSON string representation of the sync status
func (s *SyncStatus) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync status: %v"}`, err)
	}
	return string(data)
}
