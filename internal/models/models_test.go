package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseState(t *testing.T) {
	assert.Equal(t, StateClosed, ParseState("CLOSED"))
	assert.Equal(t, StateOpen, ParseState("open"))
	assert.Equal(t, StateOpen, ParseState("merged"))
}

func TestStateFilter(t *testing.T) {
	assert.True(t, FilterOpen.Matches(StateOpen))
	assert.False(t, FilterOpen.Matches(StateClosed))
	assert.True(t, FilterClosed.Matches(StateClosed))
	assert.True(t, FilterAll.Matches(StateOpen))
	assert.True(t, StateFilter("").Matches(StateClosed))
}

func TestIssueAge(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closed := created.Add(48 * time.Hour)
	now := created.Add(240 * time.Hour)

	open := Issue{State: StateOpen, CreatedAt: created}
	assert.False(t, open.IsClosed())
	assert.Equal(t, 240*time.Hour, open.Age(now))

	done := Issue{State: StateClosed, CreatedAt: created, ClosedAt: &closed}
	assert.True(t, done.IsClosed())
	assert.Equal(t, 48*time.Hour, done.Age(now))

	// closed state without a timestamp is treated as open
	inconsistent := Issue{State: StateClosed, CreatedAt: created}
	assert.False(t, inconsistent.IsClosed())
}

func TestIssueHasLabel(t *testing.T) {
	issue := Issue{Labels: []Label{{Name: "Bug"}, {Name: "ui"}}}
	assert.True(t, issue.HasLabel("bug"))
	assert.False(t, issue.HasLabel("feature"))
}

func TestMilestone(t *testing.T) {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	m := Milestone{State: StateOpen, OpenIssues: 1, ClosedIssues: 3, DueOn: &due}
	assert.InDelta(t, 75.0, m.CompletionPercent(), 0.001)
	assert.True(t, m.IsOverdue(due.Add(time.Hour)))
	assert.False(t, m.IsOverdue(due.Add(-time.Hour)))

	assert.Zero(t, (&Milestone{}).CompletionPercent())
}

func TestPullRequestAndRelease(t *testing.T) {
	merged := time.Now()
	pr := PullRequest{Additions: 30, Deletions: 12, Merged: true, MergedAt: &merged}
	assert.Equal(t, 42, pr.ChangedLines())
	assert.True(t, pr.IsMerged())
	assert.False(t, (&PullRequest{Merged: true}).IsMerged())

	assert.True(t, (&Release{}).IsStable())
	assert.False(t, (&Release{Prerelease: true}).IsStable())
	assert.False(t, (&Release{Draft: true}).IsStable())
}

func TestSyncStatusFreshness(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var s SyncStatus
	assert.False(t, s.IsFresh(KindIssues, time.Hour, at))

	s.MarkAll(at)
	for _, kind := range []EntityKind{KindIssues, KindPulls, KindReleases, KindMilestones} {
		got, ok := s.SyncedAt(kind)
		assert.True(t, ok, kind)
		assert.Equal(t, at, got)
	}
	assert.True(t, s.IsFresh(KindPulls, time.Hour, at.Add(time.Hour)))
	assert.False(t, s.IsFresh(KindPulls, time.Hour, at.Add(time.Hour+time.Second)))
}

func TestSortLabelsAndUsers(t *testing.T) {
	labels := []Label{{ID: 3, Name: "ui"}, {ID: 2, Name: "bug"}, {ID: 1, Name: "bug"}}
	SortLabels(labels)
	assert.Equal(t, []Label{{ID: 1, Name: "bug"}, {ID: 2, Name: "bug"}, {ID: 3, Name: "ui"}}, labels)

	users := []User{{ID: 9}, {ID: 4}}
	SortUsers(users)
	assert.Equal(t, []User{{ID: 4}, {ID: 9}}, users)

	assert.Equal(t, "octo/widgets", RepoRef{Owner: "octo", Name: "widgets"}.String())
}
