package metrics

import (
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const (
	DefaultStaleDays = 30
	UnassignedBucket = "Unassigned"
	NoMilestone      = "No Milestone"
)

// AgeBucket counts open issues whose age in days falls in [MinDays, MaxDays).
// MaxDays is nil for the open-ended last bucket.
type AgeBucket struct {
	Label   string `json:"label"`
	MinDays int    `json:"min_days"`
	MaxDays *int   `json:"max_days"`
	Count   int    `json:"count"`
}

var ageBounds = []int{0, 1, 7, 28, 90, 180}

var ageLabels = []string{"< 1 day", "1-7 days", "7-28 days", "28-90 days", "90-180 days", "180+ days"}

func newAgeBuckets() []AgeBucket {
	buckets := make([]AgeBucket, len(ageBounds))
	for i, lo := range ageBounds {
		buckets[i] = AgeBucket{Label: ageLabels[i], MinDays: lo}
		if i+1 < len(ageBounds) {
			hi := ageBounds[i+1]
			buckets[i].MaxDays = &hi
		}
	}
	return buckets
}

// ageBucketIndex returns the bucket holding an age of ageDays. Negative ages land in the first bucket.
func ageBucketIndex(ageDays float64) int {
	idx := 0
	for i, lo := range ageBounds {
		if ageDays >= float64(lo) {
			idx = i
		}
	}
	return idx
}

// IssueMetrics summarizes an issue collection
type IssueMetrics struct {
	Total                  int            `json:"total"`
	Open                   int            `json:"open"`
	Closed                 int            `json:"closed"`
	AvgTimeToCloseHours    *float64       `json:"avg_time_to_close_hours"`
	MedianTimeToCloseHours *float64       `json:"median_time_to_close_hours"`
	ByLabel                map[string]int `json:"by_label"`
	ByAssignee             map[string]int `json:"by_assignee"`
	ByMilestone            map[string]int `json:"by_milestone"`
	AgeDistribution        []AgeBucket    `json:"age_distribution"`
	StaleCount             int            `json:"stale_count"`
	StaleDays              int            `json:"stale_days"`
}

type IssueMetricsOptions struct {
	// StaleDays is how long an open issue may go without updates; zero means DefaultStaleDays
	StaleDays int
}

// CalculateIssueMetrics computes counts, close times, groupings, the age
// distribution of open issues and the stale count.
func CalculateIssueMetrics(issues []models.Issue, now time.Time, opts IssueMetricsOptions) *IssueMetrics {
	staleDays := opts.StaleDays
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}

	m := &IssueMetrics{
		Total:           len(issues),
		ByLabel:         make(map[string]int),
		ByAssignee:      make(map[string]int),
		ByMilestone:     make(map[string]int),
		AgeDistribution: newAgeBuckets(),
		StaleDays:       staleDays,
	}
	staleAfter := time.Duration(staleDays) * day

	var closeTimes []float64
	for i := range issues {
		issue := &issues[i]

		for _, l := range issue.Labels {
			m.ByLabel[l.Name]++
		}
		if len(issue.Assignees) == 0 {
			m.ByAssignee[UnassignedBucket]++
		}
		for _, a := range issue.Assignees {
			m.ByAssignee[a.Login]++
		}
		if issue.Milestone != nil {
			m.ByMilestone[issue.Milestone.Title]++
		} else {
			m.ByMilestone[NoMilestone]++
		}

		if issue.State == models.StateClosed {
			m.Closed++
			if issue.ClosedAt != nil {
				closeTimes = append(closeTimes, hours(issue.ClosedAt.Sub(issue.CreatedAt)))
			}
			continue
		}

		m.Open++
		m.AgeDistribution[ageBucketIndex(days(now.Sub(issue.CreatedAt)))].Count++
		if now.Sub(issue.UpdatedAt) > staleAfter {
			m.StaleCount++
		}
	}

	m.AvgTimeToCloseHours = optional(Average(closeTimes))
	m.MedianTimeToCloseHours = optional(Median(closeTimes))
	return m
}
