package metrics

import (
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// SizeCategory buckets a pull request by changed lines
type SizeCategory string

const (
	SizeXSmall SizeCategory = "xsmall"
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
	SizeXLarge SizeCategory = "xlarge"
)

// SizeOf classifies changed lines: <=10, <=50, <=200, <=500, above
func SizeOf(changedLines int) SizeCategory {
	switch {
	case changedLines <= 10:
		return SizeXSmall
	case changedLines <= 50:
		return SizeSmall
	case changedLines <= 200:
		return SizeMedium
	case changedLines <= 500:
		return SizeLarge
	default:
		return SizeXLarge
	}
}

type PullMetrics struct {
	Total                  int                  `json:"total"`
	Open                   int                  `json:"open"`
	Merged                 int                  `json:"merged"`
	ClosedUnmerged         int                  `json:"closed_unmerged"`
	Draft                  int                  `json:"draft"`
	AvgTimeToMergeHours    *float64             `json:"avg_time_to_merge_hours"`
	MedianTimeToMergeHours *float64             `json:"median_time_to_merge_hours"`
	BySize                 map[SizeCategory]int `json:"by_size"`
	ByAuthor               map[string]int       `json:"by_author"`
	ByBaseBranch           map[string]int       `json:"by_base_branch"`
}

func CalculatePullMetrics(prs []models.PullRequest) *PullMetrics {
	m := &PullMetrics{
		Total:        len(prs),
		BySize:       make(map[SizeCategory]int),
		ByAuthor:     make(map[string]int),
		ByBaseBranch: make(map[string]int),
	}

	var mergeTimes []float64
	for i := range prs {
		pr := &prs[i]

		switch {
		case pr.IsMerged():
			m.Merged++
			mergeTimes = append(mergeTimes, hours(pr.MergedAt.Sub(pr.CreatedAt)))
		case pr.State == models.StateClosed:
			m.ClosedUnmerged++
		default:
			m.Open++
		}
		if pr.Draft {
			m.Draft++
		}

		m.BySize[SizeOf(pr.ChangedLines())]++
		m.ByAuthor[pr.Author.Login]++
		m.ByBaseBranch[pr.BaseRef]++
	}

	m.AvgTimeToMergeHours = optional(Average(mergeTimes))
	m.MedianTimeToMergeHours = optional(Median(mergeTimes))
	return m
}
