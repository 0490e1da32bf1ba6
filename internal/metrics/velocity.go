package metrics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Period is the window length used by velocity reports
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDay:
		return day
	case PeriodMonth:
		return 30 * day
	default:
		return 7 * day
	}
}

// ParsePeriod accepts day, week or month in any case, with an optional "ly"/"s" suffix
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "days", "daily":
		return PeriodDay, nil
	case "", "week", "weeks", "weekly":
		return PeriodWeek, nil
	case "month", "months", "monthly":
		return PeriodMonth, nil
	}
	return "", apperrors.NewInvalidFormatError(fmt.Sprintf("unknown period %q (want day, week or month)", s), nil)
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// trendThreshold is the net-change difference between halves that counts as a trend
const trendThreshold = 5

// minTrendWindows is the fewest windows for which a trend is classified
const minTrendWindows = 4

// VelocityPoint covers the window (PeriodStart, PeriodEnd]. CumulativeOpen is
// the open issue count at PeriodEnd.
type VelocityPoint struct {
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Opened         int       `json:"opened"`
	Closed         int       `json:"closed"`
	Net            int       `json:"net"`
	CumulativeOpen int       `json:"cumulative_open"`
}

type Velocity struct {
	Period      Period          `json:"period"`
	Points      []VelocityPoint `json:"points"`
	Trend       Trend           `json:"trend"`
	AvgOpened   float64         `json:"avg_opened"`
	AvgClosed   float64         `json:"avg_closed"`
	CurrentOpen int             `json:"current_open"`
	TotalOpened int             `json:"total_opened"`
	TotalClosed int             `json:"total_closed"`
}

// CalculateVelocity walks count windows of period back from now and returns
// them in chronological order.
func CalculateVelocity(issues []models.Issue, now time.Time, period Period, count int) *Velocity {
	v := &Velocity{Period: period, Points: []VelocityPoint{}, Trend: TrendStable}
	if count <= 0 {
		return v
	}

	for i := range issues {
		if issues[i].State != models.StateClosed {
			v.CurrentOpen++
		}
	}

	length := period.Duration()
	running := v.CurrentOpen
	for i := 0; i < count; i++ {
		end := now.Add(-time.Duration(i) * length)
		start := end.Add(-length)
		p := VelocityPoint{PeriodStart: start, PeriodEnd: end}

		for j := range issues {
			issue := &issues[j]
			if inWindow(issue.CreatedAt, start, end) {
				p.Opened++
			}
			if issue.ClosedAt != nil && inWindow(*issue.ClosedAt, start, end) {
				p.Closed++
			}
		}
		p.Net = p.Opened - p.Closed
		p.CumulativeOpen = running
		running -= p.Net

		v.TotalOpened += p.Opened
		v.TotalClosed += p.Closed
		v.Points = append(v.Points, p)
	}
	slices.Reverse(v.Points)

	v.AvgOpened = float64(v.TotalOpened) / float64(count)
	v.AvgClosed = float64(v.TotalClosed) / float64(count)
	v.Trend = classifyTrend(v.Points)
	return v
}

func inWindow(t, start, end time.Time) bool {
	return t.After(start) && !t.After(end)
}

// classifyTrend compares the summed net change of the later half of points to the earlier half
func classifyTrend(points []VelocityPoint) Trend {
	if len(points) < minTrendWindows {
		return TrendStable
	}
	mid := len(points) / 2
	var first, second int
	for i, p := range points {
		if i < mid {
			first += p.Net
		} else {
			second += p.Net
		}
	}

	switch diff := second - first; {
	case diff > trendThreshold:
		return TrendIncreasing
	case diff < -trendThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
