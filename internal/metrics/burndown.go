package metrics

import (
	"math"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// projectionWindow is how many trailing data points feed the completion projection
const projectionWindow = 7

type BurndownPoint struct {
	Date      time.Time `json:"date"`
	Remaining int       `json:"remaining"`
	Completed int       `json:"completed"`
	Ideal     *float64  `json:"ideal,omitempty"`
}

type Burndown struct {
	MilestoneNumber     int             `json:"milestone_number"`
	MilestoneTitle      string          `json:"milestone_title"`
	TotalIssues         int             `json:"total_issues"`
	DueOn               *time.Time      `json:"due_on,omitempty"`
	Points              []BurndownPoint `json:"points"`
	ProjectedCompletion *time.Time      `json:"projected_completion,omitempty"`
	// OnTrack is set when both a due date and a projection exist
	OnTrack *bool `json:"on_track,omitempty"`
}

type BurnupPoint struct {
	Date      time.Time `json:"date"`
	Scope     int       `json:"scope"`
	Completed int       `json:"completed"`
}

type Burnup struct {
	MilestoneNumber int           `json:"milestone_number"`
	MilestoneTitle  string        `json:"milestone_title"`
	Points          []BurnupPoint `json:"points"`
}

func milestoneIssues(issues []models.Issue, milestone *models.Milestone) []models.Issue {
	var out []models.Issue
	for _, issue := range issues {
		if issue.Milestone != nil && issue.Milestone.ID == milestone.ID {
			out = append(out, issue)
		}
	}
	return out
}

// calendarDays returns midnight UTC of every day from from's day to to's day, inclusive
func calendarDays(from, to time.Time) []time.Time {
	start, end := startOfDay(from), startOfDay(to)
	if start.After(end) {
		start = end
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// closedBy counts issues closed before the end of the day starting at d
func closedBy(issues []models.Issue, d time.Time) int {
	dayEnd := d.AddDate(0, 0, 1)
	n := 0
	for i := range issues {
		if issues[i].ClosedAt != nil && issues[i].ClosedAt.Before(dayEnd) {
			n++
		}
	}
	return n
}

// CalculateBurndown produces one point per UTC day from the milestone's
// creation to now, an ideal line when a due date exists, and a completion
// projection from the recent completion rate.
func CalculateBurndown(issues []models.Issue, milestone *models.Milestone, now time.Time) *Burndown {
	scoped := milestoneIssues(issues, milestone)
	b := &Burndown{
		MilestoneNumber: milestone.Number,
		MilestoneTitle:  milestone.Title,
		TotalIssues:     len(scoped),
		DueOn:           milestone.DueOn,
		Points:          []BurndownPoint{},
	}

	dates := calendarDays(milestone.CreatedAt, now)
	for _, d := range dates {
		completed := closedBy(scoped, d)
		b.Points = append(b.Points, BurndownPoint{
			Date:      d,
			Remaining: b.TotalIssues - completed,
			Completed: completed,
		})
	}

	if milestone.DueOn != nil {
		start := dates[0]
		span := days(startOfDay(*milestone.DueOn).Sub(start))
		for i := range b.Points {
			ideal := 0.0
			if span > 0 {
				elapsed := days(b.Points[i].Date.Sub(start))
				ideal = math.Max(0, float64(b.TotalIssues)*(1-elapsed/span))
			}
			b.Points[i].Ideal = &ideal
		}
	}

	b.ProjectedCompletion = projectCompletion(b.Points)
	if b.ProjectedCompletion != nil && milestone.DueOn != nil {
		onTrack := !b.ProjectedCompletion.After(*milestone.DueOn)
		b.OnTrack = &onTrack
	}
	return b
}

// projectCompletion extrapolates the completion rate of the last points. No
// projection is made when the rate is not positive.
func projectCompletion(points []BurndownPoint) *time.Time {
	if len(points) < 2 {
		return nil
	}
	window := points[max(0, len(points)-projectionWindow):]
	first, last := window[0], window[len(window)-1]

	elapsed := days(last.Date.Sub(first.Date))
	if elapsed <= 0 {
		return nil
	}
	rate := float64(last.Completed-first.Completed) / elapsed
	if rate <= 0 {
		return nil
	}

	remainingDays := int(math.Ceil(float64(last.Remaining) / rate))
	projected := last.Date.AddDate(0, 0, remainingDays)
	return &projected
}

// CalculateBurnup tracks scope (issues created by each day) next to completion
func CalculateBurnup(issues []models.Issue, milestone *models.Milestone, now time.Time) *Burnup {
	scoped := milestoneIssues(issues, milestone)
	b := &Burnup{
		MilestoneNumber: milestone.Number,
		MilestoneTitle:  milestone.Title,
		Points:          []BurnupPoint{},
	}

	for _, d := range calendarDays(milestone.CreatedAt, now) {
		dayEnd := d.AddDate(0, 0, 1)
		scope := 0
		for i := range scoped {
			if scoped[i].CreatedAt.Before(dayEnd) {
				scope++
			}
		}
		b.Points = append(b.Points, BurnupPoint{
			Date:      d,
			Scope:     scope,
			Completed: closedBy(scoped, d),
		})
	}
	return b
}
