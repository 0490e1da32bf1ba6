package metrics

import (
	"strings"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const (
	DefaultResponseHours   = 24
	DefaultResolutionHours = 168
)

// SLAThreshold is a response and resolution budget in hours
type SLAThreshold struct {
	ResponseHours   float64 `json:"response_hours"`
	ResolutionHours float64 `json:"resolution_hours"`
}

// SLAConfig holds the default thresholds and per-label overrides. Priority keys
// are matched against issue labels case-insensitively.
type SLAConfig struct {
	Default    SLAThreshold            `json:"default"`
	Priorities map[string]SLAThreshold `json:"priorities,omitempty"`
}

func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		Default: SLAThreshold{ResponseHours: DefaultResponseHours, ResolutionHours: DefaultResolutionHours},
	}
}

type ViolationType string

const (
	ViolationResponse   ViolationType = "response"
	ViolationResolution ViolationType = "resolution"
)

type SLAViolation struct {
	IssueNumber     int           `json:"issue_number"`
	Title           string        `json:"title"`
	ViolationType   ViolationType `json:"violation_type"`
	Priority        string        `json:"priority,omitempty"`
	ThresholdHours  float64       `json:"threshold_hours"`
	ActualHours     float64       `json:"actual_hours"`
	ExceededByHours float64       `json:"exceeded_by_hours"`
}

type SLAReport struct {
	TotalIssues                 int            `json:"total_issues"`
	ResponseMet                 int            `json:"response_met"`
	ResponseBreached            int            `json:"response_breached"`
	ResponseCompliancePercent   float64        `json:"response_compliance_percent"`
	ResolutionMet               int            `json:"resolution_met"`
	ResolutionBreached          int            `json:"resolution_breached"`
	ResolutionCompliancePercent float64        `json:"resolution_compliance_percent"`
	Violations                  []SLAViolation `json:"violations"`
	// OpenPastResolution counts open issues already older than their resolution threshold
	OpenPastResolution int `json:"open_past_resolution"`
}

func (c SLAConfig) normalized() SLAConfig {
	out := SLAConfig{Default: c.Default, Priorities: make(map[string]SLAThreshold, len(c.Priorities))}
	if out.Default.ResponseHours <= 0 {
		out.Default.ResponseHours = DefaultResponseHours
	}
	if out.Default.ResolutionHours <= 0 {
		out.Default.ResolutionHours = DefaultResolutionHours
	}
	for label, t := range c.Priorities {
		if t.ResponseHours <= 0 {
			t.ResponseHours = out.Default.ResponseHours
		}
		if t.ResolutionHours <= 0 {
			t.ResolutionHours = out.Default.ResolutionHours
		}
		out.Priorities[strings.ToLower(label)] = t
	}
	return out
}

// thresholdFor returns the threshold of the first issue label with an override,
// and that label, falling back to the defaults
func (c SLAConfig) thresholdFor(issue *models.Issue) (SLAThreshold, string) {
	for _, l := range issue.Labels {
		key := strings.ToLower(l.Name)
		if t, ok := c.Priorities[key]; ok {
			return t, key
		}
	}
	return c.Default, ""
}

// firstResponse returns the earliest "commented" event time
func firstResponse(events []models.TimelineEvent) (time.Time, bool) {
	var first time.Time
	found := false
	for _, e := range events {
		if e.Event != models.EventCommented {
			continue
		}
		if !found || e.CreatedAt.Before(first) {
			first = e.CreatedAt
			found = true
		}
	}
	return first, found
}

// CalculateSLA evaluates response compliance for issues with a recorded comment
// and resolution compliance for closed issues. timelines is keyed by issue number.
func CalculateSLA(issues []models.Issue, timelines map[int][]models.TimelineEvent, cfg SLAConfig, now time.Time) *SLAReport {
	cfg = cfg.normalized()
	r := &SLAReport{TotalIssues: len(issues), Violations: []SLAViolation{}}

	for i := range issues {
		issue := &issues[i]
		threshold, priority := cfg.thresholdFor(issue)

		if at, ok := firstResponse(timelines[issue.Number]); ok {
			actual := hours(at.Sub(issue.CreatedAt))
			if actual <= threshold.ResponseHours {
				r.ResponseMet++
			} else {
				r.ResponseBreached++
				r.Violations = append(r.Violations, SLAViolation{
					IssueNumber:     issue.Number,
					Title:           issue.Title,
					ViolationType:   ViolationResponse,
					Priority:        priority,
					ThresholdHours:  threshold.ResponseHours,
					ActualHours:     actual,
					ExceededByHours: actual - threshold.ResponseHours,
				})
			}
		}

		if issue.IsClosed() {
			actual := hours(issue.ClosedAt.Sub(issue.CreatedAt))
			if actual <= threshold.ResolutionHours {
				r.ResolutionMet++
			} else {
				r.ResolutionBreached++
				r.Violations = append(r.Violations, SLAViolation{
					IssueNumber:     issue.Number,
					Title:           issue.Title,
					ViolationType:   ViolationResolution,
					Priority:        priority,
					ThresholdHours:  threshold.ResolutionHours,
					ActualHours:     actual,
					ExceededByHours: actual - threshold.ResolutionHours,
				})
			}
		} else if issue.State == models.StateOpen && hours(now.Sub(issue.CreatedAt)) > threshold.ResolutionHours {
			r.OpenPastResolution++
		}
	}

	r.ResponseCompliancePercent = compliance(r.ResponseMet, r.ResponseBreached)
	r.ResolutionCompliancePercent = compliance(r.ResolutionMet, r.ResolutionBreached)
	return r
}

func compliance(met, breached int) float64 {
	total := met + breached
	if total == 0 {
		return 100
	}
	return float64(met) / float64(total) * 100
}
