package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time {
	return testNow.Add(-d)
}

func agoPtr(d time.Duration) *time.Time {
	t := ago(d)
	return &t
}

func openIssue(number int, age time.Duration) models.Issue {
	return models.Issue{
		ID:        int64(number),
		Number:    number,
		Title:     "open issue",
		State:     models.StateOpen,
		CreatedAt: ago(age),
		UpdatedAt: ago(age),
	}
}

func closedIssue(number int, created, closed time.Duration) models.Issue {
	return models.Issue{
		ID:        int64(number),
		Number:    number,
		Title:     "closed issue",
		State:     models.StateClosed,
		CreatedAt: ago(created),
		UpdatedAt: ago(closed),
		ClosedAt:  agoPtr(closed),
	}
}

func TestMedian(t *testing.T) {
	v, ok := Median([]float64{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	v, ok = Median([]float64{4, 1, 3, 2})
	require.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = Median(nil)
	assert.False(t, ok)

	input := []float64{3, 1, 2}
	Median(input)
	assert.Equal(t, []float64{3, 1, 2}, input, "input must not be reordered")
}

func TestAverage(t *testing.T) {
	v, ok := Average([]float64{1, 2, 6})
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = Average([]float64{})
	assert.False(t, ok)
}

func TestCalculateIssueMetrics_Counts(t *testing.T) {
	bug := models.Label{ID: 1, Name: "bug"}
	ui := models.Label{ID: 2, Name: "ui"}
	alice := models.User{ID: 1, Login: "alice"}
	bob := models.User{ID: 2, Login: "bob"}
	v1 := &models.Milestone{ID: 10, Title: "v1"}

	issues := []models.Issue{
		openIssue(1, 2*day),
		openIssue(2, 3*day),
		closedIssue(3, 10*day, 8*day),
		closedIssue(4, 4*day, 3*day),
	}
	issues[0].Labels = []models.Label{bug, ui}
	issues[0].Assignees = []models.User{alice, bob}
	issues[1].Labels = []models.Label{bug}
	issues[1].Milestone = v1
	issues[2].Assignees = []models.User{alice}
	issues[2].Milestone = v1

	m := CalculateIssueMetrics(issues, testNow, IssueMetricsOptions{})

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Open)
	assert.Equal(t, 2, m.Closed)
	assert.Equal(t, m.Total, m.Open+m.Closed)

	assert.Equal(t, map[string]int{"bug": 2, "ui": 1}, m.ByLabel)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1, UnassignedBucket: 2}, m.ByAssignee)
	assert.Equal(t, map[string]int{"v1": 2, NoMilestone: 2}, m.ByMilestone)

	require.NotNil(t, m.AvgTimeToCloseHours)
	require.NotNil(t, m.MedianTimeToCloseHours)
	assert.InDelta(t, 36.0, *m.AvgTimeToCloseHours, 0.0001)
	assert.InDelta(t, 36.0, *m.MedianTimeToCloseHours, 0.0001)
	assert.Equal(t, DefaultStaleDays, m.StaleDays)
}

func TestCalculateIssueMetrics_Empty(t *testing.T) {
	m := CalculateIssueMetrics(nil, testNow, IssueMetricsOptions{})
	assert.Equal(t, 0, m.Total)
	assert.Nil(t, m.AvgTimeToCloseHours)
	assert.Nil(t, m.MedianTimeToCloseHours)
	assert.Len(t, m.AgeDistribution, 6)
}

func TestCalculateIssueMetrics_AgeBoundaries(t *testing.T) {
	issues := []models.Issue{
		openIssue(1, 12*time.Hour),
		openIssue(2, 1*day),
		openIssue(3, 7*day),
		openIssue(4, 28*day),
		openIssue(5, 90*day),
		openIssue(6, 180*day),
		openIssue(7, 400*day),
		closedIssue(8, 500*day, 1*day),
	}

	m := CalculateIssueMetrics(issues, testNow, IssueMetricsOptions{})

	counts := make([]int, 0, len(m.AgeDistribution))
	total := 0
	for _, b := range m.AgeDistribution {
		counts = append(counts, b.Count)
		total += b.Count
	}
	assert.Equal(t, []int{1, 1, 1, 1, 1, 2}, counts)
	assert.Equal(t, m.Open, total)

	assert.Equal(t, 0, m.AgeDistribution[0].MinDays)
	require.NotNil(t, m.AgeDistribution[0].MaxDays)
	assert.Equal(t, 1, *m.AgeDistribution[0].MaxDays)
	assert.Nil(t, m.AgeDistribution[5].MaxDays)
}

func TestCalculateIssueMetrics_Stale(t *testing.T) {
	fresh := openIssue(1, 90*day)
	fresh.UpdatedAt = ago(2 * day)
	stale := openIssue(2, 90*day)
	closed := closedIssue(3, 90*day, 60*day)

	m := CalculateIssueMetrics([]models.Issue{fresh, stale, closed}, testNow, IssueMetricsOptions{})
	assert.Equal(t, 1, m.StaleCount)

	m = CalculateIssueMetrics([]models.Issue{fresh, stale, closed}, testNow, IssueMetricsOptions{StaleDays: 1})
	assert.Equal(t, 2, m.StaleCount)
	assert.Equal(t, 1, m.StaleDays)
}

func TestSizeOf(t *testing.T) {
	tests := []struct {
		lines int
		want  SizeCategory
	}{
		{0, SizeXSmall},
		{10, SizeXSmall},
		{11, SizeSmall},
		{50, SizeSmall},
		{51, SizeMedium},
		{200, SizeMedium},
		{201, SizeLarge},
		{500, SizeLarge},
		{501, SizeXLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeOf(tt.lines), "lines=%d", tt.lines)
	}
}

func TestCalculatePullMetrics(t *testing.T) {
	prs := []models.PullRequest{
		{
			Number:    1,
			State:     models.StateClosed,
			Merged:    true,
			MergedAt:  agoPtr(10 * time.Hour),
			CreatedAt: ago(20 * time.Hour),
			Additions: 5,
			Deletions: 3,
			Author:    models.User{Login: "alice"},
			BaseRef:   "main",
		},
		{
			Number:    2,
			State:     models.StateClosed,
			Merged:    true,
			MergedAt:  agoPtr(0),
			CreatedAt: ago(30 * time.Hour),
			Additions: 100,
			Deletions: 50,
			Author:    models.User{Login: "bob"},
			BaseRef:   "main",
		},
		{
			Number:    3,
			State:     models.StateClosed,
			CreatedAt: ago(5 * time.Hour),
			Additions: 600,
			Author:    models.User{Login: "alice"},
			BaseRef:   "release",
		},
		{
			Number:    4,
			State:     models.StateOpen,
			Draft:     true,
			CreatedAt: ago(time.Hour),
			Additions: 20,
			Author:    models.User{Login: "carol"},
			BaseRef:   "main",
		},
	}

	m := CalculatePullMetrics(prs)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Merged)
	assert.Equal(t, 1, m.ClosedUnmerged)
	assert.Equal(t, 1, m.Open)
	assert.Equal(t, 1, m.Draft)
	require.NotNil(t, m.AvgTimeToMergeHours)
	assert.InDelta(t, 20.0, *m.AvgTimeToMergeHours, 0.0001)
	assert.InDelta(t, 20.0, *m.MedianTimeToMergeHours, 0.0001)
	assert.Equal(t, map[SizeCategory]int{SizeXSmall: 1, SizeMedium: 1, SizeXLarge: 1, SizeSmall: 1}, m.BySize)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1, "carol": 1}, m.ByAuthor)
	assert.Equal(t, map[string]int{"main": 3, "release": 1}, m.ByBaseBranch)
}

func TestCalculatePullMetrics_NoMerges(t *testing.T) {
	m := CalculatePullMetrics([]models.PullRequest{{State: models.StateOpen}})
	assert.Nil(t, m.AvgTimeToMergeHours)
	assert.Nil(t, m.MedianTimeToMergeHours)
}

func TestCalculateVelocity_Weekly(t *testing.T) {
	issues := []models.Issue{
		openIssue(1, 5*day),
		closedIssue(2, 10*day, 3*day),
		closedIssue(3, 15*day, 12*day),
	}

	v := CalculateVelocity(issues, testNow, PeriodWeek, 4)

	require.Len(t, v.Points, 4)
	for i := 1; i < len(v.Points); i++ {
		assert.True(t, v.Points[i].PeriodStart.After(v.Points[i-1].PeriodStart))
		assert.Equal(t, v.Points[i-1].PeriodEnd, v.Points[i].PeriodStart)
	}
	assert.Equal(t, testNow, v.Points[3].PeriodEnd)

	var nets, cumulative []int
	for _, p := range v.Points {
		nets = append(nets, p.Net)
		cumulative = append(cumulative, p.CumulativeOpen)
	}
	assert.Equal(t, []int{0, 1, 0, 0}, nets)
	assert.Equal(t, []int{0, 1, 1, 1}, cumulative)

	assert.Equal(t, 1, v.CurrentOpen)
	assert.Equal(t, 3, v.TotalOpened)
	assert.Equal(t, 2, v.TotalClosed)
	assert.InDelta(t, 0.75, v.AvgOpened, 0.0001)
	assert.InDelta(t, 0.5, v.AvgClosed, 0.0001)
	assert.Equal(t, TrendStable, v.Trend)
}

func TestCalculateVelocity_Trend(t *testing.T) {
	var issues []models.Issue
	for i := 0; i < 8; i++ {
		issues = append(issues, openIssue(i+1, time.Duration(i)*time.Hour+time.Hour))
	}

	v := CalculateVelocity(issues, testNow, PeriodDay, 4)
	assert.Equal(t, TrendIncreasing, v.Trend)

	var closing []models.Issue
	for i := 0; i < 8; i++ {
		closing = append(closing, closedIssue(i+1, 100*day, time.Duration(i)*time.Hour+time.Hour))
	}
	v = CalculateVelocity(closing, testNow, PeriodDay, 4)
	assert.Equal(t, TrendDecreasing, v.Trend)
}

func TestCalculateVelocity_NoWindows(t *testing.T) {
	v := CalculateVelocity([]models.Issue{openIssue(1, day)}, testNow, PeriodWeek, 0)
	assert.Empty(t, v.Points)
	assert.Equal(t, TrendStable, v.Trend)
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"day": PeriodDay, "Weekly": PeriodWeek, "": PeriodWeek, "months": PeriodMonth} {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePeriod("fortnight")
	assert.True(t, apperrors.IsInvalidFormat(err))
}

func TestCalculateSLA_ResolutionViolation(t *testing.T) {
	issues := []models.Issue{closedIssue(1, 200*time.Hour, 4*time.Hour)}

	r := CalculateSLA(issues, nil, DefaultSLAConfig(), testNow)

	require.Len(t, r.Violations, 1)
	v := r.Violations[0]
	assert.Equal(t, ViolationResolution, v.ViolationType)
	assert.InDelta(t, 196.0, v.ActualHours, 0.0001)
	assert.InDelta(t, 28.0, v.ExceededByHours, 0.0001)
	assert.Equal(t, 0, r.ResolutionMet)
	assert.Equal(t, 1, r.ResolutionBreached)
	assert.Equal(t, 0.0, r.ResolutionCompliancePercent)
	assert.Equal(t, 100.0, r.ResponseCompliancePercent, "no responses recorded")
}

func TestCalculateSLA_ResponseAndPriorities(t *testing.T) {
	urgent := closedIssue(1, 10*time.Hour, 2*time.Hour)
	urgent.Labels = []models.Label{{Name: "P0"}}
	normal := closedIssue(2, 30*time.Hour, time.Hour)
	old := openIssue(3, 300*time.Hour)

	timelines := map[int][]models.TimelineEvent{
		1: {
			{Event: models.EventLabeled, CreatedAt: ago(9 * time.Hour)},
			{Event: models.EventCommented, CreatedAt: ago(6 * time.Hour)},
			{Event: models.EventCommented, CreatedAt: ago(7 * time.Hour)},
		},
		2: {{Event: models.EventCommented, CreatedAt: ago(20 * time.Hour)}},
	}
	cfg := DefaultSLAConfig()
	cfg.Priorities = map[string]SLAThreshold{"p0": {ResponseHours: 1, ResolutionHours: 4}}

	r := CalculateSLA([]models.Issue{urgent, normal, old}, timelines, cfg, testNow)

	assert.Equal(t, 3, r.TotalIssues)
	assert.Equal(t, 1, r.ResponseMet)
	assert.Equal(t, 1, r.ResponseBreached)
	assert.Equal(t, 1, r.ResolutionMet)
	assert.Equal(t, 1, r.ResolutionBreached)
	assert.Equal(t, 50.0, r.ResponseCompliancePercent)
	assert.Equal(t, 1, r.OpenPastResolution)

	require.Len(t, r.Violations, 2)
	for _, v := range r.Violations {
		assert.Equal(t, 1, v.IssueNumber)
		assert.Equal(t, "p0", v.Priority)
	}
	assert.Equal(t, ViolationResponse, r.Violations[0].ViolationType)
	assert.InDelta(t, 2.0, r.Violations[0].ExceededByHours, 0.0001)
	assert.Equal(t, ViolationResolution, r.Violations[1].ViolationType)
	assert.InDelta(t, 4.0, r.Violations[1].ExceededByHours, 0.0001)
}

func TestCalculateSLA_Empty(t *testing.T) {
	r := CalculateSLA(nil, nil, SLAConfig{}, testNow)
	assert.Equal(t, 100.0, r.ResponseCompliancePercent)
	assert.Equal(t, 100.0, r.ResolutionCompliancePercent)
	assert.Empty(t, r.Violations)
}

func testMilestone(created time.Duration, due *time.Time) *models.Milestone {
	return &models.Milestone{ID: 7, Number: 3, Title: "v2.0", CreatedAt: ago(created), DueOn: due}
}

func milestoneScoped(m *models.Milestone, issues ...models.Issue) []models.Issue {
	for i := range issues {
		issues[i].Milestone = m
	}
	return issues
}

func TestCalculateBurndown(t *testing.T) {
	due := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	m := testMilestone(10*day, &due)
	issues := milestoneScoped(m,
		closedIssue(1, 10*day, 7*day),
		closedIssue(2, 10*day, 3*day),
		openIssue(3, 10*day),
		openIssue(4, 10*day),
	)
	issues = append(issues, openIssue(5, day))

	b := CalculateBurndown(issues, m, testNow)

	assert.Equal(t, 4, b.TotalIssues)
	require.Len(t, b.Points, 11)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), b.Points[0].Date)
	assert.Equal(t, 4, b.Points[0].Remaining)
	assert.Equal(t, 2, b.Points[len(b.Points)-1].Remaining)
	assert.Equal(t, 3, b.Points[3].Remaining)

	require.NotNil(t, b.Points[0].Ideal)
	assert.InDelta(t, 4.0, *b.Points[0].Ideal, 0.0001)
	assert.InDelta(t, 4.0/3.0, *b.Points[10].Ideal, 0.0001)

	require.NotNil(t, b.ProjectedCompletion)
	assert.True(t, b.ProjectedCompletion.After(due))
	require.NotNil(t, b.OnTrack)
	assert.False(t, *b.OnTrack)
}

func TestCalculateBurndown_NoDueDate(t *testing.T) {
	m := testMilestone(2*day, nil)
	b := CalculateBurndown(milestoneScoped(m, openIssue(1, day)), m, testNow)

	require.Len(t, b.Points, 3)
	for _, p := range b.Points {
		assert.Nil(t, p.Ideal)
	}
	assert.Nil(t, b.ProjectedCompletion)
	assert.Nil(t, b.OnTrack)
}

func TestProjectCompletion(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points := []BurndownPoint{
		{Date: start, Completed: 0, Remaining: 5},
		{Date: start.AddDate(0, 0, 2), Completed: 1, Remaining: 4},
		{Date: start.AddDate(0, 0, 4), Completed: 2, Remaining: 3},
	}

	projected := projectCompletion(points)
	require.NotNil(t, projected)
	assert.Equal(t, start.AddDate(0, 0, 10), *projected)

	flat := []BurndownPoint{{Date: start, Remaining: 2}, {Date: start.AddDate(0, 0, 1), Remaining: 2}}
	assert.Nil(t, projectCompletion(flat))
	assert.Nil(t, projectCompletion(points[:1]))
}

func TestCalculateBurnup(t *testing.T) {
	m := testMilestone(3*day, nil)
	issues := milestoneScoped(m,
		openIssue(1, 3*day),
		closedIssue(2, 2*day, day),
		openIssue(3, time.Hour),
	)

	b := CalculateBurnup(issues, m, testNow)

	require.Len(t, b.Points, 4)
	var scope, completed []int
	for _, p := range b.Points {
		scope = append(scope, p.Scope)
		completed = append(completed, p.Completed)
	}
	assert.Equal(t, []int{1, 2, 2, 3}, scope)
	assert.Equal(t, []int{0, 0, 1, 1}, completed)
}

func labeled(number int, author string, labels ...string) models.Issue {
	issue := closedIssue(number, 10*day, day)
	issue.Author = models.User{Login: author}
	for i, name := range labels {
		issue.Labels = append(issue.Labels, models.Label{ID: int64(i + 1), Name: name})
	}
	return issue
}

func TestGenerateReleaseNotes(t *testing.T) {
	issues := []models.Issue{
		labeled(4, "bob", "critical-bug"),
		labeled(2, "alice", "question"),
		labeled(3, "alice", "docs", "Feature-Request"),
		labeled(1, "", "ux"),
	}
	pulls := []models.PullRequest{
		{Number: 10, Author: models.User{Login: "carol"}},
		{Number: 11, Author: models.User{Login: "bob"}},
	}

	notes := GenerateReleaseNotes("v1.2.0", issues, pulls, map[string]string{"UX": "User Experience"}, testNow)

	var titles []string
	for _, s := range notes.Sections {
		titles = append(titles, s.Title)
		assert.NotEmpty(t, s.Items)
	}
	assert.Equal(t, []string{SectionFeatures, SectionBugFixes, "User Experience", SectionOther}, titles)

	assert.Equal(t, 4, notes.Sections[1].Items[0].Number)
	assert.Equal(t, 2, notes.Sections[3].Items[0].Number)
	assert.Equal(t, 3, notes.Sections[0].Items[0].Number)

	assert.Equal(t, []string{"alice", "bob", "carol"}, notes.Contributors)
	assert.Equal(t, 4, notes.IssueCount)
	assert.Equal(t, 2, notes.PullRequestCount)
	assert.Equal(t, "v1.2.0", notes.Version)
}

func TestGenerateReleaseNotes_Empty(t *testing.T) {
	notes := GenerateReleaseNotes("v0.1.0", nil, nil, nil, testNow)
	assert.Empty(t, notes.Sections)
	assert.Empty(t, notes.Contributors)
	assert.Contains(t, notes.Markdown(), "# Release v0.1.0")
}

func TestReleaseNotes_Markdown(t *testing.T) {
	notes := GenerateReleaseNotes("v1.0.0", []models.Issue{labeled(7, "alice", "bug")}, nil, nil, testNow)

	md := notes.Markdown()
	assert.Contains(t, md, "## Bug Fixes")
	assert.Contains(t, md, "- closed issue (#7) @alice")
	assert.Contains(t, md, "- @alice")
	assert.NotContains(t, md, "## Other")
}
