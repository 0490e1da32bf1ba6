package cli

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kamar-Folarin/github-insights/internal/metrics"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/service"
	"github.com/Kamar-Folarin/github-insights/internal/syncer"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(22)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// topN caps the entries printed for a breakdown map
const topN = 5

func header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label), value)
}

func reportHeader[T any](w io.Writer, title string, report *service.Report[T]) {
	header(w, title+" "+report.Repository)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("source: %s, generated %s", report.Source, report.GeneratedAt.Format(time.RFC3339))))
}

func hoursOrDash(h *float64) string {
	if h == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *h)
}

func percentStyle(p float64) lipgloss.Style {
	switch {
	case p >= 90:
		return goodStyle
	case p >= 70:
		return warnStyle
	default:
		return errorStyle
	}
}

// breakdown prints the largest entries of counts, ties broken by key
func breakdown[K ~string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := slices.SortedFunc(maps.Keys(counts), func(a, b K) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	parts := make([]string, 0, topN)
	for _, k := range keys[:min(topN, len(keys))] {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	field(w, title, strings.Join(parts, ", "))
}

func renderRepositories(w io.Writer, repos []models.Repository) {
	header(w, fmt.Sprintf("Tracked repositories (%d)", len(repos)))
	for _, r := range repos {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(r.FullName), dimStyle.Render(fmt.Sprintf("%d open issues, %d stars", r.OpenIssuesCount, r.StarsCount)))
	}
}

func renderSyncResult(w io.Writer, r *syncer.SyncResult) {
	header(w, "Synced "+r.Repository)
	field(w, "Milestones", r.MilestonesSynced)
	field(w, "Issues", r.IssuesSynced)
	field(w, "Pull requests", r.PullsSynced)
	field(w, "Releases", r.ReleasesSynced)
}

func renderBatchResult(w io.Writer, r *syncer.BatchResult) {
	header(w, fmt.Sprintf("Sync run %s", r.RunID))
	field(w, "Repositories", r.Total)
	field(w, "Successful", goodStyle.Render(fmt.Sprint(r.Successful)))
	if r.Failed > 0 {
		field(w, "Failed", errorStyle.Render(fmt.Sprint(r.Failed)))
	}
	for _, o := range r.Results {
		if o.Success {
			fmt.Fprintln(w, goodStyle.Render("✓ "+o.Repository))
		} else {
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %s: %s", o.Repository, o.Error)))
		}
	}
	for _, p := range r.Projects {
		if p.Error != "" {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("projects %s: %s", p.Org, p.Error)))
			continue
		}
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("projects %s: %d projects, %d items", p.Org, p.Projects, p.Items)))
	}
}

func renderSyncStatus(w io.Writer, ref models.RepoRef, s *models.SyncStatus) {
	header(w, "Sync status "+ref.FullName())
	if s == nil {
		fmt.Fprintln(w, warnStyle.Render("never synced"))
		return
	}
	at := func(t *time.Time) string {
		if t == nil {
			return warnStyle.Render("never")
		}
		return t.Format(time.RFC3339)
	}
	field(w, "Milestones", at(s.MilestonesSyncedAt))
	field(w, "Issues", at(s.IssuesSyncedAt))
	field(w, "Pull requests", at(s.PullsSyncedAt))
	field(w, "Releases", at(s.ReleasesSyncedAt))
}

func renderIssueMetrics(a *app, r *service.Report[*metrics.IssueMetrics]) {
	w, m := a.out, r.Data
	reportHeader(w, "Issues", r)
	field(w, "Total", m.Total)
	field(w, "Open", m.Open)
	field(w, "Closed", m.Closed)
	field(w, "Avg time to close", hoursOrDash(m.AvgTimeToCloseHours))
	field(w, "Median time to close", hoursOrDash(m.MedianTimeToCloseHours))
	field(w, fmt.Sprintf("Stale (>%dd)", m.StaleDays), m.StaleCount)
	breakdown(w, "By label", m.ByLabel)
	breakdown(w, "By assignee", m.ByAssignee)
	breakdown(w, "By milestone", m.ByMilestone)
	for _, b := range m.AgeDistribution {
		if b.Count > 0 {
			field(w, "Age "+b.Label, b.Count)
		}
	}
}

func renderPullMetrics(a *app, r *service.Report[*metrics.PullMetrics]) {
	w, m := a.out, r.Data
	reportHeader(w, "Pull requests", r)
	field(w, "Total", m.Total)
	field(w, "Open", m.Open)
	field(w, "Merged", m.Merged)
	field(w, "Closed unmerged", m.ClosedUnmerged)
	field(w, "Draft", m.Draft)
	field(w, "Avg time to merge", hoursOrDash(m.AvgTimeToMergeHours))
	field(w, "Median time to merge", hoursOrDash(m.MedianTimeToMergeHours))
	breakdown(w, "By size", m.BySize)
	breakdown(w, "By author", m.ByAuthor)
	breakdown(w, "By base branch", m.ByBaseBranch)
}

func renderVelocity(a *app, r *service.Report[*metrics.Velocity]) {
	w, v := a.out, r.Data
	reportHeader(w, "Velocity", r)
	for _, p := range v.Points {
		fmt.Fprintf(w, "%s  +%d -%d  open %d\n",
			labelStyle.Render(p.PeriodEnd.Format(time.DateOnly)), p.Opened, p.Closed, p.CumulativeOpen)
	}
	field(w, "Avg opened", fmt.Sprintf("%.1f per %s", v.AvgOpened, v.Period))
	field(w, "Avg closed", fmt.Sprintf("%.1f per %s", v.AvgClosed, v.Period))
	field(w, "Currently open", v.CurrentOpen)
	trend := string(v.Trend)
	switch v.Trend {
	case metrics.TrendIncreasing:
		trend = warnStyle.Render(trend)
	case metrics.TrendDecreasing:
		trend = goodStyle.Render(trend)
	}
	field(w, "Backlog trend", trend)
}

func renderSLA(a *app, r *service.Report[*metrics.SLAReport]) {
	w, s := a.out, r.Data
	reportHeader(w, "SLA", r)
	field(w, "Issues", s.TotalIssues)
	field(w, "Response", percentStyle(s.ResponseCompliancePercent).Render(
		fmt.Sprintf("%.1f%% (%d met, %d breached)", s.ResponseCompliancePercent, s.ResponseMet, s.ResponseBreached)))
	field(w, "Resolution", percentStyle(s.ResolutionCompliancePercent).Render(
		fmt.Sprintf("%.1f%% (%d met, %d breached)", s.ResolutionCompliancePercent, s.ResolutionMet, s.ResolutionBreached)))
	field(w, "Open past resolution", s.OpenPastResolution)
	for _, v := range s.Violations {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("#%d %s: %s exceeded by %.1fh", v.IssueNumber, v.Title, v.ViolationType, v.ExceededByHours)))
	}
}

func renderBurndown(a *app, r *service.Report[*metrics.Burndown]) {
	w, b := a.out, r.Data
	reportHeader(w, fmt.Sprintf("Burndown %q", b.MilestoneTitle), r)
	field(w, "Issues", b.TotalIssues)
	if len(b.Points) > 0 {
		last := b.Points[len(b.Points)-1]
		field(w, "Remaining", last.Remaining)
		field(w, "Completed", last.Completed)
	}
	if b.DueOn != nil {
		field(w, "Due", b.DueOn.Format(time.DateOnly))
	}
	if b.ProjectedCompletion != nil {
		field(w, "Projected completion", b.ProjectedCompletion.Format(time.DateOnly))
	} else {
		field(w, "Projected completion", dimStyle.Render("no recent progress"))
	}
	if b.OnTrack != nil {
		if *b.OnTrack {
			field(w, "Status", goodStyle.Render("on track"))
		} else {
			field(w, "Status", errorStyle.Render("behind"))
		}
	}
}

func renderBurnup(a *app, r *service.Report[*metrics.Burnup]) {
	w, b := a.out, r.Data
	reportHeader(w, fmt.Sprintf("Burnup %q", b.MilestoneTitle), r)
	for _, p := range b.Points {
		fmt.Fprintf(w, "%s  %d/%d\n", labelStyle.Render(p.Date.Format(time.DateOnly)), p.Completed, p.Scope)
	}
}

func renderReleaseNotes(a *app, r *service.Report[*metrics.ReleaseNotes]) {
	w, n := a.out, r.Data
	reportHeader(w, "Release "+n.Version, r)
	field(w, "Issues", n.IssueCount)
	field(w, "Pull requests", n.PullRequestCount)
	for _, s := range n.Sections {
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(s.Title))
		for _, item := range s.Items {
			fmt.Fprintf(w, "  #%d %s %s\n", item.Number, item.Title, dimStyle.Render("@"+item.Author))
		}
	}
	if len(n.Contributors) > 0 {
		field(w, "Contributors", strings.Join(n.Contributors, ", "))
	}
}
