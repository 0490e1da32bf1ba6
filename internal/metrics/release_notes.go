package metrics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Section titles in emission order. Custom titles are emitted after
// Deprecations and before Other.
const (
	SectionBreaking      = "Breaking Changes"
	SectionSecurity      = "Security"
	SectionFeatures      = "New Features"
	SectionEnhancements  = "Enhancements"
	SectionBugFixes      = "Bug Fixes"
	SectionPerformance   = "Performance"
	SectionDocumentation = "Documentation"
	SectionDeprecations  = "Deprecations"
	SectionOther         = "Other"
)

var sectionOrder = []string{
	SectionBreaking,
	SectionSecurity,
	SectionFeatures,
	SectionEnhancements,
	SectionBugFixes,
	SectionPerformance,
	SectionDocumentation,
	SectionDeprecations,
}

// DefaultSectionMapping maps label substrings to section titles
func DefaultSectionMapping() map[string]string {
	return map[string]string{
		"breaking":      SectionBreaking,
		"security":      SectionSecurity,
		"feature":       SectionFeatures,
		"enhancement":   SectionEnhancements,
		"bug":           SectionBugFixes,
		"performance":   SectionPerformance,
		"docs":          SectionDocumentation,
		"documentation": SectionDocumentation,
		"deprecation":   SectionDeprecations,
	}
}

type ReleaseNoteItem struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Labels []string `json:"labels"`
}

type ReleaseSection struct {
	Title string            `json:"title"`
	Items []ReleaseNoteItem `json:"items"`
}

type ReleaseNotes struct {
	Version          string           `json:"version"`
	GeneratedAt      time.Time        `json:"generated_at"`
	Sections         []ReleaseSection `json:"sections"`
	IssueCount       int              `json:"issue_count"`
	PullRequestCount int              `json:"pull_request_count"`
	Contributors     []string         `json:"contributors"`
}

type sectionRule struct {
	key   string
	title string
}

// sectionRank orders titles: fixed sections first, then custom titles alphabetically, then Other
func sectionRank(title string, custom []string) int {
	if i := slices.Index(sectionOrder, title); i >= 0 {
		return i
	}
	if i := slices.Index(custom, title); i >= 0 {
		return len(sectionOrder) + i
	}
	return len(sectionOrder) + len(custom)
}

// buildRules merges mapping over the defaults and orders the rules by section
// priority, then longer keys first
func buildRules(mapping map[string]string) ([]sectionRule, []string) {
	merged := DefaultSectionMapping()
	for key, title := range mapping {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || title == "" {
			continue
		}
		merged[key] = title
	}

	var custom []string
	rules := make([]sectionRule, 0, len(merged))
	for key, title := range merged {
		rules = append(rules, sectionRule{key: key, title: title})
		if !slices.Contains(sectionOrder, title) && title != SectionOther && !slices.Contains(custom, title) {
			custom = append(custom, title)
		}
	}
	slices.Sort(custom)

	slices.SortFunc(rules, func(a, b sectionRule) int {
		if ra, rb := sectionRank(a.title, custom), sectionRank(b.title, custom); ra != rb {
			return ra - rb
		}
		if len(a.key) != len(b.key) {
			return len(b.key) - len(a.key)
		}
		return strings.Compare(a.key, b.key)
	})
	return rules, custom
}

func sectionFor(issue *models.Issue, rules []sectionRule) string {
	for _, rule := range rules {
		for _, l := range issue.Labels {
			if strings.Contains(strings.ToLower(l.Name), rule.key) {
				return rule.title
			}
		}
	}
	return SectionOther
}

// GenerateReleaseNotes groups closed issues into sections by label and
// collects contributors from issue and pull request authors. Pull requests are
// counted, not categorized.
func GenerateReleaseNotes(version string, issues []models.Issue, pulls []models.PullRequest, mapping map[string]string, now time.Time) *ReleaseNotes {
	rules, custom := buildRules(mapping)

	grouped := make(map[string][]ReleaseNoteItem)
	contributors := make(map[string]bool)
	for i := range issues {
		issue := &issues[i]
		title := sectionFor(issue, rules)

		labels := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.Name)
		}
		grouped[title] = append(grouped[title], ReleaseNoteItem{
			Number: issue.Number,
			Title:  issue.Title,
			Author: issue.Author.Login,
			Labels: labels,
		})
		if issue.Author.Login != "" {
			contributors[issue.Author.Login] = true
		}
	}
	for i := range pulls {
		if login := pulls[i].Author.Login; login != "" {
			contributors[login] = true
		}
	}

	notes := &ReleaseNotes{
		Version:          version,
		GeneratedAt:      now,
		Sections:         []ReleaseSection{},
		IssueCount:       len(issues),
		PullRequestCount: len(pulls),
		Contributors:     make([]string, 0, len(contributors)),
	}

	titles := append(append(slices.Clone(sectionOrder), custom...), SectionOther)
	for _, title := range titles {
		items := grouped[title]
		if len(items) == 0 {
			continue
		}
		slices.SortFunc(items, func(a, b ReleaseNoteItem) int { return a.Number - b.Number })
		notes.Sections = append(notes.Sections, ReleaseSection{Title: title, Items: items})
	}

	for login := range contributors {
		notes.Contributors = append(notes.Contributors, login)
	}
	slices.Sort(notes.Contributors)
	return notes
}

// Markdown renders the notes as a changelog entry
func (n *ReleaseNotes) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Release %s\n\n", n.Version)
	fmt.Fprintf(&b, "_%s_\n", n.GeneratedAt.UTC().Format("2006-01-02"))

	for _, section := range n.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", section.Title)
		for _, item := range section.Items {
			fmt.Fprintf(&b, "- %s (#%d)", item.Title, item.Number)
			if item.Author != "" {
				fmt.Fprintf(&b, " @%s", item.Author)
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\n%d issues closed, %d pull requests merged.\n", n.IssueCount, n.PullRequestCount)
	if len(n.Contributors) > 0 {
		b.WriteString("\n## Contributors\n\n")
		for _, c := range n.Contributors {
			fmt.Fprintf(&b, "- @%s\n", c)
		}
	}
	return b.String()
}
