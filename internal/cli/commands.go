package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/metrics"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/service"
	"github.com/Kamar-Folarin/github-insights/internal/utils"
)

func (a *app) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <owner/name>",
		Short: "Start tracking a repository and sync it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := utils.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				result, err := svc.TrackRepository(ctx, ref)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.printJSON(result)
				}
				renderSyncResult(a.out, result)
				return nil
			})
		},
	}
}

func (a *app) untrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack <owner/name>",
		Short: "Stop tracking a repository and delete its cached data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := utils.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.RemoveRepository(ctx, ref); err != nil {
					return err
				}
				fmt.Fprintln(a.out, goodStyle.Render("Removed "+ref.FullName()))
				return nil
			})
		},
	}
}

func (a *app) reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List tracked repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				repos, err := svc.ListRepositories(ctx)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.printJSON(repos)
				}
				renderRepositories(a.out, repos)
				return nil
			})
		},
	}
}

func (a *app) syncCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [owner/name]",
		Short: "Sync one tracked repository, or all of them with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return apperrors.NewInvalidFormatError("pass either a repository or --all", nil)
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if all {
					result, err := svc.SyncAll(ctx)
					if err != nil {
						return err
					}
					if a.opts.JSON {
						return a.printJSON(result)
					}
					renderBatchResult(a.out, result)
					return nil
				}

				ref, err := utils.ParseRepoRef(args[0])
				if err != nil {
					return err
				}
				result, err := svc.SyncRepository(ctx, ref)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.printJSON(result)
				}
				renderSyncResult(a.out, result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Sync every tracked repository")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <owner/name>",
		Short: "Show when each entity type was last synced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := utils.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				status, err := svc.GetSyncStatus(ctx, ref)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.printJSON(status)
				}
				renderSyncStatus(a.out, ref, status)
				return nil
			})
		},
	}
}

// reportCmd builds a command computing one report for a repository. extra
// receives the arguments after the repository.
func reportCmd[T any](
	a *app,
	use, short string,
	extraArgs int,
	run func(ctx context.Context, svc *service.Service, ref models.RepoRef, args []string, opts service.ReportOptions) (*service.Report[T], error),
	render func(a *app, report *service.Report[T]),
) (*cobra.Command, *string) {
	var since string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1 + extraArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := utils.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			opts, err := a.reportOptions(since)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				report, err := run(ctx, svc, ref, args[1:], opts)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.printJSON(report)
				}
				render(a, report)
				return nil
			})
		},
	}
	return cmd, &since
}

func (a *app) reportOptions(since string) (service.ReportOptions, error) {
	src, err := service.ParseSource(a.opts.Source)
	if err != nil {
		return service.ReportOptions{}, err
	}
	opts := service.ReportOptions{Source: src}
	if since != "" {
		t, err := parseDate(since)
		if err != nil {
			return service.ReportOptions{}, err
		}
		opts.Since = &t
	}
	return opts, nil
}

// parseDate accepts RFC3339 or a plain YYYY-MM-DD date in UTC
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid date %q (use YYYY-MM-DD or RFC3339)", s), err)
	}
	return t, nil
}

func parseMilestone(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid milestone number %q", s), err)
	}
	return n, nil
}

func (a *app) issuesCmd() *cobra.Command {
	cmd, since := reportCmd(a, "issues <owner/name>", "Issue counts, resolution times and age distribution", 0,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, _ []string, opts service.ReportOptions) (*service.Report[*metrics.IssueMetrics], error) {
			return svc.IssueMetrics(ctx, ref, opts)
		}, renderIssueMetrics)
	cmd.Flags().StringVar(since, "since", "", "Only issues updated since this date")
	return cmd
}

func (a *app) pullsCmd() *cobra.Command {
	cmd, since := reportCmd(a, "pulls <owner/name>", "Pull request counts, merge times and sizes", 0,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, _ []string, opts service.ReportOptions) (*service.Report[*metrics.PullMetrics], error) {
			return svc.PullMetrics(ctx, ref, opts)
		}, renderPullMetrics)
	cmd.Flags().StringVar(since, "since", "", "Only pull requests updated since this date")
	return cmd
}

func (a *app) velocityCmd() *cobra.Command {
	var period string
	var windows int
	cmd, _ := reportCmd(a, "velocity <owner/name>", "Issues opened and closed per period", 0,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, _ []string, opts service.ReportOptions) (*service.Report[*metrics.Velocity], error) {
			p, err := metrics.ParsePeriod(period)
			if err != nil {
				return nil, err
			}
			return svc.Velocity(ctx, ref, p, windows, opts)
		}, renderVelocity)
	cmd.Flags().StringVar(&period, "period", string(metrics.PeriodWeek), "Window length: day, week or month")
	cmd.Flags().IntVar(&windows, "windows", 4, "Number of windows")
	return cmd
}

func (a *app) slaCmd() *cobra.Command {
	cmd, since := reportCmd(a, "sla <owner/name>", "Response and resolution SLA compliance", 0,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, _ []string, opts service.ReportOptions) (*service.Report[*metrics.SLAReport], error) {
			return svc.SLA(ctx, ref, opts)
		}, renderSLA)
	cmd.Flags().StringVar(since, "since", "", "Only issues updated since this date")
	return cmd
}

func (a *app) burndownCmd() *cobra.Command {
	cmd, _ := reportCmd(a, "burndown <owner/name> <milestone>", "Remaining issues per day of a milestone", 1,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, args []string, opts service.ReportOptions) (*service.Report[*metrics.Burndown], error) {
			number, err := parseMilestone(args[0])
			if err != nil {
				return nil, err
			}
			return svc.Burndown(ctx, ref, number, opts)
		}, renderBurndown)
	return cmd
}

func (a *app) burnupCmd() *cobra.Command {
	cmd, _ := reportCmd(a, "burnup <owner/name> <milestone>", "Scope and completed issues per day of a milestone", 1,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, args []string, opts service.ReportOptions) (*service.Report[*metrics.Burnup], error) {
			number, err := parseMilestone(args[0])
			if err != nil {
				return nil, err
			}
			return svc.Burnup(ctx, ref, number, opts)
		}, renderBurnup)
	return cmd
}

func (a *app) releaseNotesCmd() *cobra.Command {
	var version string
	var markdown bool
	cmd, since := reportCmd(a, "release-notes <owner/name>", "Draft release notes from closed issues", 0,
		func(ctx context.Context, svc *service.Service, ref models.RepoRef, _ []string, opts service.ReportOptions) (*service.Report[*metrics.ReleaseNotes], error) {
			return svc.ReleaseNotes(ctx, ref, version, opts)
		}, func(a *app, report *service.Report[*metrics.ReleaseNotes]) {
			if markdown {
				fmt.Fprint(a.out, report.Data.Markdown())
				return
			}
			renderReleaseNotes(a, report)
		})
	cmd.Flags().StringVar(&version, "version", "", "Version being released")
	cmd.Flags().StringVar(since, "since", "", "Start date, defaults to the last stable release")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the notes as Markdown")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
