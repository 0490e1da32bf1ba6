// Package cli implements the insights command line tool. Reports are read from
// a local SQLite cache by default and fall back to the GitHub API when stale.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-insights/internal/config"
	"github.com/Kamar-Folarin/github-insights/internal/db"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/service"
	"github.com/Kamar-Folarin/github-insights/internal/syncer"
)

var Version = "dev"

// ServiceFactory builds the service a command runs against. The returned
// function releases its resources.
type ServiceFactory func(ctx context.Context, opts *GlobalOptions) (*service.Service, func(), error)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	JSON     bool
	Source   string
	DBPath   string
	LogLevel string
}

type app struct {
	opts       GlobalOptions
	out        io.Writer
	newService ServiceFactory
}

// NewRootCmd builds the command tree. A nil factory uses the configured store
// and GitHub credentials.
func NewRootCmd(out io.Writer, factory ServiceFactory) *cobra.Command {
	if factory == nil {
		factory = defaultServiceFactory
	}
	a := &app{out: out, newService: factory}

	root := &cobra.Command{
		Use:           "insights",
		Version:       Version,
		Short:         "Project health metrics for GitHub repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.BoolVar(&a.opts.JSON, "json", false, "Print the raw report as JSON")
	flags.StringVar(&a.opts.Source, "source", string(service.SourceAuto), "Where reports read data from: auto, cache or live")
	flags.StringVar(&a.opts.DBPath, "db", defaultDBPath(), "Path of the local SQLite cache")
	flags.StringVar(&a.opts.LogLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		a.trackCmd(),
		a.untrackCmd(),
		a.reposCmd(),
		a.syncCmd(),
		a.statusCmd(),
		a.issuesCmd(),
		a.pullsCmd(),
		a.velocityCmd(),
		a.slaCmd(),
		a.burndownCmd(),
		a.burnupCmd(),
		a.releaseNotesCmd(),
	)
	return root
}

// Execute runs the CLI against the process arguments
func Execute() error {
	root := NewRootCmd(os.Stdout, nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		return err
	}
	return nil
}

func defaultDBPath() string {
	if v := os.Getenv("INSIGHTS_DB"); v != "" {
		return v
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "insights.db"
	}
	return filepath.Join(dir, "github-insights", "insights.db")
}

func defaultServiceFactory(ctx context.Context, opts *GlobalOptions) (*service.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(opts.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// the local cache is used unless a database is configured explicitly
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		cfg.DBDriver, cfg.DBConnectionString = "sqlite", opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store, err := db.Connect(ctx, cfg.DBDriver, cfg.DBConnectionString, logger, db.ConnectConfig{Attempts: 1})
	if err != nil {
		return nil, nil, err
	}

	factory := github.NewTokenFactory(cfg.GitHub, logger)
	engine := syncer.NewEngine(store, logger)
	svc := service.New(store, engine, factory, factory.Limiter(""), logger, service.OptionsFromConfig(cfg))
	return svc, func() { store.Close() }, nil
}

// withService runs fn against a freshly built service
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := a.newService(ctx, &a.opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
