// Package cli defines the chatstats command tree.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/edgard/chatstats/internal/app"
	"github.com/edgard/chatstats/internal/config"
	"github.com/edgard/chatstats/internal/database"
	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/logger"
)

// state is built once per invocation by the root command before any
// subcommand runs.
type state struct {
	configPath string

	cfg    *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	store  database.Store
	app    *app.App
}

// Execute runs the command line args against the chatstats command tree
// and releases the archive once the command is done.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s := &state{}
	defer func() { database.CloseDB(s.db) }()

	root := newRootCommand(s)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatstats",
		Short: "Count marker messages in chat exports and chart them by hour and weekday",
		Long: `chatstats reads exported chat logs, keeps the messages containing a marker
(an emoji by default), writes them as a Date,Hour,Name CSV and draws per-sender
bar charts of the messages by hour of day and by day of week.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.configPath, "config", "", "config file (default ./"+config.DefaultConfigName+".yaml if present)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	pf.String("log-format", config.DefaultLogFormat, "log format: text or json")
	pf.StringP("output-dir", "d", config.DefaultOutputDir, "directory for the chart images")
	pf.String("db", config.DefaultDBPath, "SQLite archive of parsed exports (disabled when empty)")
	pf.Int("workers", config.DefaultRenderWorkers, "charts rendered in parallel")

	root.AddCommand(
		newParseCommand(s),
		newGraphCommand(s),
		newRunCommand(s),
		newDBCommand(s),
	)
	return root
}

// setup loads the configuration with the flags of cmd and opens the archive
// when one is configured. needStore makes a missing archive an error.
func (s *state) setup(cmd *cobra.Command, needStore bool) error {
	cfg, err := config.Load(s.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = logger.NewLogger(cfg.Log.Level, cfg.Log.Format == "json", cmd.ErrOrStderr())
	s.logger.Debug("Configuration loaded", "output_dir", cfg.Output.Dir, "workers", cfg.Render.Workers)

	if cfg.Database.Path != "" {
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			return err
		}
		s.db = db
		s.store = database.NewStore(db, s.logger)
	} else if needStore {
		return errs.NewValidationError("no archive configured, set --db or database.path", nil)
	}

	s.app = app.New(cfg, s.logger, s.store)
	return nil
}
