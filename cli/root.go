/*
root.go - Command tree and shared setup

PURPOSE:
  Builds the `tracker` command tree. Every subcommand shares one viper
  instance, one loaded Config and one logger, prepared in the root's
  PersistentPreRunE before the subcommand runs.

CONFIGURATION PRECEDENCE (lowest to highest):
  defaults -> tracker.yaml (or --config) -> .env / TRACKER_* env -> flags

COMMANDS:
  serve       Run the HTTP API
  migrate     Move the schema to a version
  user        Manage accounts
  jobtypes    Import and list job types
  report      Print weekly and history reports
  about       Manage the about page

SEE ALSO:
  - config/config.go: Settings tree and loading
  - logging/logging.go: Logger construction
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/job-tracker/config"
	"github.com/warp/job-tracker/logging"
	"github.com/warp/job-tracker/store/sqlite"
)

// app carries state shared by all commands of one invocation.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *logrus.Logger
}

// NewRootCommand builds the full command tree with a fresh viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "tracker",
		Short: "Track completed jobs against a daily credit target",
		Long: `tracker records completed jobs and absences per user and reports how
each week compares to the user's credit target.

Examples:
  # Create the schema and an account
  tracker migrate
  tracker user create --username alice --password 's3cret-pass'

  # Load job types and start the API
  tracker jobtypes import job_types.yaml
  tracker serve --port 8080

  # Print this week's tracker for a user
  tracker report week --username alice`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().String("config", "", "Path to config file (default ./tracker.yaml)")
	root.PersistentFlags().String("db", "", "SQLite database path, \":memory:\" for a throwaway database")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("no-color", false, "Disable colored report output")

	// Flag names differ from config keys, so bind them one by one.
	a.bindFlag(root, "database.path", "db")
	a.bindFlag(root, "log.level", "log-level")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newUserCommand(a),
		newJobTypesCommand(a),
		newReportCommand(a),
		newAboutCommand(a),
	)
	return root
}

// Execute runs the command tree against os.Args and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func (a *app) bindFlag(cmd *cobra.Command, key, flag string) {
	if err := a.v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// setup loads configuration and the logger for whichever command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v, configFile)
	if err != nil {
		return err
	}

	logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	a.cfg = cfg
	a.log = logger
	return nil
}

// openStore opens the configured database, creating its directory and
// migrating it to the latest schema.
func (a *app) openStore() (*sqlite.Store, error) {
	if err := ensureDir(a.cfg.Database.Path); err != nil {
		return nil, err
	}
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func ensureDir(dbPath string) error {
	if sqlite.IsMemory(dbPath) {
		return nil
	}
	dir := filepath.Dir(sqlite.FilePath(dbPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
