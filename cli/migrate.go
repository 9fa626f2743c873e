package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/store/sqlite"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations (upgrades/downgrades)",
		Long: `Move the tracker database schema to a given version.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  tracker migrate

  # Rollback everything
  tracker migrate --target-version 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := cmd.Flags().GetInt("target-version")
			if err != nil {
				return err
			}
			if err := ensureDir(a.cfg.Database.Path); err != nil {
				return err
			}

			db, err := sqlite.Open(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := sqlite.Migrate(db, target)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"from":    result.From,
				"to":      result.To,
				"changed": result.Changed,
			}).Debug("migration finished")

			out := cmd.OutOrStdout()
			if !result.Changed {
				_, err = fmt.Fprintf(out, "Schema already at version %d\n", result.To)
				return err
			}
			_, err = fmt.Fprintf(out, "Migrated schema from version %d to %d\n", result.From, result.To)
			return err
		},
	}
	cmd.Flags().Int("target-version", sqlite.LatestVersion, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	return cmd
}
