package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/seed"
	"github.com/warp/job-tracker/tracker"
)

func newJobTypesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobtypes",
		Short: "Import and list job types",
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create or update job types from a YAML file",
		Long: `Create or update job types from a YAML file of the form:

  job_types:
    - name: Inspection
      credits: "1.25"

Job types are matched by name, so importing the same file twice is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobTypes, err := seed.LoadJobTypesFile(args[0])
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			saved, err := seed.ImportJobTypes(cmd.Context(), store, jobTypes)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"file": args[0], "count": len(saved)}).Info("job types imported")

			return printJobTypes(cmd.OutOrStdout(), saved)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print all job types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobTypes, err := store.ListJobTypes(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobTypes) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No job types defined")
				return err
			}
			return printJobTypes(cmd.OutOrStdout(), jobTypes)
		},
	}

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

func printJobTypes(w io.Writer, jobTypes []tracker.JobType) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Credits"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(jobTypes))
	for _, jt := range jobTypes {
		data = append(data, []string{
			fmt.Sprintf("%d", jt.ID),
			jt.Name,
			jt.Credits.StringFixed(2),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
