package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/tracker"
)

func newAboutCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Manage the about page served at /api/about",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Create an about entry, or replace the entry with the same title",
		Long: `Create an about entry, or replace the content of the entry with the same title.

Examples:
  tracker about set --title Credits --content "Each job type earns a fixed number of credits."
  tracker about set --title Targets --file targets.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read about content: %w", err)
				}
				content = string(data)
			}
			if title == "" {
				return errors.New("title must not be empty")
			}
			if content == "" {
				return errors.New("one of --content or --file is required")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.ListAbout(cmd.Context())
			if err != nil {
				return err
			}
			entry := tracker.AboutEntry{Title: title, Content: content}
			for _, e := range entries {
				if e.Title == title {
					entry.ID = e.ID
					break
				}
			}
			created := entry.ID == 0

			saved, err := store.SaveAbout(cmd.Context(), entry)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"about_id": saved.ID, "created": created}).Info("about entry saved")

			verb := "Updated"
			if created {
				verb = "Created"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s about entry %q (id %d)\n", verb, saved.Title, saved.ID)
			return err
		},
	}
	set.Flags().String("title", "", "Entry title")
	set.Flags().String("content", "", "Entry text")
	set.Flags().String("file", "", "Read the entry text from a file")
	_ = set.MarkFlagRequired("title")
	set.MarkFlagsMutuallyExclusive("content", "file")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print all about entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.ListAbout(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No about entries")
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"ID", "Title", "Content"})
			data := make([][]string, 0, len(entries))
			for _, e := range entries {
				data = append(data, []string{fmt.Sprintf("%d", e.ID), e.Title, e.Content})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}
