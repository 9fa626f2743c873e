package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/api"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account with the default profile target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if err := api.ValidateCredentials(username, password); err != nil {
				return err
			}
			hash, err := api.HashPassword(password)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.CreateUser(cmd.Context(), username, hash)
			if err != nil {
				return err
			}
			a.log.WithField("user_id", user.ID).Info("user created")

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
			return err
		},
	}
	create.Flags().String("username", "", "Account name")
	create.Flags().String("password", "", "Account password, at least 8 characters")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
