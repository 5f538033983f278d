package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", s.database.Driver)
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill empty lookup tables and create the default accounts",
		Long: `Seed inserts the default categories and statuses when their tables are
empty, and the admin, tech and user accounts when no account exists yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if password == "" {
				password = s.cfg.Seed.DefaultPassword
			}
			if err := persistence.Seed(cmd.Context(), s.database.Handle(), persistence.SeedOptions{
				DefaultPassword: password,
				BcryptCost:      s.cfg.Auth.BcryptCost,
			}, s.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password for the default accounts (defaults to SEED_DEFAULT_PASSWORD)")
	return cmd
}
