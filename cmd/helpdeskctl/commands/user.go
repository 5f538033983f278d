package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCommand(), newUserListCommand(), newUserPasswordCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var (
		login       string
		displayName string
		role        string
		password    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if displayName == "" {
				displayName = login
			}
			user, err := s.authService().CreateUser(cmd.Context(), service.UserInput{
				Login:       login,
				DisplayName: displayName,
				Role:        domain.Role(role),
			}, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, role %s)\n", user.Login, user.ID, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "Login name")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name (defaults to the login)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "Role: admin, tech or user")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			users, err := s.authService().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Login", "Name", "Role")
			for _, u := range users {
				if err := table.Append([]string{strconv.FormatInt(u.ID, 10), u.Login, u.DisplayName, string(u.Role)}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newUserPasswordCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password LOGIN",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.users.GetByLogin(cmd.Context(), service.NormalizeLogin(args[0]))
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			if err := s.authService().ResetPassword(cmd.Context(), user.ID, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", user.Login)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
