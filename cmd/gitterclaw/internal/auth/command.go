package auth

import (
	"github.com/spf13/cobra"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gitter access token",
	}

	cmd.AddCommand(newLoginCommand(), newStatusCommand())
	return cmd
}

func newLoginCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate and save a personal access token",
		Args:  cobra.NoArgs,
		Example: `  gitterclaw auth login
  gitterclaw auth login --token 0123abcd`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loginCmd(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token to save instead of prompting")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which account the saved token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCmd(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
