package room

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
)

func NewJoinCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "join <uri>",
		Short:   "Join a room by URI",
		Args:    cobra.ExactArgs(1),
		Example: "  gitterclaw join gitterHQ/sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := internal.NewClient(cmd.Context(), debug)
			if err != nil {
				return err
			}
			room, err := client.JoinRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Joined %s (%s)\n", room.Name, room.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func NewLeaveCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "leave <room>",
		Short:   "Leave a room by name",
		Args:    cobra.ExactArgs(1),
		Example: "  gitterclaw leave gitterHQ/sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := internal.NewClient(cmd.Context(), debug)
			if err != nil {
				return err
			}
			if _, err := client.LeaveRoom(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Left %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}
