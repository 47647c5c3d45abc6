package relay

import (
	"github.com/spf13/cobra"
)

func NewRelayCommand() *cobra.Command {
	var debug bool
	var room string
	var port int

	cmd := &cobra.Command{
		Use:     "relay",
		Aliases: []string{"r"},
		Short:   "Relay a room to local websocket clients",
		Args:    cobra.NoArgs,
		Example: `  gitterclaw relay --room gitterHQ/sandbox
  gitterclaw relay --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return relayCmd(cmd, room, port, debug)
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "Room to relay (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}
