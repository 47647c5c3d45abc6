package lookup

import (
	"github.com/spf13/cobra"
)

type options struct {
	json  bool
	debug bool
}

func newLookupCommand(use, short string, run func(cmd *cobra.Command, opts options) error) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the raw JSON documents")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func NewUserCommand() *cobra.Command {
	return newLookupCommand("user", "Show the authenticated user", userCmd)
}

func NewRoomsCommand() *cobra.Command {
	return newLookupCommand("rooms", "List the rooms you are in", roomsCmd)
}

func NewChannelsCommand() *cobra.Command {
	return newLookupCommand("channels", "List your channels", channelsCmd)
}

func NewReposCommand() *cobra.Command {
	return newLookupCommand("repos", "List your repositories and their rooms", reposCmd)
}
