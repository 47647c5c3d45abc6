package send

import (
	"github.com/spf13/cobra"
)

func NewSendCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "send <room> [message...]",
		Short: "Send a message, or every line typed, to a room",
		Args:  cobra.MinimumNArgs(1),
		Example: `  gitterclaw send gitterHQ/sandbox "hello there"
  gitterclaw send gitterHQ/sandbox
  echo hi | gitterclaw send gitterHQ/sandbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCmd(cmd, args[0], args[1:], debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}
