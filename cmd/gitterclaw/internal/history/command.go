package history

import (
	"github.com/spf13/cobra"
)

type options struct {
	limit    int
	sleep    float64
	pageSize int
	json     bool
	debug    bool
}

func NewHistoryCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "history <room>",
		Short: "Print a room's history, newest first",
		Args:  cobra.ExactArgs(1),
		Example: `  gitterclaw history gitterHQ/sandbox --limit 20
  gitterclaw history gitterHQ/sandbox --sleep 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return historyCmd(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Stop after this many messages (0 for all)")
	cmd.Flags().Float64Var(&opts.sleep, "sleep", -1, "Seconds to pause between pages (default from config)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Messages per page (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print one JSON document per message")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	return cmd
}
