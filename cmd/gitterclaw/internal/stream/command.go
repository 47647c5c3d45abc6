package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

func NewStreamCommand() *cobra.Command {
	var debug, raw bool

	cmd := &cobra.Command{
		Use:   "stream <room>",
		Short: "Print a room's messages as they arrive",
		Args:  cobra.ExactArgs(1),
		Example: `  gitterclaw stream gitterHQ/sandbox
  gitterclaw stream gitterHQ/sandbox --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := internal.SignalContext(cmd.Context())
			defer stop()

			client, _, err := internal.NewClient(ctx, debug)
			if err != nil {
				return err
			}

			stream, err := client.RoomStream(ctx, args[0])
			if err != nil {
				return err
			}
			defer stream.Close()

			return printStream(ctx, stream, cmd.OutOrStdout(), raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Copy the stream body unparsed")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

// printStream writes messages until the server ends the stream or ctx is
// cancelled; neither is an error.
func printStream(ctx context.Context, stream *gitter.Stream, out io.Writer, raw bool) error {
	if raw {
		_, err := io.Copy(out, stream)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for {
		message, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}
		fmt.Fprintln(out, internal.FormatMessage(message))
	}
}
