package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

func historyCmd(cmd *cobra.Command, roomName string, opts options) error {
	ctx, stop := internal.SignalContext(cmd.Context())
	defer stop()

	client, _, err := internal.NewClient(ctx, opts.debug)
	if err != nil {
		return err
	}

	var cursorOpts []gitter.CursorOption
	if opts.sleep >= 0 {
		cursorOpts = append(cursorOpts, gitter.WithSleepTime(time.Duration(opts.sleep*float64(time.Second))))
	}
	if opts.pageSize > 0 {
		cursorOpts = append(cursorOpts, gitter.WithPageLimit(opts.pageSize))
	}

	cursor, err := client.MessageCursor(ctx, roomName, cursorOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	printed := 0
	for message := range cursor.All(ctx) {
		if opts.json {
			if err := enc.Encode(message.Metadata); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, internal.FormatMessage(message))
		}
		printed++
		if opts.limit > 0 && printed >= opts.limit {
			break
		}
	}

	if cause := cursor.Cause(); cause != nil {
		logger.WarnCF("history", "History ended before the beginning of the room", map[string]any{
			"room":  roomName,
			"pages": cursor.Pages(),
			"cause": cause.Error(),
		})
	}
	if err := cursor.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
