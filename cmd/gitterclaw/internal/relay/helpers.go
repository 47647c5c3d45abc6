package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/pkg/bus"
	"github.com/tinyland-inc/gitterclaw/pkg/channels"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
	pkgrelay "github.com/tinyland-inc/gitterclaw/pkg/relay"
)

var errNoRoom = errors.New("no room to relay; pass --room or set relay.room")

func relayCmd(cmd *cobra.Command, room string, port int, debug bool) error {
	ctx, stop := internal.SignalContext(cmd.Context())
	defer stop()

	client, cfg, err := internal.NewClient(ctx, debug)
	if err != nil {
		return err
	}

	if room == "" {
		room = cfg.Relay.Room
	}
	if room == "" {
		return errNoRoom
	}
	if port != 0 {
		cfg.Relay.Port = port
	}

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	gitterChannel := channels.NewGitterChannel(client, room, msgBus, cfg.Relay.AllowFrom)
	if err := gitterChannel.Start(ctx); err != nil {
		return fmt.Errorf("error starting channel: %w", err)
	}

	server := pkgrelay.NewServer(msgBus, gitterChannel.RoomID)
	go server.Run(ctx)
	go channels.DispatchOutbound(ctx, msgBus, gitterChannel)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Relaying %s (%s)\n", room, gitterChannel.RoomID())
	fmt.Fprintf(out, "✓ Websocket at ws://%s/ws, health at http://%s/health\n", cfg.RelayAddr(), cfg.RelayAddr())
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	serveErr := server.ListenAndServe(ctx, cfg.RelayAddr())

	fmt.Fprintln(out, "\nShutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gitterChannel.Stop(stopCtx); err != nil {
		logger.WarnCF("relay", "Channel stop timed out", map[string]any{"error": err.Error()})
	}
	fmt.Fprintln(out, "✓ Relay stopped")

	return serveErr
}
