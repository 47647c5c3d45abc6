// GitterClaw - Command-line client for the Gitter chat API
// License: MIT
//
// Copyright (c) 2026 GitterClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/auth"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/history"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/lookup"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/relay"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/room"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/send"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/stream"
	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/version"
)

func NewGitterclawCommand() *cobra.Command {
	short := fmt.Sprintf("%s gitterclaw - Gitter chat client v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "gitterclaw",
		Short:        short,
		Example:      "gitterclaw rooms",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		auth.NewAuthCommand(),
		lookup.NewUserCommand(),
		lookup.NewRoomsCommand(),
		lookup.NewChannelsCommand(),
		lookup.NewReposCommand(),
		room.NewJoinCommand(),
		room.NewLeaveCommand(),
		send.NewSendCommand(),
		stream.NewStreamCommand(),
		history.NewHistoryCommand(),
		relay.NewRelayCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewGitterclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
