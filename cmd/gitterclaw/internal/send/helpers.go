package send

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

type sender interface {
	SendMessageToRoomID(ctx context.Context, roomID, text string) (*gitter.Message, error)
}

func sendCmd(cmd *cobra.Command, roomName string, words []string, debug bool) error {
	ctx := cmd.Context()
	client, _, err := internal.NewClient(ctx, debug)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if text := strings.TrimSpace(strings.Join(words, " ")); text != "" {
		message, err := client.SendMessage(ctx, roomName, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Sent %s\n", message.ID)
		return nil
	}

	roomID, err := client.RoomIDFromName(ctx, roomName)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "%s Sending to %s (Ctrl+C to exit)\n\n", internal.Logo, roomName)
		return interactiveMode(ctx, client, roomID, roomName, out)
	}
	return sendLines(ctx, client, roomID, in, out)
}

func interactiveMode(ctx context.Context, client sender, roomID, roomName string, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s %s> ", internal.Logo, roomName),
		HistoryFile:     filepath.Join(os.TempDir(), ".gitterclaw_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(out, "Error initializing readline: %v\n", err)
		fmt.Fprintln(out, "Falling back to simple input mode...")
		return sendLines(ctx, client, roomID, os.Stdin, out)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		if _, err := client.SendMessageToRoomID(ctx, roomID, input); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// sendLines posts every non-blank line of r until EOF. It stops at the
// first failed send.
func sendLines(ctx context.Context, client sender, roomID string, r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	sent := 0
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if _, err := client.SendMessageToRoomID(ctx, roomID, input); err != nil {
			return fmt.Errorf("after %d messages: %w", sent, err)
		}
		sent++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintf(out, "✓ Sent %d messages\n", sent)
	return nil
}
