// Package clitest runs gitterclaw commands against a fake Gitter.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter/gittertest"
)

// Setup starts a fake Gitter and points the config environment at it,
// with a private config file and a valid token.
func Setup(t *testing.T) *gittertest.Server {
	t.Helper()
	srv := gittertest.NewServer(t)

	t.Setenv("GITTERCLAW_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	t.Setenv("GITTERCLAW_GITTER_TOKEN", "test-token")
	t.Setenv("GITTERCLAW_GITTER_REST_URL", srv.RESTURL())
	t.Setenv("GITTERCLAW_GITTER_STREAM_URL", srv.StreamURL())
	t.Setenv("GITTERCLAW_GITTER_SLEEP_SECONDS", "0.001")
	t.Setenv("GITTERCLAW_LOG_LEVEL", "error")
	return srv
}

// Run executes cmd with args and stdin, returning everything it printed.
func Run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
