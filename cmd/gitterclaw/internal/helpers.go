package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/tinyland-inc/gitterclaw/pkg/config"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

const Logo = "💬"

var errNoToken = errors.New("no Gitter token configured; run `gitterclaw auth login` or set GITTERCLAW_GITTER_TOKEN")

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// GetConfigPath returns $GITTERCLAW_CONFIG, or ~/.gitterclaw/config.json.
func GetConfigPath() string {
	if path := os.Getenv("GITTERCLAW_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gitterclaw", "config.json")
}

// LoadConfig loads the config and applies its log level.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return cfg, nil
}

// NewClient loads the config and authenticates against Gitter.
func NewClient(ctx context.Context, debug bool) (*gitter.Client, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Gitter.Token == "" {
		return nil, nil, errNoToken
	}
	client, err := gitter.NewClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// SignalContext returns a child of parent cancelled on Ctrl+C or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}
