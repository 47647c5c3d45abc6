package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "alice" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Gitter GitterConfig `json:"gitter"`
	Relay  RelayConfig  `json:"relay"`
	Log    LogConfig    `json:"log"`
}

type GitterConfig struct {
	Token          string  `env:"GITTERCLAW_GITTER_TOKEN"           json:"token"`
	RESTURL        string  `env:"GITTERCLAW_GITTER_REST_URL"        json:"rest_url"`
	StreamURL      string  `env:"GITTERCLAW_GITTER_STREAM_URL"      json:"stream_url"`
	SleepSeconds   float64 `env:"GITTERCLAW_GITTER_SLEEP_SECONDS"   json:"sleep_seconds"`
	TimeoutSeconds float64 `env:"GITTERCLAW_GITTER_TIMEOUT_SECONDS" json:"timeout_seconds"`
	PageLimit      int     `env:"GITTERCLAW_GITTER_PAGE_LIMIT"      json:"page_limit"`
}

type RelayConfig struct {
	Host      string              `env:"GITTERCLAW_RELAY_HOST"       json:"host"`
	Port      int                 `env:"GITTERCLAW_RELAY_PORT"       json:"port"`
	Room      string              `env:"GITTERCLAW_RELAY_ROOM"       json:"room"`
	AllowFrom FlexibleStringSlice `env:"GITTERCLAW_RELAY_ALLOW_FROM" json:"allow_from"`
}

type LogConfig struct {
	Level string `env:"GITTERCLAW_LOG_LEVEL" json:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Gitter: GitterConfig{
			RESTURL:        gitter.DefaultRESTURL,
			StreamURL:      gitter.DefaultStreamURL,
			SleepSeconds:   gitter.DefaultSleepTime.Seconds(),
			TimeoutSeconds: gitter.DefaultTimeout.Seconds(),
			PageLimit:      gitter.DefaultPageLimit,
		},
		Relay: RelayConfig{
			Host:      "127.0.0.1",
			Port:      18790,
			AllowFrom: FlexibleStringSlice{},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path and applies environment
// overrides. A missing file yields the defaults. A .env file in the
// working directory, if present, is loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads the JSON config at path over the defaults, without any
// environment overrides. Use it to rewrite the file.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

// loadDotEnv loads path without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks ranges only; an empty token is reported when a client
// is built, so `auth login` can run against a fresh config.
func (c *Config) Validate() error {
	var errs []error
	if c.Gitter.SleepSeconds < 0 {
		errs = append(errs, errors.New("gitter.sleep_seconds must not be negative"))
	}
	if c.Gitter.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("gitter.timeout_seconds must not be negative"))
	}
	if c.Gitter.PageLimit <= 0 {
		errs = append(errs, errors.New("gitter.page_limit must be positive"))
	}
	if c.Relay.Port < 0 || c.Relay.Port > 65535 {
		errs = append(errs, fmt.Errorf("relay.port %d out of range", c.Relay.Port))
	}
	return errors.Join(errs...)
}

// ClientConfig maps the gitter section onto the client's options.
func (c *Config) ClientConfig() gitter.Config {
	return gitter.Config{
		Token:     c.Gitter.Token,
		RESTURL:   c.Gitter.RESTURL,
		StreamURL: c.Gitter.StreamURL,
		Timeout:   seconds(c.Gitter.TimeoutSeconds),
		SleepTime: seconds(c.Gitter.SleepSeconds),
		PageLimit: c.Gitter.PageLimit,
	}
}

func (c *Config) RelayAddr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
