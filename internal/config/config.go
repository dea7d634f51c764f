package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gregLibert/ledger-cosmos/internal/logging"
	"github.com/gregLibert/ledger-cosmos/pkg/cosmos"
	"github.com/gregLibert/ledger-cosmos/pkg/transport"
)

const (
	EnvTransport = "LEDGER_COSMOS_TRANSPORT"
	EnvReader    = "LEDGER_COSMOS_READER"
	EnvHRP       = "LEDGER_COSMOS_HRP"
	EnvTimeout   = "LEDGER_COSMOS_TIMEOUT"
	EnvPath      = "LEDGER_COSMOS_PATH"
)

// Config holds the CLI settings. Precedence, lowest first: defaults, TOML
// file, environment, command line flags.
type Config struct {
	Transport string
	Reader    string
	HRP       string
	Timeout   time.Duration
	Path      string
	LogLevel  string
}

// config.toml key mapping.
type fileConfig struct {
	Transport string `toml:"transport"`
	Reader    string `toml:"reader"`
	HRP       string `toml:"hrp"`
	Timeout   string `toml:"timeout"`
	Path      string `toml:"path"`
	LogLevel  string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Transport: transport.KindHID,
		HRP:       cosmos.DefaultHRP,
		Timeout:   30 * time.Second,
		Path:      "m/44'/118'/0'/0/0",
	}
}

// Load reads path (skipped when empty), applies the environment and validates
// the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("reader") {
		cfg.Reader = strings.TrimSpace(raw.Reader)
	}
	if meta.IsDefined("hrp") {
		cfg.HRP = strings.TrimSpace(raw.HRP)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("load config: timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("path") {
		cfg.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvTransport)); v != "" {
		cfg.Transport = v
	}
	if v := strings.TrimSpace(getenv(EnvReader)); v != "" {
		cfg.Reader = v
	}
	if v := strings.TrimSpace(getenv(EnvHRP)); v != "" {
		cfg.HRP = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(getenv(EnvPath)); v != "" {
		cfg.Path = v
	}
	if v := strings.TrimSpace(getenv(logging.EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func Validate(cfg Config) error {
	switch cfg.Transport {
	case transport.KindHID, transport.KindPCSC:
	default:
		return fmt.Errorf("config: unsupported transport %q (expected %s or %s)", cfg.Transport, transport.KindHID, transport.KindPCSC)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("config: negative timeout %s", cfg.Timeout)
	}
	if strings.TrimSpace(cfg.HRP) == "" {
		return fmt.Errorf("config: %w: empty", cosmos.ErrInvalidHRP)
	}
	if _, err := cosmos.ParseHDPath(cfg.Path); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("config: unknown log level %q", cfg.LogLevel)
		}
	}
	return nil
}

// HDPath returns the configured derivation path.
func (c Config) HDPath() (cosmos.HDPath, error) {
	return cosmos.ParseHDPath(c.Path)
}
