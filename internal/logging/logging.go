package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "LEDGER_COSMOS_LOG_LEVEL"
	EnvLogNoColor = "LEDGER_COSMOS_LOG_NOCOLOR"
	EnvLogJSON    = "LEDGER_COSMOS_LOG_JSON"
)

type Config struct {
	Level   zerolog.Level
	NoColor bool
	JSON    bool
}

func DefaultConfig() Config {
	return Config{Level: zerolog.WarnLevel}
}

// New builds the CLI logger. Output goes to w (stderr in the CLI) so that
// command results on stdout stay clean.
func New(w io.Writer, cfg Config) zerolog.Logger {
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	return zerolog.New(w).Level(cfg.Level).With().Timestamp().Str("app", "ledger-cosmos").Logger()
}

// FromEnv returns DefaultConfig with environment overrides applied. level,
// when not empty, wins over the environment.
func FromEnv(level string) Config {
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg, os.Getenv)
	if lvl, ok := ParseLevel(level); ok {
		cfg.Level = lvl
	}
	return cfg
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if lvl, ok := ParseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
}

// ParseLevel maps a level name to a zerolog level. The second result is false
// for empty or unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug", "apdu":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
