// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names. Every field of Config can be set from the
// environment (or a .env file) and then overridden by command-line flags.
const (
	EnvTotal         = "THREES_TOTAL"
	EnvBlock         = "THREES_BLOCK"
	EnvLimit         = "THREES_LIMIT"
	EnvPlay          = "THREES_PLAY"
	EnvEvil          = "THREES_EVIL"
	EnvLoad          = "THREES_LOAD"
	EnvSave          = "THREES_SAVE"
	EnvSummary       = "THREES_SUMMARY"
	EnvWeightsIn     = "THREES_WEIGHTS_IN"
	EnvWeightsOut    = "THREES_WEIGHTS_OUT"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvMonitorAddr   = "MONITOR_ADDR"
	EnvMonitorSecret = "MONITOR_SECRET"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config describes one training run.
type Config struct {
	Total int // episodes to play
	Block int // episodes per summary; 0 means Total
	Limit int // episodes kept in memory; 0 means Total

	PlayArgs string // player agent options ("name=td alpha=0.01 ...")
	EvilArgs string // environment agent options

	LoadPath string // episode log to resume from
	SavePath string // episode log to write at the end
	Summary  bool   // print the whole-run summary at the end

	WeightsIn  string // weight file for the player, appended as load=
	WeightsOut string // weight file for the player, appended as save=

	RedisAddr     string // empty disables the episode stream
	DatabaseURL   string // empty disables run persistence
	MonitorAddr   string // empty disables the websocket monitor
	MonitorSecret string // HS256 key for monitor tokens
	LogLevel      string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{Total: 1000, LogLevel: "info"}
}

// Load reads the optional .env files (".env" when none are given) and then
// the process environment on top of Default. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function over Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error
	if cfg.Total, err = intVar(getenv, EnvTotal, cfg.Total); err != nil {
		return cfg, err
	}
	if cfg.Block, err = intVar(getenv, EnvBlock, cfg.Block); err != nil {
		return cfg, err
	}
	if cfg.Limit, err = intVar(getenv, EnvLimit, cfg.Limit); err != nil {
		return cfg, err
	}
	if v := getenv(EnvSummary); v != "" {
		if cfg.Summary, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("%s=%q: %w", EnvSummary, v, err)
		}
	}
	strVar(getenv, EnvPlay, &cfg.PlayArgs)
	strVar(getenv, EnvEvil, &cfg.EvilArgs)
	strVar(getenv, EnvLoad, &cfg.LoadPath)
	strVar(getenv, EnvSave, &cfg.SavePath)
	strVar(getenv, EnvWeightsIn, &cfg.WeightsIn)
	strVar(getenv, EnvWeightsOut, &cfg.WeightsOut)
	strVar(getenv, EnvRedisAddr, &cfg.RedisAddr)
	strVar(getenv, EnvDatabaseURL, &cfg.DatabaseURL)
	strVar(getenv, EnvMonitorAddr, &cfg.MonitorAddr)
	strVar(getenv, EnvMonitorSecret, &cfg.MonitorSecret)
	strVar(getenv, EnvLogLevel, &cfg.LogLevel)
	return cfg, nil
}

// Validate checks the episode counts and the monitor settings.
func (c Config) Validate() error {
	if c.Total < 0 || c.Block < 0 || c.Limit < 0 {
		return fmt.Errorf("total/block/limit must not be negative (got %d/%d/%d)", c.Total, c.Block, c.Limit)
	}
	if c.MonitorAddr != "" && c.MonitorSecret == "" {
		return fmt.Errorf("%s is required when the monitor is enabled", EnvMonitorSecret)
	}
	return nil
}

// PlayerOptions returns the player option string with its role and the
// weight files folded in.
func (c Config) PlayerOptions() string {
	return joinOptions("role=player", c.PlayArgs, optional("load", c.WeightsIn), optional("save", c.WeightsOut))
}

// EnvironmentOptions returns the environment option string with its role.
func (c Config) EnvironmentOptions() string {
	return joinOptions("name=random role=environment", c.EvilArgs)
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s=%q: %w", key, v, err)
	}
	return n, nil
}

func strVar(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func optional(key, value string) string {
	if value == "" {
		return ""
	}
	return key + "=" + value
}

func joinOptions(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
