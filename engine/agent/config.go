package agent

import (
	"fmt"
	"strconv"
	"strings"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

// Option keys recognized by Config.
const (
	KeyName     = "name"
	KeyRole     = "role"
	KeySeed     = "seed"
	KeyAlpha    = "alpha"
	KeyCapacity = "init"
	KeyLoad     = "load"
	KeySave     = "save"
	KeyTrain    = "train"
	KeyTest     = "test"
)

// Config is the option set of one agent. Options arrive as a
// space-separated "key=value" string; a bare key means "key=true".
// Keys Config does not know are kept in Extra for collaborators.
type Config struct {
	Name     string
	Role     engine.Role
	Seed     uint64
	HasSeed  bool
	Alpha    float32
	// Capacity is the number of cells per weight table. Below FeatureSpace,
	// feature indices wrap modulo Capacity and distinct boards share cells.
	Capacity int
	LoadPath string
	SavePath string
	Train    bool // false: evaluation only, no weight updates

	Extra map[string]string
}

// DefaultConfig returns the options every agent starts from.
func DefaultConfig() Config {
	return Config{
		Name:     "unknown",
		Role:     engine.RoleNone,
		Alpha:    DefaultAlpha,
		Capacity: FeatureSpace,
		Train:    true,
		Extra:    make(map[string]string),
	}
}

// ParseOptions applies opts on top of DefaultConfig. Later keys win.
func ParseOptions(opts string) (Config, error) {
	cfg := DefaultConfig()
	for _, field := range strings.Fields(opts) {
		if err := cfg.Notify(field); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Notify sets one "key=value" (or bare "key") option.
func (c *Config) Notify(msg string) error {
	key, value, found := strings.Cut(msg, "=")
	if !found {
		value = "true"
	}
	return c.Set(key, value)
}

// Set assigns a single option.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyName:
		c.Name = value
	case KeyRole:
		c.Role = engine.ParseRole(value)
	case KeySeed:
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("option %s=%q: %w", key, value, err)
		}
		c.Seed, c.HasSeed = seed, true
	case KeyAlpha:
		alpha, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("option %s=%q: %w", key, value, err)
		}
		c.Alpha = float32(alpha)
	case KeyCapacity:
		capacity, err := strconv.Atoi(value)
		if err != nil || capacity <= 0 {
			return fmt.Errorf("option %s=%q: want a positive table size", key, value)
		}
		c.Capacity = capacity
	case KeyLoad:
		c.LoadPath = value
	case KeySave:
		c.SavePath = value
	case KeyTrain, KeyTest:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("option %s=%q: %w", key, value, err)
		}
		c.Train = on == (key == KeyTrain)
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
	return nil
}

// Property returns the textual value of a recognized or extra option.
func (c *Config) Property(key string) (string, bool) {
	switch key {
	case KeyName:
		return c.Name, true
	case KeyRole:
		return c.Role.String(), true
	case KeySeed:
		if !c.HasSeed {
			return "", false
		}
		return strconv.FormatUint(c.Seed, 10), true
	case KeyAlpha:
		return strconv.FormatFloat(float64(c.Alpha), 'g', -1, 32), true
	case KeyCapacity:
		return strconv.Itoa(c.Capacity), true
	case KeyLoad:
		return c.LoadPath, c.LoadPath != ""
	case KeySave:
		return c.SavePath, c.SavePath != ""
	case KeyTrain:
		return strconv.FormatBool(c.Train), true
	case KeyTest:
		return strconv.FormatBool(!c.Train), true
	}
	v, ok := c.Extra[key]
	return v, ok
}
