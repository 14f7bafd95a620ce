package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/keymap"
	"hotkeyd/internal/mode"
)

// Settings holds the [settings] table of the config file.
type Settings struct {
	LongPressMs       int      `toml:"long_press_ms"`
	MultiPressWindow  int      `toml:"multi_press_window_ms"`
	MultiPressCount   int      `toml:"multi_press_count"`
	DefaultMode       string   `toml:"default_mode"`
	ModeOrder         []string `toml:"mode_order"`
	ScriptDir         string   `toml:"script_dir"`
	CommandTimeoutSec int      `toml:"command_timeout_sec"`
}

// BindingEntry is one key binding inside a mode table.
type BindingEntry struct {
	Feature  string            `toml:"feature"`
	Patterns map[string]string `toml:"patterns"`
}

// ModeEntry is one [modes.<id>] table.
type ModeEntry struct {
	Name     string                  `toml:"name"`
	Bindings map[string]BindingEntry `toml:"bindings"`
}

// Config is the decoded configuration file.
type Config struct {
	Settings Settings             `toml:"settings"`
	Modes    map[string]ModeEntry `toml:"modes"`
}

// Default returns a configuration with defaulted settings and no modes.
func Default() Config {
	return Config{
		Settings: Settings{
			LongPressMs:       800,
			MultiPressWindow:  500,
			MultiPressCount:   3,
			CommandTimeoutSec: 30,
		},
		Modes: map[string]ModeEntry{},
	}
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML config data, applies defaults, and validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default().Settings
	if c.Settings.LongPressMs <= 0 {
		c.Settings.LongPressMs = d.LongPressMs
	}
	if c.Settings.MultiPressWindow <= 0 {
		c.Settings.MultiPressWindow = d.MultiPressWindow
	}
	if c.Settings.MultiPressCount < 2 {
		c.Settings.MultiPressCount = d.MultiPressCount
	}
	if c.Settings.CommandTimeoutSec <= 0 {
		c.Settings.CommandTimeoutSec = d.CommandTimeoutSec
	}
	if c.Settings.DefaultMode == "" {
		c.Settings.DefaultMode = c.firstModeID()
	}
}

// firstModeID picks a deterministic default mode when none is configured:
// the first of mode_order if set, else the lexicographically first id.
func (c *Config) firstModeID() string {
	if len(c.Settings.ModeOrder) > 0 {
		return c.Settings.ModeOrder[0]
	}
	ids := make([]string, 0, len(c.Modes))
	for id := range c.Modes {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return ids[0]
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if len(c.Modes) == 0 {
		return ErrNoModes
	}
	if _, ok := c.Modes[c.Settings.DefaultMode]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDefaultMode, c.Settings.DefaultMode)
	}
	if len(c.Settings.ModeOrder) > 0 {
		if len(c.Settings.ModeOrder) != len(c.Modes) {
			return fmt.Errorf("%w: %d ordered, %d declared", ErrBadModeOrder,
				len(c.Settings.ModeOrder), len(c.Modes))
		}
		seen := make(map[string]bool, len(c.Settings.ModeOrder))
		for _, id := range c.Settings.ModeOrder {
			if _, ok := c.Modes[id]; !ok {
				return fmt.Errorf("%w: unknown mode %q", ErrBadModeOrder, id)
			}
			if seen[id] {
				return fmt.Errorf("%w: duplicate mode %q", ErrBadModeOrder, id)
			}
			seen[id] = true
		}
	}
	for id, m := range c.Modes {
		for combo, b := range m.Bindings {
			if b.Feature == "" {
				return fmt.Errorf("mode %s binding %s: missing feature", id, combo)
			}
		}
	}
	return nil
}

// ClassifierConfig converts settings into classifier thresholds.
func (c *Config) ClassifierConfig() hotkey.Config {
	return hotkey.Config{
		LongPressThreshold: time.Duration(c.Settings.LongPressMs) * time.Millisecond,
		MultiPressWindow:   time.Duration(c.Settings.MultiPressWindow) * time.Millisecond,
		MultiPressCount:    c.Settings.MultiPressCount,
	}
}

// CommandTimeout returns the background command time limit.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Settings.CommandTimeoutSec) * time.Second
}

// ModeOrder returns mode ids in presentation order: mode_order when set,
// lexicographic otherwise.
func (c *Config) ModeOrder() []string {
	if len(c.Settings.ModeOrder) > 0 {
		out := make([]string, len(c.Settings.ModeOrder))
		copy(out, c.Settings.ModeOrder)
		return out
	}
	ids := make([]string, 0, len(c.Modes))
	for id := range c.Modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModeList converts the decoded modes into the runtime model, in
// presentation order. Patterns inside each binding are ordered by
// canonical rank so first-pattern fallback stays deterministic across
// loads.
func (c *Config) ModeList() []mode.Mode {
	out := make([]mode.Mode, 0, len(c.Modes))
	for _, id := range c.ModeOrder() {
		entry := c.Modes[id]
		bindings := make(map[string]keymap.Binding, len(entry.Bindings))
		for combo, b := range entry.Bindings {
			bindings[combo] = buildBinding(b)
		}
		out = append(out, mode.Mode{
			ID:       id,
			Name:     entry.Name,
			Bindings: bindings,
		})
	}
	return out
}

func buildBinding(b BindingEntry) keymap.Binding {
	names := make([]string, 0, len(b.Patterns))
	for name := range b.Patterns {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := patternRank(names[i]), patternRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})

	binding := keymap.NewBinding(b.Feature)
	for _, name := range names {
		binding = binding.With(name, b.Patterns[name])
	}
	return binding
}

// patternRank orders pattern names canonically: short, long, double, then
// multi_N by count, then everything else.
func patternRank(name string) int {
	switch name {
	case "short":
		return 0
	case "long":
		return 1
	case "double":
		return 2
	case "multi":
		return 3
	}
	if n, ok := strings.CutPrefix(name, "multi_"); ok {
		if count, err := strconv.Atoi(n); err == nil && count > 0 {
			return 3 + count
		}
	}
	return 1 << 20
}
