// Package config holds daemon configuration: cycle durations, status bar
// icons, auto-continue behavior, persistence and notification settings.
// Precedence is defaults < config file < POMOBAR_* environment < CLI flags
// (flags are applied by the cli package after Load).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Minute is the number of seconds per minute; durations are configured in
// minutes but held in seconds.
const Minute = 60

// Default icons assume a nerd font, matching common status bar setups.
const (
	DefaultPlayIcon  = ""
	DefaultPauseIcon = ""
	DefaultWorkIcon  = "󰔟"
	DefaultBreakIcon = ""
)

// Config is the resolved daemon configuration. Durations are in seconds.
type Config struct {
	WorkTime   int
	ShortBreak int
	LongBreak  int

	PlayIcon    string
	PauseIcon   string
	WorkIcon    string
	BreakIcon   string
	NoIcons     bool
	NoWorkIcons bool

	AutoWork  bool
	AutoBreak bool
	Persist   bool

	Notifications bool
	WorkSound     string
	BreakSound    string

	LogPath string
}

// fileConfig is the on-disk schema. Durations are minutes there.
type fileConfig struct {
	Work       *int `toml:"work" yaml:"work"`
	ShortBreak *int `toml:"short_break" yaml:"short_break"`
	LongBreak  *int `toml:"long_break" yaml:"long_break"`

	AutoWork      *bool `toml:"auto_work" yaml:"auto_work"`
	AutoBreak     *bool `toml:"auto_break" yaml:"auto_break"`
	Persist       *bool `toml:"persist" yaml:"persist"`
	Notifications *bool `toml:"notifications" yaml:"notifications"`

	Icons struct {
		Play    string `toml:"play" yaml:"play"`
		Pause   string `toml:"pause" yaml:"pause"`
		Work    string `toml:"work" yaml:"work"`
		Break   string `toml:"break" yaml:"break"`
		None    bool   `toml:"none" yaml:"none"`
		NoCycle bool   `toml:"no_cycle" yaml:"no_cycle"`
	} `toml:"icons" yaml:"icons"`

	Sounds struct {
		Work  string `toml:"work" yaml:"work"`
		Break string `toml:"break" yaml:"break"`
	} `toml:"sounds" yaml:"sounds"`

	Log string `toml:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkTime:   25 * Minute,
		ShortBreak: 5 * Minute,
		LongBreak:  15 * Minute,
		PlayIcon:   DefaultPlayIcon,
		PauseIcon:  DefaultPauseIcon,
		WorkIcon:   DefaultWorkIcon,
		BreakIcon:  DefaultBreakIcon,
	}
}

// DefaultPath returns the conventional config file location. The first of
// config.toml, config.yaml, config.yml under ~/.config/pomobar that exists
// wins; with none present the toml path is returned so error handling stays
// uniform.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".config", "pomobar")
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, "config.toml")
}

// Load builds a Config from defaults, the given file (TOML or YAML by
// extension, a missing file is not an error) and environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fc fileConfig
			if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
				err = yaml.Unmarshal(data, &fc)
			} else {
				err = toml.Unmarshal(data, &fc)
			}
			if err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			fc.apply(cfg)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.Work != nil {
		cfg.WorkTime = *fc.Work * Minute
	}
	if fc.ShortBreak != nil {
		cfg.ShortBreak = *fc.ShortBreak * Minute
	}
	if fc.LongBreak != nil {
		cfg.LongBreak = *fc.LongBreak * Minute
	}
	if fc.AutoWork != nil {
		cfg.AutoWork = *fc.AutoWork
	}
	if fc.AutoBreak != nil {
		cfg.AutoBreak = *fc.AutoBreak
	}
	if fc.Persist != nil {
		cfg.Persist = *fc.Persist
	}
	if fc.Notifications != nil {
		cfg.Notifications = *fc.Notifications
	}
	if fc.Icons.Play != "" {
		cfg.PlayIcon = fc.Icons.Play
	}
	if fc.Icons.Pause != "" {
		cfg.PauseIcon = fc.Icons.Pause
	}
	if fc.Icons.Work != "" {
		cfg.WorkIcon = fc.Icons.Work
	}
	if fc.Icons.Break != "" {
		cfg.BreakIcon = fc.Icons.Break
	}
	cfg.NoIcons = cfg.NoIcons || fc.Icons.None
	cfg.NoWorkIcons = cfg.NoWorkIcons || fc.Icons.NoCycle
	if fc.Sounds.Work != "" {
		cfg.WorkSound = ExpandHome(fc.Sounds.Work)
	}
	if fc.Sounds.Break != "" {
		cfg.BreakSound = ExpandHome(fc.Sounds.Break)
	}
	if fc.Log != "" {
		cfg.LogPath = ExpandHome(fc.Log)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("POMOBAR_WORK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkTime = n * Minute
		}
	}
	if v := os.Getenv("POMOBAR_SHORT_BREAK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShortBreak = n * Minute
		}
	}
	if v := os.Getenv("POMOBAR_LONG_BREAK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LongBreak = n * Minute
		}
	}
	if v := os.Getenv("POMOBAR_PERSIST"); v != "" {
		cfg.Persist = v == "1" || v == "true"
	}
	if v := os.Getenv("POMOBAR_NOTIFICATIONS"); v != "" {
		cfg.Notifications = v == "1" || v == "true"
	}
	if v := os.Getenv("POMOBAR_AUTO_WORK"); v != "" {
		cfg.AutoWork = v == "1" || v == "true"
	}
	if v := os.Getenv("POMOBAR_AUTO_BREAK"); v != "" {
		cfg.AutoBreak = v == "1" || v == "true"
	}
}

// Validate checks the optional file destinations. Invalid paths are fatal at
// startup, before the daemon binds its socket.
func (c *Config) Validate() error {
	for _, sound := range []struct{ label, path string }{
		{"work sound", c.WorkSound},
		{"break sound", c.BreakSound},
	} {
		if sound.path == "" {
			continue
		}
		info, err := os.Stat(sound.path)
		if err != nil {
			return fmt.Errorf("%s: %w", sound.label, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s %s: not a file", sound.label, sound.path)
		}
		f, err := os.Open(sound.path)
		if err != nil {
			return fmt.Errorf("%s: %w", sound.label, err)
		}
		f.Close()
	}

	if c.LogPath != "" {
		dir := filepath.Dir(c.LogPath)
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("log directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("log directory %s: not a directory", dir)
		}
	}

	return nil
}

// Times returns the configured durations as the cycle table triple, used by
// the stale-cache guard.
func (c *Config) Times() [3]int {
	return [3]int{c.WorkTime, c.ShortBreak, c.LongBreak}
}

// PlayPauseIcon picks the icon for the running state; the play icon shows
// when stopped, inviting a click to start.
func (c *Config) PlayPauseIcon(running bool) string {
	if c.NoIcons {
		return ""
	}
	if !running {
		return c.PlayIcon
	}
	return c.PauseIcon
}

// CycleIcon picks the icon for the cycle kind.
func (c *Config) CycleIcon(isBreak bool) string {
	if c.NoWorkIcons {
		return ""
	}
	if !isBreak {
		return c.WorkIcon
	}
	return c.BreakIcon
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
