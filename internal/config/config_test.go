package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.WorkTime != 25*Minute {
		t.Errorf("WorkTime = %d, want %d", cfg.WorkTime, 25*Minute)
	}
	if cfg.ShortBreak != 5*Minute {
		t.Errorf("ShortBreak = %d, want %d", cfg.ShortBreak, 5*Minute)
	}
	if cfg.LongBreak != 15*Minute {
		t.Errorf("LongBreak = %d, want %d", cfg.LongBreak, 15*Minute)
	}
	if cfg.AutoWork || cfg.AutoBreak || cfg.Persist || cfg.Notifications {
		t.Error("behavior toggles should default to off")
	}
	if cfg.PlayIcon == "" || cfg.PauseIcon == "" {
		t.Error("default icons should be set")
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
work = 30
short_break = 10
auto_break = true
persist = true

[icons]
play = ">"
pause = "||"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkTime != 30*Minute {
		t.Errorf("WorkTime = %d, want %d", cfg.WorkTime, 30*Minute)
	}
	if cfg.ShortBreak != 10*Minute {
		t.Errorf("ShortBreak = %d, want %d", cfg.ShortBreak, 10*Minute)
	}
	if cfg.LongBreak != 15*Minute {
		t.Errorf("LongBreak = %d, want default %d", cfg.LongBreak, 15*Minute)
	}
	if !cfg.AutoBreak || cfg.AutoWork {
		t.Errorf("auto flags: work=%v break=%v", cfg.AutoWork, cfg.AutoBreak)
	}
	if !cfg.Persist {
		t.Error("Persist should be true")
	}
	if cfg.PlayIcon != ">" || cfg.PauseIcon != "||" {
		t.Errorf("icons = %q/%q", cfg.PlayIcon, cfg.PauseIcon)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
work: 45
notifications: true
icons:
  none: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkTime != 45*Minute {
		t.Errorf("WorkTime = %d, want %d", cfg.WorkTime, 45*Minute)
	}
	if !cfg.Notifications {
		t.Error("Notifications should be true")
	}
	if !cfg.NoIcons {
		t.Error("NoIcons should be true")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkTime != 25*Minute {
		t.Errorf("WorkTime = %d, want default", cfg.WorkTime)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("work = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POMOBAR_WORK", "50")
	t.Setenv("POMOBAR_PERSIST", "1")
	t.Setenv("POMOBAR_AUTO_BREAK", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkTime != 50*Minute {
		t.Errorf("WorkTime = %d, want %d", cfg.WorkTime, 50*Minute)
	}
	if !cfg.Persist {
		t.Error("Persist should be true")
	}
	if !cfg.AutoBreak {
		t.Error("AutoBreak should be true")
	}
}

func TestValidateSoundPath(t *testing.T) {
	cfg := Default()
	cfg.WorkSound = filepath.Join(t.TempDir(), "missing.wav")
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for a missing sound file")
	}

	sound := filepath.Join(t.TempDir(), "ding.wav")
	if err := os.WriteFile(sound, []byte("riff"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.WorkSound = sound
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateLogDir(t *testing.T) {
	cfg := Default()
	cfg.LogPath = filepath.Join(t.TempDir(), "nope", "daemon.log")
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for a missing log directory")
	}

	cfg.LogPath = filepath.Join(t.TempDir(), "daemon.log")
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestIconHelpers(t *testing.T) {
	cfg := Default()

	if got := cfg.PlayPauseIcon(false); got != cfg.PlayIcon {
		t.Errorf("PlayPauseIcon(false) = %q, want play icon", got)
	}
	if got := cfg.PlayPauseIcon(true); got != cfg.PauseIcon {
		t.Errorf("PlayPauseIcon(true) = %q, want pause icon", got)
	}
	if got := cfg.CycleIcon(false); got != cfg.WorkIcon {
		t.Errorf("CycleIcon(false) = %q, want work icon", got)
	}
	if got := cfg.CycleIcon(true); got != cfg.BreakIcon {
		t.Errorf("CycleIcon(true) = %q, want break icon", got)
	}

	cfg.NoIcons = true
	cfg.NoWorkIcons = true
	if cfg.PlayPauseIcon(true) != "" || cfg.CycleIcon(true) != "" {
		t.Error("disabled icons should render empty")
	}
}

func TestTimes(t *testing.T) {
	cfg := Default()
	want := [3]int{25 * Minute, 5 * Minute, 15 * Minute}
	if cfg.Times() != want {
		t.Errorf("Times() = %v, want %v", cfg.Times(), want)
	}
}
