// Package cache persists timer state across daemon restarts. The state file
// lives in the user cache directory, keyed by program name and version so an
// old binary's schema never collides with a new one. Every error here is
// non-fatal to callers: a timer that cannot be restored simply starts fresh.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
	"github.com/Dicklesworthstone/pomobar/internal/version"
)

const program = "pomobar"

// Path returns the state file location, creating its directory.
func Path() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	dir := filepath.Join(base, program)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", program, version.Version)), nil
}

// Store writes the timer to the state file. The current override is
// deliberately absent: it is scoped to one cycle of one process lifetime.
func Store(state *timer.Timer) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return storeTo(state, path)
}

func storeTo(state *timer.Timer, path string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding timer state: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Restore loads persisted progress into state, but only when the persisted
// duration triple matches the currently configured one. A mismatch means the
// file was written under a different configuration and is stale; state is
// left untouched.
func Restore(state *timer.Timer, cfg *config.Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return restoreFrom(state, cfg, path)
}

func restoreFrom(state *timer.Timer, cfg *config.Config, path string) error {
	restored, err := loadFrom(path)
	if err != nil {
		return err
	}

	if restored.Times != cfg.Times() {
		return nil
	}

	state.CurrentIndex = restored.CurrentIndex
	state.ElapsedMillis = restored.ElapsedMillis
	state.ElapsedTime = restored.ElapsedTime
	state.Times = restored.Times
	state.Iterations = restored.Iterations
	state.SessionCompleted = restored.SessionCompleted
	state.Running = restored.Running
	return nil
}

// Load reads the raw persisted timer without the stale-config guard. The
// status and watch commands use it to mirror whatever a persisting daemon
// last wrote.
func Load() (*timer.Timer, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*timer.Timer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var restored timer.Timer
	if err := json.Unmarshal(data, &restored); err != nil {
		return nil, fmt.Errorf("decoding timer state: %w", err)
	}
	return &restored, nil
}
