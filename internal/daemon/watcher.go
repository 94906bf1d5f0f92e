package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Dicklesworthstone/pomobar/internal/config"
)

// reloadDebounce coalesces the burst of filesystem events an editor save
// tends to produce into a single reload.
const reloadDebounce = 250 * time.Millisecond

// watchConfig re-reads the config file on change and hands the result to the
// tick loop. Watching the parent directory instead of the file itself
// survives the rename-and-replace dance editors do on save.
func (d *Daemon) watchConfig(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Warn("config watch unavailable", "error", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(d.cfgPath)
	if err := watcher.Add(dir); err != nil {
		d.logger.Warn("config watch unavailable", "dir", dir, "error", err)
		return
	}
	d.logger.Info("watching config for changes", "path", d.cfgPath)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		var fire <-chan time.Time
		if debounce != nil {
			fire = debounce.C
		}

		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != d.cfgPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
			} else {
				debounce.Reset(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("config watch error", "error", err)
		case <-fire:
			debounce = nil
			d.reloadConfig()
		}
	}
}

func (d *Daemon) reloadConfig() {
	fresh, err := config.Load(d.cfgPath)
	if err != nil {
		d.logger.Warn("config reload failed, keeping previous settings", "error", err)
		return
	}
	if err := fresh.Validate(); err != nil {
		d.logger.Warn("reloaded config invalid, keeping previous settings", "error", err)
		return
	}

	// Replace any update the tick loop has not consumed yet.
	select {
	case <-d.cfgUpdates:
	default:
	}
	d.cfgUpdates <- fresh
}
