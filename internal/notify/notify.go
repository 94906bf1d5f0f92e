// Package notify delivers the user-visible side effects of cycle transitions:
// desktop notifications, an end-of-cycle sound, and an optional log line.
// Delivery is best effort; failures are logged and never reach the timer.
package notify

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/Dicklesworthstone/pomobar/internal/timer"
)

// Config selects the enabled channels.
type Config struct {
	// Desktop enables desktop notifications (notify-send / osascript).
	Desktop bool
	// WorkSound and BreakSound are audio files played when the matching
	// cycle kind ends. Empty means silence.
	WorkSound  string
	BreakSound string
	// LogPath appends a line per transition when set.
	LogPath string
}

// Notifier fans a transition out to the enabled channels. It satisfies the
// timer engine's notifier interface.
type Notifier struct {
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex // guards the transition log file
}

// New creates a Notifier. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cfg: cfg, logger: logger}
}

// CycleStarted announces the beginning of a cycle.
func (n *Notifier) CycleStarted(cycle timer.CycleType) {
	if n.cfg.Desktop {
		if err := sendDesktop("Pomodoro", body(cycle)); err != nil {
			n.logger.Warn("desktop notification failed", "error", err)
		}
	}

	// The end of a work cycle plays the work sound; both break kinds share
	// the break sound.
	sound := n.cfg.BreakSound
	if cycle == timer.CycleWork {
		sound = n.cfg.WorkSound
	}
	n.playSound(sound)

	if n.cfg.LogPath != "" {
		if err := n.appendLog(cycle); err != nil {
			n.logger.Warn("transition log failed", "error", err)
		}
	}
}

func body(cycle timer.CycleType) string {
	switch cycle {
	case timer.CycleShortBreak:
		return "Time for a short break!"
	case timer.CycleLongBreak:
		return "Time for a long break!"
	default:
		return "Time to work!"
	}
}

func sendDesktop(title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			return fmt.Errorf("notify-send not found")
		}
		return exec.Command("notify-send", title, message).Run()
	default:
		return fmt.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}
}

// players are tried in order until one is on PATH.
var players = [][]string{
	{"paplay"},
	{"pw-play"},
	{"aplay", "-q"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// playSound plays the file through the first available command-line player,
// off the caller's goroutine so a long sample never delays a tick.
func (n *Notifier) playSound(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		n.logger.Warn("sound file not found", "path", path)
		return
	}

	var argv []string
	for _, candidate := range players {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			argv = append(append([]string{}, candidate...), path)
			break
		}
	}
	if argv == nil {
		n.logger.Warn("no audio player found on PATH")
		return
	}

	go func() {
		if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
			n.logger.Warn("sound playback failed", "player", argv[0], "error", err)
		}
	}()
}

func (n *Notifier) appendLog(cycle timer.CycleType) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	f, err := os.OpenFile(n.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), cycle)
	return err
}
