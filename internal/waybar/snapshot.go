// Package waybar renders the timer as the JSON record status bar modules
// consume: one line per tick on the daemon's stdout.
package waybar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
)

const (
	hour   = 3600
	minute = 60
)

// Snapshot is the status record: Text is the visible label, Tooltip the hover
// text, Class the CSS class, Alt mirroring Class for icon selection.
type Snapshot struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
	Alt     string `json:"alt"`
}

// New builds the snapshot for the timer's current state.
func New(state *timer.Timer, cfg *config.Config) Snapshot {
	text := strings.Join(strings.Fields(fmt.Sprintf("%s %s %s",
		cfg.PlayPauseIcon(state.Running),
		FormatTime(state.Remaining()),
		cfg.CycleIcon(state.IsBreak()),
	)), " ")

	class := state.Class()
	return Snapshot{
		Text:    text,
		Tooltip: Tooltip(state.SessionCompleted),
		Class:   class,
		Alt:     class,
	}
}

// Encode renders the snapshot as a single JSON line.
func (s Snapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(data), nil
}

// FormatTime renders remaining seconds as mm:ss, or hh:mm:ss from one hour.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / hour
	m := (seconds % hour) / minute
	s := seconds % minute
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Tooltip renders the completed-session count, pluralized for zero and for
// anything above one.
func Tooltip(completed int) string {
	plural := "s"
	if completed == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d pomodoro%s completed this session", completed, plural)
}
