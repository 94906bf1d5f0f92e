package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/pomobar/internal/cache"
	"github.com/Dicklesworthstone/pomobar/internal/daemon"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
	"github.com/Dicklesworthstone/pomobar/internal/waybar"
)

var (
	statusLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusWarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted timer state",
		Long: `Show the most recently persisted timer state. The daemon must run
with --persist for this to have anything to report.

Examples:
  pomobar status           # Human-readable summary
  pomobar status --json    # The same JSON record the daemon prints`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the status bar JSON record")
	return cmd
}

func runStatus(cmd *cobra.Command, jsonOut bool) error {
	// Non-terminal output drops the styling so scripts see plain text.
	if !isatty.IsTerminal(os.Stdout.Fd()) || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	state, err := cache.Load()
	if err != nil {
		return fmt.Errorf("no persisted timer state (is a daemon running with --persist?): %w", err)
	}

	if jsonOut {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		line, err := waybar.New(state, cfg).Encode()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	}

	cycle, err := timer.CycleFromIndex(state.CurrentIndex)
	if err != nil {
		return err
	}

	running := statusWarnStyle.Render("paused")
	if state.Running {
		running = statusLabelStyle.Render("running")
	}

	sockets, _ := daemon.ExistingSockets()

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	var b strings.Builder
	row(&b, "Cycle", fmt.Sprintf("%s (%s)", cycle, running))
	row(&b, "Remaining", waybar.FormatTime(state.Remaining()))
	row(&b, "Elapsed", waybar.FormatTime(state.ElapsedTime))
	row(&b, "Round", fmt.Sprintf("%d/%d", displayRound(state), timer.MaxIterations))
	row(&b, "Sessions", waybar.Tooltip(state.SessionCompleted))
	row(&b, "Daemons", fmt.Sprintf("%d", len(sockets)))

	fmt.Fprint(cmd.OutOrStdout(), wordwrap.String(b.String(), width))
	return nil
}

// row prints an aligned label/value pair; alignment accounts for wide runes
// in icon-heavy labels.
func row(b *strings.Builder, label, value string) {
	const labelWidth = 10
	pad := labelWidth - runewidth.StringWidth(label)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(b, "%s%s %s\n", statusDimStyle.Render(label), strings.Repeat(" ", pad), value)
}

func displayRound(state *timer.Timer) int {
	round := state.Iterations + 1
	if round > timer.MaxIterations {
		round = timer.MaxIterations
	}
	return round
}
