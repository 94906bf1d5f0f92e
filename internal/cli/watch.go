package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pomobar/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Full-screen terminal timer view",
		Long: `Open a live terminal view of the timer, fed by the state a daemon
persists each tick. Keybindings mirror the control commands: space
toggles, n skips, r resets, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			program := tea.NewProgram(tui.New(), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("running watch view: %w", err)
			}
			return nil
		},
	}
}
