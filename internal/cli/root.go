// Package cli wires the pomobar commands: the long-running daemon under
// serve, thin control commands that talk to it over its socket, and the
// read-only status and watch views.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pomobar",
	Short: "Pomodoro timer daemon for status bars",
	Long: `Pomobar runs a pomodoro timer as a small daemon that prints one JSON
status line per tick for status bar modules, and accepts control
commands over a per-instance unix socket.

Quick Start:
  pomobar serve --persist          # Run the timer daemon
  pomobar toggle                   # Start/pause from a keybinding
  pomobar set work +5              # Add five minutes to the work cycle
  pomobar watch                    # Full-screen terminal view`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/pomobar/config.toml)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("pomobar %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.Date))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newControlCmds()...)
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWatchCmd())
}

// loadConfig resolves the effective configuration: built-in defaults, then
// the config file, then POMOBAR_* environment variables.
func loadConfig() (*config.Config, string, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
