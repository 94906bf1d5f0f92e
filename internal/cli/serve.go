package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/daemon"
)

type serveOptions struct {
	Work       int
	ShortBreak int
	LongBreak  int

	PlayIcon    string
	PauseIcon   string
	WorkIcon    string
	BreakIcon   string
	NoIcons     bool
	NoWorkIcons bool

	AutoWork      bool
	AutoBreak     bool
	Persist       bool
	Notifications bool

	WorkSound  string
	BreakSound string
	LogFile    string

	Instance int
	NoReload bool
	Verbose  bool
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{Instance: -1}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timer daemon",
		Long: `Run the timer daemon. It prints one JSON status line per tick on
stdout for a status bar module to consume, and listens for control
commands on a per-instance unix socket under $XDG_RUNTIME_DIR/pomobar.

Examples:
  pomobar serve                          # Defaults: 25/5/15 minutes
  pomobar serve -w 50 -s 10 -l 30        # Custom durations
  pomobar serve --autob --persist        # Breaks start on their own, state survives restarts
  pomobar serve --with-notifications --work-sound ~/ding.ogg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.Work, "work", "w", 25, "work cycle length in minutes")
	flags.IntVarP(&opts.ShortBreak, "shortbreak", "s", 5, "short break length in minutes")
	flags.IntVarP(&opts.LongBreak, "longbreak", "l", 15, "long break length in minutes")

	flags.StringVar(&opts.PlayIcon, "play", "", "icon shown while paused")
	flags.StringVar(&opts.PauseIcon, "pause", "", "icon shown while running")
	flags.StringVar(&opts.WorkIcon, "work-icon", "", "icon for work cycles")
	flags.StringVar(&opts.BreakIcon, "break-icon", "", "icon for break cycles")
	flags.BoolVar(&opts.NoIcons, "no-icons", false, "disable all icons")
	flags.BoolVar(&opts.NoWorkIcons, "no-work-icons", false, "disable the cycle icon")

	flags.BoolVar(&opts.AutoWork, "autow", false, "start work cycles automatically")
	flags.BoolVar(&opts.AutoBreak, "autob", false, "start break cycles automatically")
	flags.BoolVar(&opts.Persist, "persist", false, "persist timer state across restarts")
	flags.BoolVar(&opts.Notifications, "with-notifications", false, "send desktop notifications on transitions")

	flags.StringVar(&opts.WorkSound, "work-sound", "", "audio file played when a work cycle ends")
	flags.StringVar(&opts.BreakSound, "break-sound", "", "audio file played when a break ends")
	flags.StringVar(&opts.LogFile, "log", "", "append a line per transition to this file")

	flags.IntVar(&opts.Instance, "instance", -1, "instance number (default: first free)")
	flags.BoolVar(&opts.NoReload, "no-reload", false, "disable live config reload")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	// stdout belongs to the status bar; everything else goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	instance := opts.Instance
	if instance < 0 {
		instance, err = daemon.NextInstance()
		if err != nil {
			return err
		}
	}
	socket, err := daemon.SocketPath(instance)
	if err != nil {
		return err
	}

	watchPath := cfgPath
	if opts.NoReload {
		watchPath = ""
	}

	d := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: watchPath,
		SocketPath: socket,
		Out:        os.Stdout,
		Logger:     logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()
	ignoreRTSignals()

	return d.Run(ctx)
}

// applyServeFlags overlays flags the user actually set onto the file/env
// config, so a config file value survives unless overridden on the line.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOptions) {
	flags := cmd.Flags()

	if flags.Changed("work") {
		cfg.WorkTime = opts.Work * config.Minute
	}
	if flags.Changed("shortbreak") {
		cfg.ShortBreak = opts.ShortBreak * config.Minute
	}
	if flags.Changed("longbreak") {
		cfg.LongBreak = opts.LongBreak * config.Minute
	}

	if flags.Changed("play") {
		cfg.PlayIcon = opts.PlayIcon
	}
	if flags.Changed("pause") {
		cfg.PauseIcon = opts.PauseIcon
	}
	if flags.Changed("work-icon") {
		cfg.WorkIcon = opts.WorkIcon
	}
	if flags.Changed("break-icon") {
		cfg.BreakIcon = opts.BreakIcon
	}
	cfg.NoIcons = cfg.NoIcons || opts.NoIcons
	cfg.NoWorkIcons = cfg.NoWorkIcons || opts.NoWorkIcons

	cfg.AutoWork = cfg.AutoWork || opts.AutoWork
	cfg.AutoBreak = cfg.AutoBreak || opts.AutoBreak
	cfg.Persist = cfg.Persist || opts.Persist
	cfg.Notifications = cfg.Notifications || opts.Notifications

	if flags.Changed("work-sound") {
		cfg.WorkSound = config.ExpandHome(opts.WorkSound)
	}
	if flags.Changed("break-sound") {
		cfg.BreakSound = config.ExpandHome(opts.BreakSound)
	}
	if flags.Changed("log") {
		cfg.LogPath = config.ExpandHome(opts.LogFile)
	}
}

// ignoreRTSignals keeps realtime signals from killing the daemon. Status
// bars commonly deliver SIGRTMIN+n to refresh modules; the daemon refreshes
// every tick anyway.
func ignoreRTSignals() {
	for n := 34; n <= 64; n++ {
		signal.Ignore(syscall.Signal(n))
	}
}
