// Package daemon runs the long-lived timer loop and its control socket.
//
// Two goroutines share the work: a listener that accepts connections and
// reads one frame each, and the tick loop that owns the Timer outright. All
// timer mutation happens on the tick loop, fed by a FIFO message channel, so
// no locking is needed around timer state.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/Dicklesworthstone/pomobar/internal/cache"
	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/notify"
	"github.com/Dicklesworthstone/pomobar/internal/protocol"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
	"github.com/Dicklesworthstone/pomobar/internal/waybar"
)

// TickPeriod is the daemon wake-up interval.
const TickPeriod = time.Duration(timer.TickMillis) * time.Millisecond

// messageBuffer bounds the queue between listener and tick loop. A stalled
// consumer never blocks the listener; overflow frames are dropped with a log.
const messageBuffer = 32

// Options configures a Daemon.
//
// Control frames queue in a bounded buffer between the listener and the tick
// loop, which applies one frame per tick. A burst larger than the buffer is
// dropped with a warning rather than blocking the listener; control clients
// get no delivery guarantee beyond FIFO among accepted frames.
type Options struct {
	Config *config.Config
	// ConfigPath enables live reload of display settings when non-empty.
	ConfigPath string
	SocketPath string
	// Out receives one status snapshot line per tick (normally stdout).
	Out    io.Writer
	Logger *slog.Logger
}

// Daemon owns one Timer and serves its control socket.
type Daemon struct {
	cfg        *config.Config
	cfgPath    string
	state      *timer.Timer
	socketPath string
	out        io.Writer
	logger     *slog.Logger

	messages   chan string
	cfgUpdates chan *config.Config
}

// New assembles a daemon around a fresh timer. The instance number derived
// from the socket name decides whether this daemon fires user notifications;
// persisted state is restored when persistence is on.
func New(opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	cfg := opts.Config
	instance := InstanceFromPath(opts.SocketPath)
	state := timer.New(cfg.WorkTime, cfg.ShortBreak, cfg.LongBreak, instance)
	// Only the first instance fires notifications; extra bars stay silent.
	if instance == 0 {
		state.SetNotifier(notify.New(notifyConfig(cfg), logger))
	}

	if cfg.Persist {
		if err := cache.Restore(state, cfg); err != nil {
			logger.Debug("starting with a fresh timer", "reason", err)
		}
	}

	return &Daemon{
		cfg:        cfg,
		cfgPath:    opts.ConfigPath,
		state:      state,
		socketPath: opts.SocketPath,
		out:        out,
		logger:     logger,
		messages:   make(chan string, messageBuffer),
		cfgUpdates: make(chan *config.Config, 1),
	}
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Desktop:    cfg.Notifications,
		WorkSound:  cfg.WorkSound,
		BreakSound: cfg.BreakSound,
		LogPath:    cfg.LogPath,
	}
}

// Run binds the control socket and drives the tick loop until the context is
// canceled or an exit frame arrives. Bind failure is the only fatal error;
// once running, nothing aborts the loop.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A socket file left by a crashed instance would make the bind fail.
	if err := os.Remove(d.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("binding control socket %s: %w", d.socketPath, err)
	}
	defer os.Remove(d.socketPath)
	defer listener.Close()

	d.logger.Info("control socket bound", "path", d.socketPath, "instance", d.state.InstanceID)

	go d.listen(ctx, listener, cancel)
	if d.cfgPath != "" {
		go d.watchConfig(ctx)
	}

	ticker := time.NewTicker(TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			return nil
		case <-ticker.C:
			d.tick()
		}
	}
}

// listen accepts control connections, one frame per connection. The exit
// signal stops the whole daemon; per-connection errors only abandon that
// connection.
func (d *Daemon) listen(ctx context.Context, listener net.Listener, cancel context.CancelFunc) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			d.logger.Warn("accept failed", "error", err)
			continue
		}

		frame, err := io.ReadAll(conn)
		conn.Close()
		if err != nil {
			d.logger.Warn("connection read failed", "error", err)
			continue
		}

		text := string(frame)
		if protocol.IsExit(text) {
			d.logger.Info("received exit signal")
			cancel()
			return
		}

		select {
		case d.messages <- text:
		default:
			d.logger.Warn("message queue full, dropping frame", "frame", text)
		}
	}
}

// tick is one wake-up of the timer-owning loop: apply at most one queued
// message, emit the status snapshot, advance time and run the transition
// rule, persist. Emitting before advancing keeps the printed snapshot one
// quantum behind the internal clock, which is invisible at this granularity.
func (d *Daemon) tick() {
	select {
	case fresh := <-d.cfgUpdates:
		d.applyReload(fresh)
	default:
	}

	select {
	case frame := <-d.messages:
		ProcessMessage(d.state, frame, d.cfg, d.logger)
	default:
	}

	line, err := waybar.New(d.state, d.cfg).Encode()
	if err != nil {
		d.logger.Warn("snapshot encode failed", "error", err)
	} else {
		fmt.Fprintln(d.out, line)
	}

	if d.state.Running {
		d.state.Tick()
	}
	d.state.UpdateState(d.policy())

	if d.cfg.Persist {
		if err := cache.Store(d.state); err != nil {
			d.logger.Warn("persisting state failed", "error", err)
		}
	}
}

func (d *Daemon) policy() timer.Policy {
	return timer.Policy{AutoWork: d.cfg.AutoWork, AutoBreak: d.cfg.AutoBreak}
}

// applyReload folds a re-read config into the running daemon. Only display
// and side-effect settings apply live; duration changes require a restart,
// since swapping the triple mid-cycle would invalidate both the in-progress
// comparison and the stale-cache guard.
func (d *Daemon) applyReload(fresh *config.Config) {
	d.cfg.PlayIcon = fresh.PlayIcon
	d.cfg.PauseIcon = fresh.PauseIcon
	d.cfg.WorkIcon = fresh.WorkIcon
	d.cfg.BreakIcon = fresh.BreakIcon
	d.cfg.NoIcons = fresh.NoIcons
	d.cfg.NoWorkIcons = fresh.NoWorkIcons
	d.cfg.AutoWork = fresh.AutoWork
	d.cfg.AutoBreak = fresh.AutoBreak
	d.cfg.Notifications = fresh.Notifications
	d.cfg.WorkSound = fresh.WorkSound
	d.cfg.BreakSound = fresh.BreakSound

	if d.state.InstanceID == 0 {
		d.state.SetNotifier(notify.New(notifyConfig(d.cfg), d.logger))
	}
	d.logger.Info("configuration reloaded", "path", d.cfgPath)
}

// ProcessMessage decodes one control frame and dispatches it against the
// timer. Unparseable frames are logged and dropped; daemon state is never
// affected by garbage input.
func ProcessMessage(state *timer.Timer, frame string, cfg *config.Config, logger *slog.Logger) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		logger.Debug("dropping unparseable frame", "frame", frame, "error", err)
		return
	}

	policy := timer.Policy{AutoWork: cfg.AutoWork, AutoBreak: cfg.AutoBreak}

	switch msg.Op {
	case protocol.OpStart:
		state.Running = true
	case protocol.OpStop:
		state.Running = false
	case protocol.OpToggle:
		state.Running = !state.Running
	case protocol.OpReset:
		state.Reset()
	case protocol.OpNextState:
		state.NextState(policy)
	case protocol.OpSetWork:
		applyDuration(state, timer.CycleWork, msg.Time)
	case protocol.OpSetShort:
		applyDuration(state, timer.CycleShortBreak, msg.Time)
	case protocol.OpSetLong:
		applyDuration(state, timer.CycleLongBreak, msg.Time)
	case protocol.OpSetCurrent:
		if msg.Time.Kind == protocol.KindSet {
			state.SetCurrentOverride(int(msg.Time.Minutes))
		} else {
			state.AddCurrentDelta(msg.Time.SignedMinutes())
		}
	}
}

func applyDuration(state *timer.Timer, cycle timer.CycleType, value protocol.TimeValue) {
	if value.Kind == protocol.KindSet {
		state.SetDuration(cycle, int(value.Minutes))
		return
	}
	state.AddDeltaDuration(cycle, value.SignedMinutes())
}
