package daemon

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dicklesworthstone/pomobar/internal/config"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Notifications = false
	cfg.Persist = false
	return cfg
}

func TestProcessMessageCommands(t *testing.T) {
	cfg := testConfig()
	logger := testLogger()

	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, state *timer.Timer)
	}{
		{
			name:  "start",
			frame: "start",
			check: func(t *testing.T, state *timer.Timer) {
				if !state.Running {
					t.Error("timer not running after start")
				}
			},
		},
		{
			name:  "toggle twice returns to stopped",
			frame: "toggle",
			check: func(t *testing.T, state *timer.Timer) {
				if !state.Running {
					t.Fatal("timer not running after first toggle")
				}
				ProcessMessage(state, "toggle", cfg, logger)
				if state.Running {
					t.Error("timer still running after second toggle")
				}
			},
		},
		{
			name:  "set-work replaces duration and resets",
			frame: `{"set-work":{"time":"30"}}`,
			check: func(t *testing.T, state *timer.Timer) {
				if state.Times[0] != 30*60 {
					t.Errorf("work time = %d, want %d", state.Times[0], 30*60)
				}
				if state.Running || state.ElapsedTime != 0 {
					t.Error("set did not reset the timer")
				}
			},
		},
		{
			name:  "set-short delta adds without reset",
			frame: `{"set-short":{"time":"+2"}}`,
			check: func(t *testing.T, state *timer.Timer) {
				want := testConfig().ShortBreak + 2*60
				if state.Times[1] != want {
					t.Errorf("short break = %d, want %d", state.Times[1], want)
				}
			},
		},
		{
			name:  "set-current installs an override",
			frame: `{"set-current":{"time":"3"}}`,
			check: func(t *testing.T, state *timer.Timer) {
				if got := state.EffectiveDuration(); got != 3*60 {
					t.Errorf("effective duration = %d, want %d", got, 3*60)
				}
				if state.Times != testConfig().Times() {
					t.Error("override leaked into base durations")
				}
			},
		},
		{
			name:  "garbage frame is ignored",
			frame: `{"set-work":{"time":"+5+"}}`,
			check: func(t *testing.T, state *timer.Timer) {
				if state.Times != testConfig().Times() {
					t.Error("invalid frame mutated durations")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := timer.New(cfg.WorkTime, cfg.ShortBreak, cfg.LongBreak, 0)
			ProcessMessage(state, tt.frame, cfg, logger)
			tt.check(t, state)
		})
	}
}

func TestProcessMessageResetKeepsCompletedCount(t *testing.T) {
	cfg := testConfig()
	state := timer.New(60, 30, 90, 0)
	state.SessionCompleted = 3
	state.Running = true
	state.ElapsedTime = 10

	ProcessMessage(state, "reset", cfg, testLogger())

	if state.Running || state.ElapsedTime != 0 {
		t.Error("reset left the timer running")
	}
	if state.SessionCompleted != 3 {
		t.Errorf("SessionCompleted = %d, want 3", state.SessionCompleted)
	}
}

func TestProcessMessageNextState(t *testing.T) {
	cfg := testConfig()
	state := timer.New(60, 30, 90, 0)

	ProcessMessage(state, "next-state", cfg, testLogger())

	if !state.IsBreak() {
		t.Error("next-state from work did not land on a break")
	}
}

// syncBuffer lets the test read daemon output while the tick loop writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDaemonRunLifecycle(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	socket, err := SocketPath(1)
	if err != nil {
		t.Fatal(err)
	}

	out := &syncBuffer{}
	d := New(Options{
		Config:     testConfig(),
		SocketPath: socket,
		Out:        out,
		Logger:     testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		err := SendMessage(socket, "start")
		return err == nil
	}, "control socket never became reachable")

	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(out.String(), `"class":"work"`)
	}, "daemon never reported a running work cycle")

	if err := SendMessage(socket, "exit"); err != nil {
		t.Fatalf("sending exit: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not shut down on exit frame")
	}

	if !d.state.Running {
		t.Error("start frame never reached the timer")
	}
}

func TestListenerDropsOverflowWithoutBlocking(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	socket, err := SocketPath(0)
	if err != nil {
		t.Fatal(err)
	}

	d := New(Options{
		Config:     testConfig(),
		SocketPath: socket,
		Out:        io.Discard,
		Logger:     testLogger(),
	})

	listener, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.listen(ctx, listener, cancel)
		close(done)
	}()

	// Nothing consumes d.messages here, so everything past the buffer must
	// be dropped instead of wedging the accept loop.
	for i := 0; i < messageBuffer+8; i++ {
		if err := SendMessage(socket, "toggle"); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(d.messages) == messageBuffer
	}, "queue never filled to capacity")

	// A live listener still reacts to the exit frame after the overflow.
	if err := SendMessage(socket, "exit"); err != nil {
		t.Fatalf("sending exit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener blocked instead of dropping overflow frames")
	}

	if got := len(d.messages); got != messageBuffer {
		t.Errorf("queued frames = %d, want %d", got, messageBuffer)
	}
}

func TestDaemonRunBindFailure(t *testing.T) {
	d := New(Options{
		Config:     testConfig(),
		SocketPath: filepath.Join(t.TempDir(), "missing", "pomobar0.socket"),
		Logger:     testLogger(),
		Out:        io.Discard,
	})
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected bind failure for unreachable socket path")
	}
}
