package cli

import (
	"bytes"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dicklesworthstone/pomobar/internal/cache"
	"github.com/Dicklesworthstone/pomobar/internal/daemon"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
)

// fakeDaemon listens on a pomobar socket and records every frame it is sent.
type fakeDaemon struct {
	mu     sync.Mutex
	frames []string
}

func (f *fakeDaemon) listen(t *testing.T, path string) {
	t.Helper()
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			data, _ := io.ReadAll(conn)
			conn.Close()
			f.mu.Lock()
			f.frames = append(f.frames, string(data))
			f.mu.Unlock()
		}
	}()
}

func (f *fakeDaemon) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

func waitForFrames(t *testing.T, f *fakeDaemon, n int) []string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if frames := f.received(); len(frames) >= n {
			return frames
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("daemon received %d frames, want %d", len(f.received()), n)
	return nil
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func TestControlCommandsSendKeywordFrames(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	fake := &fakeDaemon{}
	path, err := daemon.SocketPath(0)
	if err != nil {
		t.Fatal(err)
	}
	fake.listen(t, path)

	if err := runCommand(t, "toggle"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	frames := waitForFrames(t, fake, 1)
	if frames[0] != `"toggle"` {
		t.Errorf("frame = %q, want %q", frames[0], `"toggle"`)
	}
}

func TestSetCommandSendsTaggedFrame(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	fake := &fakeDaemon{}
	path, err := daemon.SocketPath(0)
	if err != nil {
		t.Fatal(err)
	}
	fake.listen(t, path)

	if err := runCommand(t, "set", "work", "+5"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	frames := waitForFrames(t, fake, 1)
	want := `{"set-work":{"time":"+5"}}`
	if frames[0] != want {
		t.Errorf("frame = %q, want %q", frames[0], want)
	}
}

func TestSetCommandRejectsBadInput(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := runCommand(t, "set", "weekend", "5"); err == nil {
		t.Error("unknown target accepted")
	}
	if err := runCommand(t, "set", "work", "+5+"); err == nil {
		t.Error("double-signed time accepted")
	}
}

func TestControlCommandWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := runCommand(t, "start"); err == nil {
		t.Error("expected error with no daemon running")
	}
}

func TestInstanceFilter(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	zero, one := &fakeDaemon{}, &fakeDaemon{}
	for instance, fake := range map[int]*fakeDaemon{0: zero, 1: one} {
		path, err := daemon.SocketPath(instance)
		if err != nil {
			t.Fatal(err)
		}
		fake.listen(t, path)
	}

	if err := runCommand(t, "stop", "--instance", "1"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	waitForFrames(t, one, 1)
	if frames := zero.received(); len(frames) != 0 {
		t.Errorf("instance 0 received %v despite filter", frames)
	}

	// Reset the shared flag for later tests.
	controlInstance = -1
}

func TestStatusJSONReflectsPersistedState(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	state := timer.New(25*60, 5*60, 15*60, 0)
	state.Running = true
	state.ElapsedTime = 5 * 60
	if err := cache.Store(state); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetArgs([]string{"status", "--json"})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("status --json failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, `"class":"work"`) {
		t.Errorf("output missing class: %q", got)
	}
	if !strings.Contains(got, "20:00") {
		t.Errorf("output missing remaining time: %q", got)
	}
}

func TestStatusWithoutState(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if err := runCommand(t, "status"); err == nil {
		t.Error("expected error with no persisted state")
	}
}
