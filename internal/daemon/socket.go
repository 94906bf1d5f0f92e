package daemon

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	socketPrefix = "pomobar"
	socketSuffix = ".socket"

	dialTimeout = time.Second
)

// RuntimeDir returns the per-user directory holding control sockets,
// creating it if needed. XDG_RUNTIME_DIR is preferred; the system temp
// directory is the fallback for sessions without one.
func RuntimeDir() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "pomobar")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the control socket path for an instance number.
func SocketPath(instance int) (string, error) {
	dir, err := RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s%d%s", socketPrefix, instance, socketSuffix)), nil
}

// ExistingSockets lists the control sockets of running daemons, sorted by
// path so broadcast order is stable.
func ExistingSockets() ([]string, error) {
	dir, err := RuntimeDir()
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, socketPrefix+"*"+socketSuffix))
	if err != nil {
		return nil, fmt.Errorf("scanning runtime dir: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// NextInstance returns the lowest instance number whose socket file does not
// exist yet.
func NextInstance() (int, error) {
	for n := 0; ; n++ {
		path, err := SocketPath(n)
		if err != nil {
			return 0, err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return n, nil
		}
	}
}

// InstanceFromPath recovers the instance number embedded in a socket
// filename by folding its digits. Paths without digits map to instance 0.
func InstanceFromPath(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), socketSuffix)
	instance := 0
	for _, r := range name {
		if r >= '0' && r <= '9' {
			instance = instance*10 + int(r-'0')
		}
	}
	return instance
}

// SendMessage delivers one frame to a daemon socket. One connection, one
// frame, no reply.
func SendMessage(socketPath, frame string) error {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(frame)); err != nil {
		return fmt.Errorf("writing to %s: %w", socketPath, err)
	}
	return nil
}
