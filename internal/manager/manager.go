package manager

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/rs/zerolog"
)

type TrackedCmd struct {
	Cmd    *exec.Cmd
	Cancel context.CancelFunc
}

// AppManager tracks helper processes, restartable watchers and the control
// socket of a running dusk instance.
type AppManager struct {
	mu       sync.Mutex
	cmds     []TrackedCmd
	stops    []chan struct{}
	wg       sync.WaitGroup
	listener net.Listener
	log      zerolog.Logger

	socketPath   string
	restartDelay time.Duration
}

func New(log zerolog.Logger) *AppManager {
	return &AppManager{
		log:          log.With().Str("component", "manager").Logger(),
		socketPath:   SocketPath(),
		restartDelay: 2 * time.Second,
	}
}

func SocketPath() string {
	var baseDir string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		baseDir = runtimeDir
	} else {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, "dusk")
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), "dusk-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

func NewCmd(command string, args ...string) (*exec.Cmd, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, command, args...)
	setProcessGroup(cmd)
	return cmd, cancel
}

// StartTracked launches command and keeps it until StopAll.
func (m *AppManager) StartTracked(command string, args ...string) error {
	cmd, cancel := NewCmd(command, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}

	m.mu.Lock()
	m.cmds = append(m.cmds, TrackedCmd{Cmd: cmd, Cancel: cancel})
	m.mu.Unlock()

	m.log.Debug().Str("cmd", command).Int("pid", cmd.Process.Pid).Msg("started helper process")
	return nil
}

// Serve accepts control connections and forwards their commands onto the
// bridge until StopAll closes the listener.
func (m *AppManager) Serve(tx *bridge.Sender) error {
	_ = os.Remove(m.socketPath)

	listener, err := net.Listen("unix", m.socketPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	m.log.Debug().Str("socket", m.socketPath).Msg("control socket listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}
		go m.handleConnection(conn, tx)
	}
}

func (m *AppManager) handleConnection(conn net.Conn, tx *bridge.Sender) {
	defer conn.Close()

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	command := strings.TrimSpace(string(buf[:n]))

	switch command {
	case "TOGGLE":
		if tx.Send(bridge.ShowHide) {
			_, _ = conn.Write([]byte("OK: toggled"))
		} else {
			_, _ = conn.Write([]byte("ERR: not accepting commands"))
		}
	case "QUIT":
		m.log.Info().Msg("received QUIT via control socket")
		tx.Send(bridge.Quit)
		_, _ = conn.Write([]byte("OK: quitting"))
	case "STATUS":
		_, _ = conn.Write([]byte("OK: running"))
	default:
		_, _ = conn.Write([]byte("ERR: unknown command"))
	}
}

// StartWatcher runs f until StopAll, restarting it after a panic or an early
// return.
func (m *AppManager) StartWatcher(name string, f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.log.Error().Str("watcher", name).Interface("panic", r).Msg("watcher panic")
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(m.restartDelay):
				m.log.Debug().Str("watcher", name).Msg("restarting watcher")
			}
		}
	}()
}

// StopAll stops watchers, the control socket and every tracked process.
func (m *AppManager) StopAll() {
	m.mu.Lock()
	cmds := m.cmds
	stops := m.stops
	listener := m.listener
	m.cmds = nil
	m.stops = nil
	m.listener = nil
	m.mu.Unlock()

	for _, s := range stops {
		close(s)
	}
	if listener != nil {
		_ = listener.Close()
		_ = os.Remove(m.socketPath)
	}

	for _, t := range cmds {
		if t.Cancel != nil {
			t.Cancel()
		}
		if t.Cmd == nil || t.Cmd.Process == nil {
			continue
		}
		killProcessGroup(t.Cmd)
		_ = t.Cmd.Wait()
	}

	m.wg.Wait()
}

func (m *AppManager) ConnectIPC() (net.Conn, error) {
	return net.DialTimeout("unix", m.socketPath, 500*time.Millisecond)
}

func (m *AppManager) SendIPCCommand(cmd string) (string, error) {
	conn, err := m.ConnectIPC()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return string(buf[:n]), nil
}
