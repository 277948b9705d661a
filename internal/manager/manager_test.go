package manager

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *AppManager {
	t.Helper()
	m := New(zerolog.Nop())
	m.socketPath = filepath.Join(t.TempDir(), "s.sock")
	m.restartDelay = 10 * time.Millisecond
	return m
}

func waitForSocket(t *testing.T, m *AppManager) {
	t.Helper()
	require.Eventually(t, func() bool {
		conn, err := m.ConnectIPC()
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestControlSocketForwardsCommands(t *testing.T) {
	m := newTestManager(t)
	tx, rx := bridge.New()

	done := make(chan error, 1)
	go func() { done <- m.Serve(tx) }()
	waitForSocket(t, m)

	reply, err := m.SendIPCCommand("STATUS")
	require.NoError(t, err)
	assert.Equal(t, "OK: running", reply)

	reply, err = m.SendIPCCommand("TOGGLE")
	require.NoError(t, err)
	assert.Equal(t, "OK: toggled", reply)

	reply, err = m.SendIPCCommand("QUIT")
	require.NoError(t, err)
	assert.Equal(t, "OK: quitting", reply)

	reply, err = m.SendIPCCommand("DANCE")
	require.NoError(t, err)
	assert.Equal(t, "ERR: unknown command", reply)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, bridge.ShowHide, e)
	e, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, bridge.Quit, e)

	m.StopAll()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after StopAll")
	}

	_, err = m.ConnectIPC()
	assert.Error(t, err)
}

func TestToggleAfterBridgeClosed(t *testing.T) {
	m := newTestManager(t)
	tx, _ := bridge.New()
	tx.Close()

	go func() { _ = m.Serve(tx) }()
	waitForSocket(t, m)
	defer m.StopAll()

	reply, err := m.SendIPCCommand("TOGGLE")
	require.NoError(t, err)
	assert.Equal(t, "ERR: not accepting commands", reply)
}

func TestWatcherRestartsAfterPanic(t *testing.T) {
	m := newTestManager(t)
	var runs atomic.Int32

	m.StartWatcher("flaky", func(stop <-chan struct{}) {
		if runs.Add(1) < 3 {
			panic("lost netlink socket")
		}
		<-stop
	})

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	m.StopAll()
	assert.Equal(t, int32(3), runs.Load())
}
