package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSocketPathPrecedence(t *testing.T) {
	t.Setenv("GLOSA_RUNTIME_DIR", "/run/glosa")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	require.Equal(t, "/run/glosa/glosa.sock", SocketPath())

	t.Setenv("GLOSA_RUNTIME_DIR", "")
	require.Equal(t, "/run/user/1000/glosa.sock", SocketPath())

	t.Setenv("XDG_RUNTIME_DIR", "")
	require.Equal(t, filepath.Join(os.TempDir(), "glosa.sock"), SocketPath())
}

func TestAcquireFreshSocket(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glosa.sock")

	listener, err := Acquire(context.Background(), path, 100*time.Millisecond, 1)
	require.NoError(t, err)
	defer listener.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestAcquireRecoversStaleSocket(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glosa.sock")

	// Leave a socket file behind with no listener, as an unclean
	// shutdown would.
	stale, err := net.Listen("unix", path)
	require.NoError(t, err)
	require.NoError(t, stale.Close())
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	listener, err := Acquire(context.Background(), path, 100*time.Millisecond, 2)
	require.NoError(t, err)
	defer listener.Close()
}

func TestAcquireRefusesWhenAlreadyRunning(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glosa.sock")

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(_ context.Context, _ Request) Response {
			return Response{OK: true, State: "idle"}
		}))
	}()

	_, err = Acquire(context.Background(), path, time.Second, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
