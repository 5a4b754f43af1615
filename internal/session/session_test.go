package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imartinez/glosa/internal/fsm"
)

// hookRecorder counts hook invocations and can fail on demand.
type hookRecorder struct {
	connects    int
	disconnects int
	starts      int
	stops       int

	connectErr error
	startErr   error
}

func (h *hookRecorder) hooks() Hooks {
	return Hooks{
		Connect: func(_ context.Context, _ string) error {
			h.connects++
			return h.connectErr
		},
		Disconnect: func(_ context.Context) error {
			h.disconnects++
			return nil
		},
		StartRecording: func(_ context.Context) error {
			h.starts++
			return h.startErr
		},
		StopRecording: func(_ context.Context) error {
			h.stops++
			return nil
		},
	}
}

func TestControllerLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &hookRecorder{}
	c := NewController("guild-1", nil, rec.hooks())

	require.Equal(t, fsm.StateDetached, c.State())

	require.NoError(t, c.Join(ctx, "voice-1"))
	require.Equal(t, fsm.StateConnected, c.State())
	require.Equal(t, 1, rec.connects)

	require.NoError(t, c.Start(ctx))
	require.Equal(t, fsm.StateRecording, c.State())
	require.Equal(t, 1, rec.starts)

	require.NoError(t, c.Stop(ctx))
	require.Equal(t, fsm.StateConnected, c.State())
	require.Equal(t, 1, rec.stops)

	require.NoError(t, c.Leave(ctx))
	require.Equal(t, fsm.StateDetached, c.State())
	require.Equal(t, 1, rec.disconnects)
}

func TestControllerJoinWhileConnectedMovesChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &hookRecorder{}
	c := NewController("guild-1", nil, rec.hooks())

	require.NoError(t, c.Join(ctx, "voice-1"))
	require.NoError(t, c.Join(ctx, "voice-2"))
	require.Equal(t, fsm.StateConnected, c.State())
	require.Equal(t, 2, rec.connects)
}

func TestControllerSentinelErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("start before join", func(t *testing.T) {
		c := NewController("g", nil, Hooks{})
		require.ErrorIs(t, c.Start(ctx), ErrNotConnected)
	})

	t.Run("stop before join", func(t *testing.T) {
		c := NewController("g", nil, Hooks{})
		require.ErrorIs(t, c.Stop(ctx), ErrNotConnected)
	})

	t.Run("leave before join", func(t *testing.T) {
		c := NewController("g", nil, Hooks{})
		require.ErrorIs(t, c.Leave(ctx), ErrNotConnected)
	})

	t.Run("double start", func(t *testing.T) {
		c := NewController("g", nil, Hooks{})
		require.NoError(t, c.Join(ctx, "voice-1"))
		require.NoError(t, c.Start(ctx))
		require.ErrorIs(t, c.Start(ctx), ErrAlreadyRecording)
	})

	t.Run("stop without recording", func(t *testing.T) {
		c := NewController("g", nil, Hooks{})
		require.NoError(t, c.Join(ctx, "voice-1"))
		require.ErrorIs(t, c.Stop(ctx), ErrNotRecording)
	})
}

func TestControllerLeaveWhileRecordingStopsFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &hookRecorder{}
	c := NewController("guild-1", nil, rec.hooks())

	require.NoError(t, c.Join(ctx, "voice-1"))
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Leave(ctx))

	require.Equal(t, 1, rec.stops)
	require.Equal(t, 1, rec.disconnects)
	require.Equal(t, fsm.StateDetached, c.State())
}

func TestControllerHookFailureParksInError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	rec := &hookRecorder{connectErr: errors.New("gateway refused")}
	c := NewController("guild-1", nil, rec.hooks())

	err := c.Join(ctx, "voice-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "gateway refused")
	require.Equal(t, fsm.StateError, c.State())

	// The failure is observable through the registry until recovery.
	r := NewRegistry()
	r.Put("guild-1", c)
	require.Equal(t, map[string]string{"guild-1": "error"}, r.States())

	// Commands other than join surface the not-connected sentinel.
	require.ErrorIs(t, c.Start(ctx), ErrNotConnected)
	require.ErrorIs(t, c.Stop(ctx), ErrNotConnected)
	require.ErrorIs(t, c.Leave(ctx), ErrNotConnected)
	require.Equal(t, fsm.StateError, c.State())

	// Join resets the failed session and retries the connection.
	rec.connectErr = nil
	require.NoError(t, c.Join(ctx, "voice-1"))
	require.Equal(t, fsm.StateConnected, c.State())
}

func TestControllerStartFailureParksInError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &hookRecorder{startErr: errors.New("no receiver")}
	c := NewController("guild-1", nil, rec.hooks())

	require.NoError(t, c.Join(ctx, "voice-1"))
	require.Error(t, c.Start(ctx))
	require.Equal(t, fsm.StateError, c.State())

	require.NoError(t, c.Join(ctx, "voice-1"))
	require.Equal(t, fsm.StateConnected, c.State())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	_, ok := r.Get("g1")
	require.False(t, ok)
	require.Equal(t, "idle", r.Summary())

	c1 := NewController("g1", nil, Hooks{})
	c2 := NewController("g2", nil, Hooks{})
	r.Put("g1", c1)
	r.Put("g2", c2)

	got, ok := r.Get("g1")
	require.True(t, ok)
	require.Same(t, c1, got)

	require.NoError(t, c2.Join(context.Background(), "voice"))
	require.NoError(t, c2.Start(context.Background()))

	states := r.States()
	require.Equal(t, map[string]string{
		"g1": "detached",
		"g2": "recording",
	}, states)
	require.Equal(t, "2 guild session(s), 1 recording", r.Summary())

	r.Remove("g1")
	_, ok = r.Get("g1")
	require.False(t, ok)
}
