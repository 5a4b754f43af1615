// Package session coordinates per-guild voice lifecycle state and actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/imartinez/glosa/internal/fsm"
)

var (
	// ErrNotConnected indicates a command that needs an active voice connection.
	ErrNotConnected = errors.New("not connected to a voice channel")
	// ErrAlreadyRecording indicates a duplicate start command.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording indicates a stop command with no active recording.
	ErrNotRecording = errors.New("not recording")
)

// Hooks are the side effects the controller drives on valid transitions.
type Hooks struct {
	Connect        func(ctx context.Context, channelID string) error
	Disconnect     func(ctx context.Context) error
	StartRecording func(ctx context.Context) error
	StopRecording  func(ctx context.Context) error
}

// Controller guards one guild's voice session with the state machine.
type Controller struct {
	guildID string
	logger  *slog.Logger
	hooks   Hooks

	mu    sync.RWMutex
	state fsm.State
}

// NewController constructs an idle controller for one guild.
func NewController(guildID string, logger *slog.Logger, hooks Hooks) *Controller {
	return &Controller{
		guildID: guildID,
		logger:  logger,
		hooks:   hooks,
		state:   fsm.StateDetached,
	}
}

// State returns the current state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Join connects (or moves) the bot to a voice channel. A controller parked
// in the error state is reset first, so join doubles as the recovery path.
func (c *Controller) Join(ctx context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == fsm.StateError {
		reset, err := fsm.Transition(c.state, fsm.EventReset)
		if err != nil {
			return err
		}
		c.state = reset
		c.log("session reset after failure")
	}

	next, err := fsm.Transition(c.state, fsm.EventJoin)
	if err != nil {
		return c.mapError(err)
	}

	if c.hooks.Connect != nil {
		if err := c.hooks.Connect(ctx, channelID); err != nil {
			c.failLocked(err)
			return err
		}
	}

	c.state = next
	c.log("voice channel joined", "channel_id", channelID)
	return nil
}

// Start begins recording in the connected voice channel.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == fsm.StateRecording {
		return ErrAlreadyRecording
	}
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		return c.mapError(err)
	}

	if c.hooks.StartRecording != nil {
		if err := c.hooks.StartRecording(ctx); err != nil {
			c.failLocked(err)
			return err
		}
	}

	c.state = next
	c.log("recording started")
	return nil
}

// Stop ends the active recording, flushing any open utterance.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == fsm.StateConnected {
		return ErrNotRecording
	}
	next, err := fsm.Transition(c.state, fsm.EventStop)
	if err != nil {
		return c.mapError(err)
	}

	if c.hooks.StopRecording != nil {
		if err := c.hooks.StopRecording(ctx); err != nil {
			c.failLocked(err)
			return err
		}
	}

	c.state = next
	c.log("recording stopped")
	return nil
}

// Leave stops any recording and disconnects from the voice channel.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasRecording := c.state == fsm.StateRecording
	next, err := fsm.Transition(c.state, fsm.EventLeave)
	if err != nil {
		return c.mapError(err)
	}

	if wasRecording && c.hooks.StopRecording != nil {
		if err := c.hooks.StopRecording(ctx); err != nil {
			c.log("stop recording on leave failed", "error", err.Error())
		}
	}
	if c.hooks.Disconnect != nil {
		if err := c.hooks.Disconnect(ctx); err != nil {
			c.failLocked(err)
			return err
		}
	}

	c.state = next
	c.log("voice channel left")
	return nil
}

// failLocked parks the controller in the error state. It stays visible
// there (registry, status) until the next join resets it.
func (c *Controller) failLocked(err error) {
	next, _ := fsm.Transition(c.state, fsm.EventFail)
	c.state = next
	c.log("session failure", "error", err.Error())
}

// mapError converts raw transition errors into user-facing sentinels.
func (c *Controller) mapError(err error) error {
	switch c.state {
	case fsm.StateDetached, fsm.StateError:
		return ErrNotConnected
	default:
		return err
	}
}

func (c *Controller) log(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, append([]any{"guild_id", c.guildID}, args...)...)
}

// Registry tracks controllers per guild.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Get returns the controller for a guild when one exists.
func (r *Registry) Get(guildID string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[guildID]
	return c, ok
}

// Put registers a controller, replacing any previous one for the guild.
func (r *Registry) Put(guildID string, c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[guildID] = c
}

// Remove drops a guild's controller.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, guildID)
}

// States snapshots every guild's current state for status reporting.
func (r *Registry) States() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]string, len(r.controllers))
	for guildID, c := range r.controllers {
		states[guildID] = string(c.State())
	}
	return states
}

// Summary renders a one-line aggregate for status responses.
func (r *Registry) Summary() string {
	states := r.States()
	if len(states) == 0 {
		return "idle"
	}

	recording := 0
	for _, state := range states {
		if state == string(fsm.StateRecording) {
			recording++
		}
	}
	return fmt.Sprintf("%d guild session(s), %d recording", len(states), recording)
}
