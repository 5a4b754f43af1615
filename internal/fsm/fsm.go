// Package fsm defines the per-guild voice session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateDetached  State = "detached"
	StateConnected State = "connected"
	StateRecording State = "recording"
	StateError     State = "error"
)

const (
	EventJoin  Event = "join"
	EventStart Event = "start"
	EventStop  Event = "stop"
	EventLeave Event = "leave"
	EventFail  Event = "fail"
	EventReset Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateDetached:
		switch event {
		case EventJoin:
			return StateConnected, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateConnected:
		switch event {
		case EventStart:
			return StateRecording, nil
		case EventLeave:
			return StateDetached, nil
		case EventJoin:
			// Joining again moves the bot between voice channels.
			return StateConnected, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateConnected, nil
		case EventLeave:
			return StateDetached, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateDetached, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
