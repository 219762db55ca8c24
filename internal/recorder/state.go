package recorder

import "time"

// State is a step of one channel's recording lifecycle.
type State string

const (
	StateIdle      State = "IDLE"
	StateWaiting   State = "WAITING"
	StateResolving State = "RESOLVING"
	StateRecording State = "RECORDING"
	StateDone      State = "DONE"
	StateSkipped   State = "SKIPPED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}

// Event is emitted on every state transition of a channel.
type Event struct {
	Channel string
	State   State
	// Job is set from RECORDING on.
	Job *Job
	Err error
	At  time.Time
}

// Observer receives state transitions. Implementations must be safe for
// concurrent use since every channel reports from its own goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to several observers, skipping nil ones.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(e Event) {
		for _, o := range obs {
			if o != nil {
				o.Observe(e)
			}
		}
	})
}
