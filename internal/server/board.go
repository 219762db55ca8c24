package server

import (
	"sync"
	"time"

	"github.com/audiolibrelab/broadcastrec/internal/recorder"
)

// ChannelStatus is the last known state of one channel.
type ChannelStatus struct {
	Name      string         `json:"name"`
	State     recorder.State `json:"state"`
	Error     string         `json:"error,omitempty"`
	Job       *recorder.Job  `json:"job,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Board keeps the latest status of every channel. It implements
// recorder.Observer and is the only state shared between channel workers.
type Board struct {
	mu       sync.RWMutex
	order    []string
	channels map[string]*ChannelStatus
}

// NewBoard creates a board pre-populated with the given channel names in
// IDLE state, so that channels show up before their worker starts.
func NewBoard(names ...string) *Board {
	b := &Board{channels: make(map[string]*ChannelStatus, len(names))}
	now := time.Now()
	for _, name := range names {
		b.add(name, now)
	}
	return b
}

func (b *Board) add(name string, at time.Time) *ChannelStatus {
	st := &ChannelStatus{Name: name, State: recorder.StateIdle, UpdatedAt: at}
	b.order = append(b.order, name)
	b.channels[name] = st
	return st
}

// Observe records a state transition.
func (b *Board) Observe(e recorder.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.channels[e.Channel]
	if !ok {
		st = b.add(e.Channel, e.At)
	}
	st.State = e.State
	st.UpdatedAt = e.At
	st.Error = ""
	if e.Err != nil {
		st.Error = e.Err.Error()
	}
	if e.Job != nil {
		st.Job = e.Job
	}
}

// Snapshot returns a copy of all statuses in registration order.
func (b *Board) Snapshot() []ChannelStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ChannelStatus, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.channels[name])
	}
	return out
}

// Get returns the status of a single channel.
func (b *Board) Get(name string) (ChannelStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.channels[name]
	if !ok {
		return ChannelStatus{}, false
	}
	return *st, true
}
