package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/LinkNexus/instachat/internal/bus"
)

// State represents the lifecycle of one push channel.
type State string

const (
	Closed     State = "CLOSED"
	Connecting State = "CONNECTING"
	Open       State = "OPEN"
)

// validTransitions defines allowed state transitions. Reconnection is
// the transport's business, so there is no retry loop here: a channel
// opens once per session and closes once.
var validTransitions = map[State][]State{
	Closed:     {Connecting},
	Connecting: {Open, Closed},
	Open:       {Closed},
}

// Machine tracks and enforces the state of a named channel.
type Machine struct {
	mu      sync.RWMutex
	channel string
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine for a channel, starting Closed.
func NewMachine(channel string, b *bus.Bus) *Machine {
	return &Machine{
		channel: channel,
		current: Closed,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("channel %s: invalid transition from %s to %s", m.channel, m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindChannelStatus,
			Timestamp: time.Now(),
			Payload: Change{
				Channel: m.channel,
				From:    from,
				To:      to,
			},
		})
	}
	return nil
}

// Change is the payload for channel status events.
type Change struct {
	Channel string
	From    State
	To      State
}
