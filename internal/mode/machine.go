package mode

import (
	"fmt"
	"sync"

	"hotkeyd/internal/keymap"
	"hotkeyd/internal/logging"
)

// Observer is notified with the new mode ID after every successful
// transition.
type Observer func(modeID string)

// PersistFunc stores the current mode ID durably. Errors are logged, they
// never fail the transition.
type PersistFunc func(modeID string) error

// Machine holds the registered modes and the current mode, and notifies
// observers on transitions.
//
// Modes keep registration order; Next and Previous cycle through that
// order with wrap-around. The current mode ID is guarded by the machine's
// lock, so concurrent readers never observe a torn value.
type Machine struct {
	mu sync.RWMutex

	order     []string
	modes     map[string]Mode
	current   string
	observers []Observer
	persist   PersistFunc
	log       *logging.Logger
}

// NewMachine creates an empty mode machine.
func NewMachine(log *logging.Logger) *Machine {
	if log == nil {
		log = logging.Null
	}
	return &Machine{
		modes: make(map[string]Mode),
		log:   log,
	}
}

// SetPersist sets the hook that stores the current mode across restarts.
func (m *Machine) SetPersist(persist PersistFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persist = persist
}

// Register adds a mode. Re-registering an ID replaces its configuration
// but keeps its position in the cycle order.
func (m *Machine) Register(mode Mode) error {
	if mode.ID == "" {
		return fmt.Errorf("cannot register mode with empty id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modes[mode.ID]; !exists {
		m.order = append(m.order, mode.ID)
	}
	m.modes[mode.ID] = mode
	return nil
}

// Replace swaps the whole mode set, preserving the given order. The
// current mode is kept if still present, otherwise reset to the first
// mode. Used by config reload.
func (m *Machine) Replace(modes []Mode) error {
	if len(modes) == 0 {
		return fmt.Errorf("cannot replace with empty mode set")
	}

	order := make([]string, 0, len(modes))
	table := make(map[string]Mode, len(modes))
	for _, mode := range modes {
		if mode.ID == "" {
			return fmt.Errorf("cannot register mode with empty id")
		}
		if _, dup := table[mode.ID]; dup {
			return fmt.Errorf("duplicate mode id: %s", mode.ID)
		}
		order = append(order, mode.ID)
		table[mode.ID] = mode
	}

	m.mu.Lock()
	m.order = order
	m.modes = table

	if _, ok := m.modes[m.current]; !ok {
		m.current = m.order[0]
		observers, persist, id := m.transitionLocked(m.current)
		m.mu.Unlock()
		m.finishTransition(observers, persist, id)
		return nil
	}

	m.mu.Unlock()
	return nil
}

// SetInitial sets the starting mode without notifying observers.
// Returns an error if the ID is not registered.
func (m *Machine) SetInitial(modeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.modes[modeID]; !ok {
		return fmt.Errorf("unknown mode: %s", modeID)
	}
	m.current = modeID
	return nil
}

// CurrentID returns the current mode ID.
func (m *Machine) CurrentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// DisplayName resolves the current mode's display name, falling back to
// the ID itself when no name is configured.
func (m *Machine) DisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mode, ok := m.modes[m.current]
	if !ok {
		return m.current
	}
	return mode.DisplayName()
}

// IDs returns the registered mode IDs in cycle order.
func (m *Machine) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Bindings returns the binding table for a mode. Implements
// keymap.Source.
func (m *Machine) Bindings(modeID string) (map[string]keymap.Binding, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mode, ok := m.modes[modeID]
	if !ok {
		return nil, false
	}
	return mode.Bindings, true
}

// SwitchTo transitions to the given mode. Fails without any state change
// if the ID is not registered.
func (m *Machine) SwitchTo(modeID string) error {
	m.mu.Lock()

	if _, ok := m.modes[modeID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown mode: %s", modeID)
	}

	observers, persist, id := m.transitionLocked(modeID)
	m.mu.Unlock()

	m.finishTransition(observers, persist, id)
	return nil
}

// Next advances to the next mode in cycle order, wrapping around.
// Returns the new mode ID.
func (m *Machine) Next() string {
	return m.step(1)
}

// Previous retreats to the prior mode in cycle order, wrapping around.
// Returns the new mode ID.
func (m *Machine) Previous() string {
	return m.step(-1)
}

// step moves delta positions through the cycle order.
func (m *Machine) step(delta int) string {
	m.mu.Lock()

	if len(m.order) == 0 {
		m.mu.Unlock()
		return ""
	}

	idx := -1
	for i, id := range m.order {
		if id == m.current {
			idx = i
			break
		}
	}

	var next string
	if idx < 0 {
		// No current mode yet (stepping before SetInitial): the first
		// transition lands on the first mode regardless of direction.
		next = m.order[0]
	} else {
		next = m.order[((idx+delta)%len(m.order)+len(m.order))%len(m.order)]
	}

	observers, persist, id := m.transitionLocked(next)
	m.mu.Unlock()

	m.finishTransition(observers, persist, id)
	return id
}

// transitionLocked updates the current mode and snapshots what the caller
// needs to finish the transition outside the lock.
func (m *Machine) transitionLocked(modeID string) ([]Observer, PersistFunc, string) {
	m.current = modeID

	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	return observers, m.persist, modeID
}

// finishTransition persists the new mode and notifies observers
// synchronously, in registration order. A panicking observer is isolated:
// it is logged and delivery continues to the rest.
func (m *Machine) finishTransition(observers []Observer, persist PersistFunc, modeID string) {
	if persist != nil {
		if err := persist(modeID); err != nil {
			m.log.Error("persisting current mode %s: %v", modeID, err)
		}
	}

	for _, obs := range observers {
		if obs == nil {
			continue
		}
		m.notifyOne(obs, modeID)
	}
}

// notifyOne delivers one observer callback with panic isolation.
func (m *Machine) notifyOne(obs Observer, modeID string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("mode observer panic on switch to %s: %v", modeID, r)
		}
	}()
	obs(modeID)
}

// AddObserver registers an observer for mode transitions. Returns a
// function that unregisters it.
func (m *Machine) AddObserver(obs Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, obs)
	index := len(m.observers) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Remove by setting to nil so other indices stay valid.
		if index < len(m.observers) {
			m.observers[index] = nil
		}
	}
}
