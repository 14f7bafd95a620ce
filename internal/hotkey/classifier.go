package hotkey

import (
	"sync"
	"time"
)

// Config holds the classifier timing thresholds.
type Config struct {
	// LongPressThreshold is the minimum hold duration for a long press.
	// Default: 800ms.
	LongPressThreshold time.Duration

	// MultiPressWindow is how long to wait for a follow-up press before
	// deciding between short, double, and multi. Default: 500ms.
	MultiPressWindow time.Duration

	// MultiPressCount is the press count at which a burst is emitted
	// immediately as a multi press. Default: 3.
	MultiPressCount int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LongPressThreshold: 800 * time.Millisecond,
		MultiPressWindow:   500 * time.Millisecond,
		MultiPressCount:    3,
	}
}

// withDefaults fills zero fields with default values.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.LongPressThreshold <= 0 {
		c.LongPressThreshold = def.LongPressThreshold
	}
	if c.MultiPressWindow <= 0 {
		c.MultiPressWindow = def.MultiPressWindow
	}
	if c.MultiPressCount < 2 {
		c.MultiPressCount = def.MultiPressCount
	}
	return c
}

// EmitFunc receives classified events from the classifier.
// It is called with the classifier lock held; implementations must not
// call back into the classifier synchronously.
type EmitFunc func(Event)

// keyState tracks one key combination across an open disambiguation window.
// States are created on first sight and reset after every emission, never
// destroyed.
type keyState struct {
	pressStart time.Time
	lastPress  time.Time
	count      int
	pressed    bool

	// timer is the pending decision timer, nil when none is outstanding.
	timer Timer

	// gen invalidates stale timer callbacks: it is bumped every time a
	// timer is started or the state is reset, and a firing callback only
	// acts if its captured generation is still current. This makes the
	// one-live-timer-per-key invariant hold even if a cancelled timer's
	// callback is already in flight.
	gen uint64
}

// reset clears the burst state after an emission or cancellation.
func (s *keyState) reset() {
	s.stopTimer()
	s.pressStart = time.Time{}
	s.lastPress = time.Time{}
	s.count = 0
}

// stopTimer cancels any pending decision timer and invalidates in-flight
// callbacks.
func (s *keyState) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Classifier converts raw press/release timing into classified events.
//
// It holds no reference to bindings or features; it is purely a
// press-stream to classified-event transformer. A single mutex guards the
// whole key-state map, which is sufficient at expected event rates of a
// few events per second.
type Classifier struct {
	mu sync.Mutex

	cfg    Config
	sched  Scheduler
	emit   EmitFunc
	source string

	keys map[string]*keyState
}

// NewClassifier creates a classifier that reports events through emit.
// A nil scheduler defaults to the runtime timer facility.
func NewClassifier(cfg Config, sched Scheduler, emit EmitFunc) *Classifier {
	if sched == nil {
		sched = NewScheduler()
	}
	return &Classifier{
		cfg:    cfg.withDefaults(),
		sched:  sched,
		emit:   emit,
		source: "keyboard",
		keys:   make(map[string]*keyState),
	}
}

// SetSource sets the provenance tag stamped on emitted events.
func (c *Classifier) SetSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
}

// SetConfig replaces the timing thresholds. Open disambiguation windows
// finish under the timings they started with.
func (c *Classifier) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.withDefaults()
}

// Config returns the active timing thresholds.
func (c *Classifier) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// OnPress records that a key combination went down. Only release timing
// drives classification; this exists for chord tracking.
func (c *Classifier) OnPress(combo string, now time.Time) {
	if combo == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(combo)
	st.pressed = true
	st.pressStart = now
}

// OnRelease processes one completed press-release cycle for a key
// combination. Malformed input (empty combo, negative duration) is
// ignored at the boundary.
//
// Exactly one classified event is eventually emitted per burst: long
// presses synchronously, multi presses upon reaching the count threshold,
// and short/double/trailing-multi when the decision timer fires.
func (c *Classifier) OnRelease(combo string, duration time.Duration, now time.Time) {
	if combo == "" || duration < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(combo)
	st.pressed = false

	// Follow-up press within the open window extends the burst.
	if !st.lastPress.IsZero() && now.Sub(st.lastPress) < c.cfg.MultiPressWindow {
		st.count++
		st.lastPress = now
		st.stopTimer()

		if st.count >= c.cfg.MultiPressCount {
			// Terminal for this burst: emit immediately, no extra wait.
			c.emitLocked(combo, PressMulti, st.count, duration, now)
			st.reset()
			return
		}

		c.startTimer(combo, st)
		return
	}

	// First press of a new burst. The previous burst's timer may have
	// expired without its callback having run yet; resolve that burst
	// here so it still emits exactly once instead of being cancelled.
	if st.count > 0 && st.timer != nil {
		c.resolveLocked(combo, st)
	}

	st.count = 1
	st.lastPress = now
	st.pressStart = now.Add(-duration)

	if duration >= c.cfg.LongPressThreshold {
		// A held press is unambiguous; classify synchronously.
		c.emitLocked(combo, PressLong, 1, duration, now)
		st.reset()
		return
	}

	st.stopTimer()
	c.startTimer(combo, st)
}

// state looks up or creates the tracking state for a key combination.
// Caller must hold the lock.
func (c *Classifier) state(combo string) *keyState {
	st, ok := c.keys[combo]
	if !ok {
		st = &keyState{}
		c.keys[combo] = st
	}
	return st
}

// startTimer arms the decision timer for a key. Any prior timer must have
// been stopped by the caller; the bumped generation guards against the old
// callback regardless. Caller must hold the lock.
func (c *Classifier) startTimer(combo string, st *keyState) {
	st.gen++
	gen := st.gen
	st.timer = c.sched.AfterFunc(c.cfg.MultiPressWindow, func() {
		c.decide(combo, gen)
	})
}

// decide resolves an ambiguous burst once the window elapses with no
// further presses.
func (c *Classifier) decide(combo string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.keys[combo]
	if !ok || st.gen != gen || st.count == 0 {
		// Cancelled or already resolved; stale callback is a no-op.
		return
	}
	st.timer = nil
	c.resolveLocked(combo, st)
}

// resolveLocked emits the short/double/multi decision for an open burst
// whose window has elapsed, then clears the state. Caller must hold the
// lock.
func (c *Classifier) resolveLocked(combo string, st *keyState) {
	ts := st.lastPress.Add(c.cfg.MultiPressWindow)
	switch {
	case st.count == 1:
		c.emitLocked(combo, PressShort, 1, 0, ts)
	case st.count == 2:
		c.emitLocked(combo, PressDouble, 2, 0, ts)
	default:
		c.emitLocked(combo, PressMulti, st.count, 0, ts)
	}
	st.reset()
}

// emitLocked builds and delivers a classified event. Caller must hold the
// lock; same-key emission order follows burst order because both release
// handling and timer callbacks run inside the same critical section.
func (c *Classifier) emitLocked(combo string, press PressType, count int, duration time.Duration, ts time.Time) {
	if c.emit == nil {
		return
	}
	c.emit(Event{
		Combo:     combo,
		Press:     press,
		Timestamp: ts,
		Source:    c.source,
		Duration:  duration,
		Count:     count,
		Action:    ActionLabel(press, count),
	})
}

// PendingKeys returns the key combinations with an open disambiguation
// window. Intended for diagnostics and tests.
func (c *Classifier) PendingKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pending []string
	for combo, st := range c.keys {
		if st.timer != nil {
			pending = append(pending, combo)
		}
	}
	return pending
}
