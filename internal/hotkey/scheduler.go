package hotkey

import "time"

// Timer is a cancellable deferred callback handle.
type Timer interface {
	// Stop cancels the timer. Returns false if the timer already fired
	// or was stopped. Stopping a fired timer is a no-op.
	Stop() bool
}

// Scheduler defers callbacks for the classifier's decision timers.
// Tests substitute a manual implementation to drive timers deterministically.
type Scheduler interface {
	// AfterFunc schedules fn to run on the scheduler's own goroutine
	// after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// realScheduler backs Scheduler with the runtime timer facility.
type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
