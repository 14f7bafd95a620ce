package script

import (
	"context"
	"errors"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ErrExecutorClosed is returned when attempting to use a closed executor.
var ErrExecutorClosed = errors.New("script executor is closed")

// call is one Lua operation queued for the executor goroutine.
type call struct {
	fn     func(L *lua.LState) error
	result chan error
}

// executor serializes all operations on one Lua state through a single
// goroutine. gopher-lua's LState is not goroutine-safe; hotkey dispatch
// can arrive from classifier timer goroutines concurrently, so every
// script call is marshalled here.
type executor struct {
	L     *lua.LState
	queue chan *call
	done  chan struct{}

	closeOnce sync.Once
}

// newExecutor creates and starts an executor that owns the Lua state.
// The state is closed when the executor shuts down.
func newExecutor(L *lua.LState) *executor {
	e := &executor{
		L:     L,
		queue: make(chan *call, 16),
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

// run processes queued operations until the executor is closed.
func (e *executor) run() {
	defer e.L.Close()

	for {
		select {
		case <-e.done:
			e.drain()
			return
		case c := <-e.queue:
			err := e.safeCall(c)
			select {
			case c.result <- err:
			default:
			}
			close(c.result)
		}
	}
}

// safeCall runs one operation with panic recovery.
func (e *executor) safeCall(c *call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = errors.New("lua panic")
			}
		}
	}()
	return c.fn(e.L)
}

// drain fails any calls still queued at shutdown.
func (e *executor) drain() {
	for {
		select {
		case c := <-e.queue:
			select {
			case c.result <- ErrExecutorClosed:
			default:
			}
			close(c.result)
		default:
			return
		}
	}
}

// execute runs fn on the executor goroutine and waits for it to finish
// or the context to expire.
func (e *executor) execute(ctx context.Context, fn func(L *lua.LState) error) error {
	c := &call{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrExecutorClosed
	case e.queue <- c:
	}

	select {
	case <-ctx.Done():
		// The call stays queued and will still run; we stop waiting.
		return ctx.Err()
	case err, ok := <-c.result:
		if !ok {
			return ErrExecutorClosed
		}
		return err
	}
}

// close shuts the executor down. Idempotent.
func (e *executor) close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}
