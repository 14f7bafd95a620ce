// Package command provides background execution of external commands.
//
// Features hand their shell work to the Runner so the dispatch path
// returns promptly; the runner launches the command on its own goroutine
// and reports the outcome to a completion callback.
package command

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"hotkeyd/internal/logging"
)

// Outcome describes a finished command.
type Outcome struct {
	// Line is the command line that was executed.
	Line string

	// Output is the combined stdout and stderr.
	Output []byte

	// Err is non-nil if the command failed to start, exited non-zero,
	// or hit the timeout.
	Err error

	// Duration is the wall time the command ran.
	Duration time.Duration
}

// DoneFunc receives the outcome of a background command. It runs on the
// runner's goroutine, never the caller's.
type DoneFunc func(Outcome)

// Runner launches external commands in background goroutines.
// It is safe for concurrent use.
type Runner struct {
	log     *logging.Logger
	timeout time.Duration
	shell   []string

	wg sync.WaitGroup
}

// NewRunner creates a runner. Commands exceeding timeout are killed;
// a non-positive timeout means no limit.
func NewRunner(timeout time.Duration, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Null
	}
	return &Runner{
		log:     log,
		timeout: timeout,
		shell:   []string{"/bin/sh", "-c"},
	}
}

// Start launches a command line in the background and returns immediately.
// The opaque line is run through the shell; done (if non-nil) receives the
// outcome when the command finishes.
func (r *Runner) Start(ctx context.Context, line string, done DoneFunc) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return fmt.Errorf("empty command line")
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		outcome := r.run(ctx, line)
		if outcome.Err != nil {
			r.log.Warn("command %q failed after %v: %v", line, outcome.Duration, outcome.Err)
		} else {
			r.log.Debug("command %q finished in %v", line, outcome.Duration)
		}
		if done != nil {
			done(outcome)
		}
	}()
	return nil
}

// run executes the command synchronously with the configured timeout.
func (r *Runner) run(ctx context.Context, line string) Outcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.shell[0], append(r.shell[1:], line)...)
	output, err := cmd.CombinedOutput()

	return Outcome{
		Line:     line,
		Output:   output,
		Err:      err,
		Duration: time.Since(start),
	}
}

// Wait blocks until all background commands have finished. Intended for
// shutdown and tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
