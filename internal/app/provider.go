package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// PressFunc receives one completed key press: the combination, how long
// it was held, and when the release happened.
type PressFunc func(combo string, held time.Duration, at time.Time)

// Provider is the raw input source. Run blocks, delivering presses until
// the context is cancelled or the source ends.
type Provider interface {
	Run(ctx context.Context, deliver PressFunc) error
}

// ReaderProvider reads presses from a text stream, one per line:
//
//	<combo> [held_ms]
//
// Lines starting with # and blank lines are skipped. held_ms defaults to
// 100. It exists for simulation and manual testing; a real keyboard hook
// implements Provider the same way.
type ReaderProvider struct {
	r io.Reader
}

// NewReaderProvider creates a provider reading from r.
func NewReaderProvider(r io.Reader) *ReaderProvider {
	return &ReaderProvider{r: r}
}

// Run implements Provider.
func (p *ReaderProvider) Run(ctx context.Context, deliver PressFunc) error {
	scanner := bufio.NewScanner(p.r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		held := 100 * time.Millisecond
		if len(fields) > 1 {
			ms, err := strconv.Atoi(fields[1])
			if err != nil || ms < 0 {
				return fmt.Errorf("bad held duration %q", fields[1])
			}
			held = time.Duration(ms) * time.Millisecond
		}

		deliver(fields[0], held, time.Now())
	}
	return scanner.Err()
}
