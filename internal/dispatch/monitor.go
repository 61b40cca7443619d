package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hitman/internal/output"
)

// Sample is one monitor attempt.
type Sample struct {
	Time time.Time
	Result
}

// String renders "timestamp, status, elapsed", or the error for failed
// attempts.
func (s Sample) String() string {
	if !s.OK() {
		return s.Err.Error()
	}
	return fmt.Sprintf("%s, %d, %s", s.Time.UTC().Format("2006-01-02 15:04:05.000000 UTC"), s.Status, output.Duration(s.Elapsed))
}

// Monitor repeats a request at a fixed delay.
type Monitor struct {
	Delay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// ErrInvalidDelay is returned for negative delays.
var ErrInvalidDelay = errors.New("invalid delay")

// Run sends the request, reports the sample, waits Delay and repeats until
// ctx is done. Failures are reported and do not stop the loop.
func (m Monitor) Run(ctx context.Context, send SendFunc, report func(Sample)) error {
	if m.Delay < 0 {
		return ErrInvalidDelay
	}
	now := m.Now
	if now == nil {
		now = time.Now
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		res := attempt(ctx, send)
		if ctx.Err() != nil {
			return nil
		}
		report(Sample{Time: now(), Result: res})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.Delay):
		}
	}
}
