// Package dispatch sends one resolved request many times: a burst spread
// over concurrent workers (flurry) or an endless fixed-interval loop
// (monitor).
package dispatch

import (
	"context"
	"fmt"
	"time"
)

// SendFunc sends the request once and returns the status code and the time
// until the response headers arrived.
type SendFunc func(ctx context.Context) (status int, elapsed time.Duration, err error)

// Result is the outcome of one attempt. Failed attempts carry Err and no
// latency.
type Result struct {
	Status  int
	Elapsed time.Duration
	Err     error
}

// OK reports whether the attempt got a response, whatever its status.
func (r Result) OK() bool { return r.Err == nil }

func attempt(ctx context.Context, send SendFunc) Result {
	status, elapsed, err := send(ctx)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Status: status, Elapsed: elapsed}
}

// SplitWork divides total into one share per worker. Each worker in turn
// takes the ceiling of what is left over the workers left, so shares differ
// by at most one. Workers that would get nothing are omitted.
func SplitWork(total, workers int) ([]int, error) {
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", workers)
	}
	if total < 0 {
		return nil, fmt.Errorf("total must not be negative, got %d", total)
	}

	var shares []int
	remaining := total
	for left := workers; left > 0 && remaining > 0; left-- {
		share := (remaining + left - 1) / left
		shares = append(shares, share)
		remaining -= share
	}
	return shares, nil
}
