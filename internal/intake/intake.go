// Package intake is the shared hand-off point between sensor callbacks and
// the per-tick collection loop. Any number of producer goroutines push
// samples; a single consumer pops them with a bounded wait.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/frqc/data-generation/pkg/core"
)

// ErrTimeout is returned by Pop when no sample arrives within the wait budget.
var ErrTimeout = errors.New("intake: wait elapsed without a sample")

// Intake is a concurrent-safe sample queue. Producers never coordinate with
// each other; the channel provides the multi-writer/single-reader contract.
type Intake struct {
	ch chan core.Sample
}

// New creates an intake with the given buffer capacity. The buffer only
// needs to cover one tick's worth of producers; sizing it to the registry
// keeps Push non-blocking in practice.
func New(capacity int) *Intake {
	if capacity < 1 {
		capacity = 1
	}
	return &Intake{ch: make(chan core.Sample, capacity)}
}

// Push hands a sample to the consumer. Safe for concurrent use from any
// number of producer goroutines.
func (q *Intake) Push(s core.Sample) {
	if s.Received.IsZero() {
		s.Received = time.Now()
	}
	q.ch <- s
}

// Pop blocks until a sample arrives, the wait budget elapses, or ctx is
// cancelled. A cancelled context takes precedence over the timeout so an
// interrupt never leaves the consumer stuck in a wait.
func (q *Intake) Pop(ctx context.Context, wait time.Duration) (core.Sample, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s := <-q.ch:
		return s, nil
	case <-timer.C:
		return core.Sample{}, ErrTimeout
	case <-ctx.Done():
		return core.Sample{}, ctx.Err()
	}
}

// Len returns the number of buffered samples. Used by the monitor gauge.
func (q *Intake) Len() int {
	return len(q.ch)
}
