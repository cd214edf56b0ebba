package queue

import (
	"context"
	"time"

	"github.com/shivensaigal/queuectl/job"
)

// Channel is the pending-job hand-off described in spec section 4.2.
// It is not itself durable; the store is the durable reflection of
// which jobs are Pending.
type Channel struct {
	in chan job.Handle
}

// New creates a Channel with the given buffer capacity. A capacity of
// zero makes every Push block until a worker is ready to receive.
func New(capacity int) *Channel {
	return &Channel{in: make(chan job.Handle, capacity)}
}

// Push offers h to the channel, blocking until either a consumer
// accepts it or ctx is canceled.
func (c *Channel) Push(ctx context.Context, h job.Handle) error {
	select {
	case c.in <- h:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush offers h without blocking. It reports whether h was
// accepted; false means the buffer is full and the caller should
// retry or fall back to a blocking Push.
func (c *Channel) TryPush(h job.Handle) bool {
	select {
	case c.in <- h:
		return true
	default:
		return false
	}
}

// Pop waits up to timeout for a handle to become available. It
// returns false if the timeout elapses with nothing to hand off.
func (c *Channel) Pop(ctx context.Context, timeout time.Duration) (job.Handle, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case h := <-c.in:
		return h, true
	case <-timer.C:
		return job.Handle{}, false
	case <-ctx.Done():
		return job.Handle{}, false
	}
}

// Recv exposes the raw receive side for callers that want to select
// over it directly alongside a shutdown signal, instead of going
// through Pop's timer.
func (c *Channel) Recv() <-chan job.Handle {
	return c.in
}
