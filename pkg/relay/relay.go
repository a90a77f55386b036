// Package relay moves audio batches from the capture callback to the
// analysis loop through a bounded single-producer single-consumer queue.
//
// The producer side runs on the audio driver thread and must never
// block or the stream underruns. On overflow the oldest unconsumed
// batch is dropped: the waterfall tolerates lost frames, the driver
// does not tolerate a stalled callback.
package relay

import (
	"sync/atomic"
	"time"
)

// Batch is one block of mono samples with its arrival-order sequence
// number. Ownership transfers into the relay on Push and out on Pop.
type Batch struct {
	Seq     uint64
	Samples []float32
}

// Stats is a point-in-time snapshot of relay counters.
type Stats struct {
	Pushed  int64
	Popped  int64
	Dropped int64
}

// Relay is the bounded hand-off queue. One pushing goroutine, one
// popping goroutine; counters are safe to read from anywhere.
type Relay struct {
	ch  chan Batch
	seq atomic.Uint64

	pushed  atomic.Int64
	popped  atomic.Int64
	dropped atomic.Int64
}

// New returns a relay holding at most depth batches.
func New(depth int) *Relay {
	if depth < 1 {
		depth = 1
	}
	return &Relay{ch: make(chan Batch, depth)}
}

// Push enqueues samples without ever blocking. If the queue is full the
// oldest batch is evicted to make room; evictions are counted, not
// reported per-occurrence. Zero-length batches are ignored.
// Safe to call from the audio driver thread.
func (r *Relay) Push(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b := Batch{Seq: r.seq.Add(1), Samples: samples}
	r.pushed.Add(1)
	select {
	case r.ch <- b:
		return
	default:
	}
	// Full: evict the oldest, then retry once. With a single producer
	// the second send can only lose to the consumer draining, in which
	// case there is room.
	select {
	case <-r.ch:
		r.dropped.Add(1)
	default:
	}
	select {
	case r.ch <- b:
	default:
		r.dropped.Add(1)
	}
}

// Pop returns the next batch in arrival order, blocking up to timeout.
// ok is false on timeout so the consumer can check for cancellation.
func (r *Relay) Pop(timeout time.Duration) (Batch, bool) {
	select {
	case b := <-r.ch:
		r.popped.Add(1)
		return b, true
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b := <-r.ch:
		r.popped.Add(1)
		return b, true
	case <-t.C:
		return Batch{}, false
	}
}

// Len returns the number of batches currently queued.
func (r *Relay) Len() int { return len(r.ch) }

// Dropped returns the number of batches evicted under overload.
func (r *Relay) Dropped() int64 { return r.dropped.Load() }

// Snapshot returns the current counter values.
func (r *Relay) Snapshot() Stats {
	return Stats{
		Pushed:  r.pushed.Load(),
		Popped:  r.popped.Load(),
		Dropped: r.dropped.Load(),
	}
}
