/*
Package protocol contains the data model and dispatch machinery for the
line-oriented wire protocol.

This file defines GlobalQueue, the process-wide priority router that decouples
network I/O from protocol processing. Two instances exist per server: one for
input queues produced by connection readers, one for output queues produced by
protocol modules.
*/
package protocol

import (
	"context"
	"sync"
)

// prioritized is the constraint shared by the item types a GlobalQueue routes.
type prioritized interface {
	Priority() int
}

// tierCount is the number of FIFO buckets. Priorities 0 and 1 map to their own
// buckets; 2 and MaxPriority (3) share the high bucket.
const tierCount = 3

// GlobalQueue buckets enqueued message queues by priority tier and always
// dequeues the oldest item of the highest non-empty tier. It is safe under
// arbitrary concurrent producers and consumers. Consumers that need to wait
// for work use DequeueWait; Dequeue itself never blocks.
type GlobalQueue[T prioritized] struct {
	mu      sync.Mutex
	buckets [tierCount][]T

	// ready carries at most one pending wake-up for blocked consumers.
	ready chan struct{}
}

// NewGlobalQueue constructs an empty GlobalQueue.
func NewGlobalQueue[T prioritized]() *GlobalQueue[T] {
	return &GlobalQueue[T]{
		ready: make(chan struct{}, 1),
	}
}

func bucketFor(priority int) int {
	switch {
	case priority <= 0:
		return 0
	case priority == 1:
		return 1
	default:
		return 2
	}
}

// Enqueue adds an item to the tail of its priority bucket and wakes one
// blocked consumer if any. It is O(1) and never blocks.
func (g *GlobalQueue[T]) Enqueue(item T) {
	g.mu.Lock()
	b := bucketFor(item.Priority())
	g.buckets[b] = append(g.buckets[b], item)
	g.mu.Unlock()

	g.signal()
}

func (g *GlobalQueue[T]) signal() {
	select {
	case g.ready <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest item of the highest non-empty tier.
// The second return value is false when every bucket is empty.
func (g *GlobalQueue[T]) Dequeue() (T, bool) {
	g.mu.Lock()
	item, ok, more := g.dequeueLocked()
	g.mu.Unlock()

	if more {
		g.signal()
	}
	return item, ok
}

func (g *GlobalQueue[T]) dequeueLocked() (item T, ok bool, more bool) {
	for b := tierCount - 1; b >= 0; b-- {
		if len(g.buckets[b]) == 0 {
			continue
		}
		item = g.buckets[b][0]
		g.buckets[b][0] = *new(T)
		g.buckets[b] = g.buckets[b][1:]
		ok = true
		break
	}

	for b := range g.buckets {
		if len(g.buckets[b]) > 0 {
			more = true
			break
		}
	}
	return item, ok, more
}

// DequeueWait blocks until an item is available or the context is canceled.
// It returns the context error on cancellation.
func (g *GlobalQueue[T]) DequeueWait(ctx context.Context) (T, error) {
	for {
		if item, ok := g.Dequeue(); ok {
			return item, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-g.ready:
		}
	}
}

// Len returns the total number of pending items across all tiers.
func (g *GlobalQueue[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for b := range g.buckets {
		n += len(g.buckets[b])
	}
	return n
}

// GlobalInputQueue routes InputQueues from connection readers to dispatch.
type GlobalInputQueue = GlobalQueue[*InputQueue]

// GlobalOutputQueue routes OutputQueues from dispatch to the output sender.
type GlobalOutputQueue = GlobalQueue[*OutputQueue]

// NewGlobalInputQueue constructs the process-wide input router.
func NewGlobalInputQueue() *GlobalInputQueue {
	return NewGlobalQueue[*InputQueue]()
}

// NewGlobalOutputQueue constructs the process-wide output router.
func NewGlobalOutputQueue() *GlobalOutputQueue {
	return NewGlobalQueue[*OutputQueue]()
}
