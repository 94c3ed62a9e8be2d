/*
Package protocol contains the data model and dispatch machinery for the
line-oriented wire protocol.

This file defines MessageQueue, an ordered container of Messages tagged with a
priority tier, and its two concrete flavors: InputQueue for traffic flowing
from sockets toward the protocol modules, and OutputQueue for module replies
flowing back toward sockets.
*/
package protocol

import "shogid/internal/app/user"

// MaxPriority is the highest priority tier a message queue can carry.
// Priorities are clamped to [0, MaxPriority].
const MaxPriority = 3

// MessageQueue is a FIFO sequence of Messages plus a priority tag. It is not
// safe for concurrent use; each instance is produced by one stage of the
// pipeline and consumed exactly once by the next.
type MessageQueue struct {
	items    []*Message
	priority int
}

// IsEmpty reports whether the queue holds no messages.
func (q *MessageQueue) IsEmpty() bool {
	return len(q.items) == 0
}

// Len returns the number of messages in the queue.
func (q *MessageQueue) Len() int {
	return len(q.items)
}

// Enqueue adds a message to the back of the queue.
func (q *MessageQueue) Enqueue(m *Message) {
	q.items = append(q.items, m)
}

// Dequeue removes and returns the message at the front of the queue.
// It returns nil when the queue is empty.
func (q *MessageQueue) Dequeue() *Message {
	if len(q.items) == 0 {
		return nil
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m
}

// Append concatenates another queue's messages onto this one, preserving their
// order, and raises this queue's priority to the maximum of the two.
func (q *MessageQueue) Append(other *MessageQueue) {
	if other == nil {
		return
	}
	q.items = append(q.items, other.items...)
	q.SetPriority(max(q.priority, other.priority))
}

// SetPriority sets the queue's priority, clamped to [0, MaxPriority].
func (q *MessageQueue) SetPriority(priority int) {
	q.priority = min(max(priority, 0), MaxPriority)
}

// Priority returns the queue's priority tier.
func (q *MessageQueue) Priority() int {
	return q.priority
}

// SetUser associates every message in the queue with the given user.
func (q *MessageQueue) SetUser(usr *user.User) {
	for _, m := range q.items {
		m.SetUser(usr)
	}
}

// InputQueue carries messages read from client sockets toward dispatch.
type InputQueue struct {
	MessageQueue
}

// NewInputQueue builds an InputQueue at the default input priority (1)
// containing the given messages in order.
func NewInputQueue(msgs ...*Message) *InputQueue {
	q := &InputQueue{}
	q.SetPriority(1)
	for _, m := range msgs {
		q.Enqueue(m)
	}
	return q
}

// NewInputQueueWithPriority builds an InputQueue at the given priority tier.
func NewInputQueueWithPriority(priority int, msgs ...*Message) *InputQueue {
	q := NewInputQueue(msgs...)
	q.SetPriority(priority)
	return q
}

// AppendInput concatenates another InputQueue, propagating the max priority.
func (q *InputQueue) AppendInput(other *InputQueue) {
	if other == nil {
		return
	}
	q.Append(&other.MessageQueue)
}

// OutputQueue carries module replies toward the output dispatcher. Its default
// priority is the lowest tier.
type OutputQueue struct {
	MessageQueue
}

// NewOutputQueue builds an OutputQueue containing the given messages in order.
func NewOutputQueue(msgs ...*Message) *OutputQueue {
	q := &OutputQueue{}
	for _, m := range msgs {
		q.Enqueue(m)
	}
	return q
}

// AppendOutput concatenates another OutputQueue, propagating the max priority.
func (q *OutputQueue) AppendOutput(other *OutputQueue) {
	if other == nil {
		return
	}
	q.Append(&other.MessageQueue)
}
