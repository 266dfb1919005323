// Package latest provides a single-slot, latest-value-wins handoff between
// one producer and one consumer.
//
// Publish never blocks and never queues: a value that has not been read yet
// is overwritten by the next one. TryRead never blocks either: it returns the
// freshest unread value once, and reports "no update" until the next Publish.
package latest

import (
	"sync"

	"go.uber.org/atomic"
)

// Slot holds at most one unread value of type T.
// The zero value is not usable; create slots with New.
type Slot[T any] struct {
	mu     sync.Mutex
	value  T
	unread bool

	updates chan struct{}

	published *atomic.Uint64
	dropped   *atomic.Uint64
}

// Stats is a point-in-time view of a slot's counters.
type Stats struct {
	Published uint64
	Dropped   uint64
}

// New creates an empty slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{
		updates:   make(chan struct{}, 1),
		published: atomic.NewUint64(0),
		dropped:   atomic.NewUint64(0),
	}
}

// Publish stores v, replacing any unread value. It reports whether an unread
// value was overwritten.
func (s *Slot[T]) Publish(v T) bool {
	s.mu.Lock()
	overwrote := s.unread
	s.value = v
	s.unread = true
	s.mu.Unlock()

	s.published.Inc()
	if overwrote {
		s.dropped.Inc()
	}

	// One pending notification is enough to wake the consumer.
	select {
	case s.updates <- struct{}{}:
	default:
	}

	return overwrote
}

// TryRead returns the unread value and true, or the zero value and false if
// nothing was published since the last read.
func (s *Slot[T]) TryRead() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unread {
		var zero T
		return zero, false
	}

	s.unread = false

	return s.value, true
}

// Updates returns a channel that receives after a Publish. A receive is only
// a hint: the value may already have been taken by TryRead.
func (s *Slot[T]) Updates() <-chan struct{} {
	return s.updates
}

// Stats returns the publish and drop counters.
func (s *Slot[T]) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Dropped:   s.dropped.Load(),
	}
}
