package tray

import (
	"context"
	"sync"

	"codeberg.org/mutker/runcat/internal/latest"
	"go.uber.org/atomic"
)

const defaultEventBuffer = 16

const (
	statePending int32 = iota
	stateRunning
	stateClosed
)

// Proxy is the handle background goroutines use to reach the event loop.
// Frame commands are coalesced: an unprocessed frame is replaced by a newer
// one. Other events are queued in order and never dropped.
type Proxy struct {
	frames *latest.Slot[int]
	events chan Event

	state     *atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
}

func NewProxy() *Proxy {
	return &Proxy{
		frames: latest.New[int](),
		events: make(chan Event, defaultEventBuffer),
		state:  atomic.NewInt32(statePending),
		done:   make(chan struct{}),
	}
}

// EmitFrame hands a frame command to the event loop. Commands sent before the
// loop starts are dropped; after the loop has exited it returns ErrClosed.
func (p *Proxy) EmitFrame(_ context.Context, index int) error {
	switch p.state.Load() {
	case statePending:
		return nil
	case stateClosed:
		return ErrClosed
	}

	p.frames.Publish(index)

	return nil
}

// Send queues ev for the event loop, blocking while the queue is full.
func (p *Proxy) Send(ctx context.Context, ev Event) error {
	if p.state.Load() == stateClosed {
		return ErrClosed
	}

	select {
	case p.events <- ev:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the event loop has exited.
func (p *Proxy) Done() <-chan struct{} {
	return p.done
}

// Closed reports whether the event loop has exited.
func (p *Proxy) Closed() bool {
	return p.state.Load() == stateClosed
}

// FrameStats returns the frame coalescing counters.
func (p *Proxy) FrameStats() latest.Stats {
	return p.frames.Stats()
}

func (p *Proxy) start() bool {
	return p.state.CompareAndSwap(statePending, stateRunning)
}

func (p *Proxy) close() {
	p.closeOnce.Do(func() {
		p.state.Store(stateClosed)
		close(p.done)
	})
}
