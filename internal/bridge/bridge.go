// Package bridge carries tray commands from the control-surface goroutine to
// the UI goroutine. The queue is unbounded, accepts any number of producers
// and is drained by a single consumer.
package bridge

import (
	"context"
	"errors"
	"sync"
)

type Event int

const (
	ShowHide Event = iota + 1
	Quit
)

func (e Event) String() string {
	switch e {
	case ShowHide:
		return "show-hide"
	case Quit:
		return "quit"
	}
	return "unknown"
}

// ErrClosed is returned by Recv once every queued event has been delivered
// and the producer side is closed.
var ErrClosed = errors.New("bridge closed")

type queue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	notify chan struct{}
}

// Sender is the producer handle. One Sender is shared by every callback for
// the life of the process; Send serializes them.
type Sender struct {
	q *queue
}

// Receiver is the consumer handle. Only one goroutine may call Recv.
type Receiver struct {
	q *queue
}

func New() (*Sender, *Receiver) {
	q := &queue{notify: make(chan struct{}, 1)}
	return &Sender{q: q}, &Receiver{q: q}
}

// Send enqueues e. It never blocks on the consumer and reports false once the
// bridge is closed.
func (s *Sender) Send(e Event) bool {
	s.q.mu.Lock()
	if s.q.closed {
		s.q.mu.Unlock()
		return false
	}
	s.q.events = append(s.q.events, e)
	s.q.mu.Unlock()

	select {
	case s.q.notify <- struct{}{}:
	default:
	}
	return true
}

// Close marks the producer side as gone. Events already queued are still
// delivered.
func (s *Sender) Close() {
	s.q.mu.Lock()
	s.q.closed = true
	s.q.mu.Unlock()

	select {
	case s.q.notify <- struct{}{}:
	default:
	}
}

// Recv waits for the next event in send order.
func (r *Receiver) Recv(ctx context.Context) (Event, error) {
	for {
		r.q.mu.Lock()
		if len(r.q.events) > 0 {
			e := r.q.events[0]
			r.q.events[0] = 0
			r.q.events = r.q.events[1:]
			r.q.mu.Unlock()
			return e, nil
		}
		closed := r.q.closed
		r.q.mu.Unlock()

		if closed {
			return 0, ErrClosed
		}

		select {
		case <-r.q.notify:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Pending reports how many events are queued.
func (r *Receiver) Pending() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.events)
}
