package app

import (
	"sync"
	"sync/atomic"
)

// Shutdown is a one-shot broadcast. Every subscriber observes the trigger,
// including ones that subscribe after it fired.
type Shutdown struct {
	once        sync.Once
	ch          chan struct{}
	subscribers atomic.Int64
}

func NewShutdown() *Shutdown {
	return &Shutdown{ch: make(chan struct{})}
}

// Trigger fires the shutdown. Calls after the first do nothing.
func (s *Shutdown) Trigger() {
	s.once.Do(func() { close(s.ch) })
}

func (s *Shutdown) Triggered() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done is closed once the shutdown fires.
func (s *Shutdown) Done() <-chan struct{} {
	return s.ch
}

// Subscribe registers a receiver. Close it when no longer listening.
func (s *Shutdown) Subscribe() *ShutdownRx {
	s.subscribers.Add(1)
	return &ShutdownRx{parent: s}
}

// SubscriberCount returns the number of open receivers.
func (s *Shutdown) SubscriberCount() int {
	return int(s.subscribers.Load())
}

type ShutdownRx struct {
	parent *Shutdown
	closed atomic.Bool
}

func (r *ShutdownRx) Done() <-chan struct{} {
	return r.parent.ch
}

func (r *ShutdownRx) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.parent.subscribers.Add(-1)
	}
}
