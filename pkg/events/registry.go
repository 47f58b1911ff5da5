// Package events provides the observer registry used by the classifier and
// the full-duplex manager to publish typed events.
package events

import (
	"io"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler receives events of type E
type Handler[E any] func(E)

type subscription[E any] struct {
	id      uint64
	handler Handler[E]
}

// Registry is an ordered set of subscribers. Handlers run synchronously on the
// emitting goroutine in subscription order. A panicking handler is logged
// and skipped; the remaining handlers still run.
type Registry[E any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[E]
	logger *logrus.Entry
}

// NewRegistry creates a registry logging under component. A nil logger
// discards output.
func NewRegistry[E any](logger *logrus.Logger, component string) *Registry[E] {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Registry[E]{
		logger: logger.WithField("component", component),
	}
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (r *Registry[E]) Subscribe(handler Handler[E]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription[E]{id: id, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[E]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers event to every current subscriber
func (r *Registry[E]) Emit(event E) {
	r.mu.RLock()
	subs := r.subs
	r.mu.RUnlock()

	for _, s := range subs {
		r.deliver(s, event)
	}
}

func (r *Registry[E]) deliver(s subscription[E], event E) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.WithFields(logrus.Fields{
				"subscriber":  s.id,
				"panic_value": p,
				"stack_trace": string(debug.Stack()),
			}).Error("Event subscriber panicked")
		}
	}()
	s.handler(event)
}

// Len returns the number of subscribers
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Clear drops every subscriber
func (r *Registry[E]) Clear() {
	r.mu.Lock()
	r.subs = nil
	r.mu.Unlock()
}
