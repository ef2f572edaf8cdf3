// Package listener wires observers of process output to event targets.
package listener

import "sync"

// Handler receives the arguments of an emitted event.
type Handler func(args ...any)

// Subscription identifies one handler attached to one event.
type Subscription struct {
	event string
	fn    Handler
}

// Event returns the event name the subscription is attached to.
func (s *Subscription) Event() string {
	return s.event
}

// Source is anything handlers can subscribe to.
type Source interface {
	On(event string, fn Handler) *Subscription
	Off(sub *Subscription) bool
}

// Target is anything events can be re-emitted on.
type Target interface {
	Emit(event string, args ...any)
}

// Emitter is a synchronous event bus. The zero value is ready to use.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]*Subscription
}

var (
	_ Source = (*Emitter)(nil)
	_ Target = (*Emitter)(nil)
)

// On subscribes fn to event.
func (e *Emitter) On(event string, fn Handler) *Subscription {
	sub := &Subscription{event: event, fn: fn}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[string][]*Subscription)
	}
	e.handlers[event] = append(e.handlers[event], sub)
	return sub
}

// Off removes sub. It reports whether sub was attached.
func (e *Emitter) Off(sub *Subscription) bool {
	if sub == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.handlers[sub.event]
	for i, s := range subs {
		if s == sub {
			e.handlers[sub.event] = append(subs[:i:i], subs[i+1:]...)
			if len(e.handlers[sub.event]) == 0 {
				delete(e.handlers, sub.event)
			}
			return true
		}
	}
	return false
}

// Emit calls every handler of event in subscription order. Handlers may
// subscribe or unsubscribe while being called.
func (e *Emitter) Emit(event string, args ...any) {
	e.mu.RLock()
	subs := append([]*Subscription(nil), e.handlers[event]...)
	e.mu.RUnlock()

	for _, s := range subs {
		s.fn(args...)
	}
}

// ListenerCount returns the number of handlers attached to event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[event])
}
