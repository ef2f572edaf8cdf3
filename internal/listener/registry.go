package listener

import (
	"github.com/trly/binary-driver/internal/errdefs"
)

// Registry tracks listeners and the forwarding subscriptions created for them.
// It is not safe for concurrent use.
type Registry struct {
	order   []Listener
	storage map[Listener]map[string]*Subscription
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{storage: make(map[Listener]map[string]*Subscription)}
}

// Register adds l. When target is non-nil every event l forwards is re-emitted
// on target with the same arguments. Registering l again replaces its
// previous forwarding.
func (r *Registry) Register(l Listener, target Target) *Registry {
	if r.storage == nil {
		r.storage = make(map[Listener]map[string]*Subscription)
	}

	if subs, ok := r.storage[l]; ok {
		detach(l, subs)
	} else {
		r.order = append(r.order, l)
	}

	subs := make(map[string]*Subscription)
	if target != nil {
		for _, event := range l.ForwardedEvents() {
			if _, dup := subs[event]; dup {
				continue
			}
			subs[event] = l.On(event, forwarder(event, target))
		}
	}
	r.storage[l] = subs

	return r
}

// Unregister removes l and every forwarding subscription created for it.
func (r *Registry) Unregister(l Listener) error {
	subs, ok := r.storage[l]
	if !ok {
		return errdefs.NewInvalidArgumentError("listener is not registered")
	}

	detach(l, subs)
	delete(r.storage, l)
	for i, o := range r.order {
		if o == l {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Has reports whether l is registered.
func (r *Registry) Has(l Listener) bool {
	_, ok := r.storage[l]
	return ok
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	return len(r.order)
}

// Listeners returns the registered listeners in registration order.
func (r *Registry) Listeners() []Listener {
	return append([]Listener(nil), r.order...)
}

// Clone returns a registry holding the same listeners and subscriptions
// whose storage can be changed without affecting r.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		order:   append([]Listener(nil), r.order...),
		storage: make(map[Listener]map[string]*Subscription, len(r.storage)),
	}
	for l, subs := range r.storage {
		copied := make(map[string]*Subscription, len(subs))
		for event, sub := range subs {
			copied[event] = sub
		}
		c.storage[l] = copied
	}
	return c
}

func detach(l Listener, subs map[string]*Subscription) {
	for _, sub := range subs {
		l.Off(sub)
	}
}

func forwarder(event string, target Target) Handler {
	return func(args ...any) {
		target.Emit(event, args...)
	}
}
