package juliusprotocol

import (
	"sync"

	"github.com/rs/xid"
)

// Handler is a callback receiving dispatched notifications.
type Handler func(Notification)

// Subscription identifies a registered handler.
type Subscription struct {
	ID   string
	Kind Kind
}

type subscriber struct {
	id     string
	handle Handler
}

// Emitter is a publish/subscribe registry keyed by notification kind.
//
// Handlers for a kind run in subscription order, followed by the KindAll
// handlers. Publish calls handlers synchronously and without holding the
// registry lock, so a handler may subscribe or unsubscribe. A handler added
// during Publish first sees the next notification; a handler removed during
// Publish is not called again, even for the current one.
//
// The zero value is an empty registry ready to use.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Kind][]subscriber
}

// NewEmitter creates an empty registry.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[Kind][]subscriber)}
}

// Subscribe registers h for notifications of kind. Use KindAll to receive
// every notification.
func (e *Emitter) Subscribe(kind Kind, h Handler) Subscription {
	return e.subscribe(kind, xid.New().String(), h)
}

func (e *Emitter) subscribe(kind Kind, id string, h Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[Kind][]subscriber)
	}
	e.handlers[kind] = append(e.handlers[kind], subscriber{id: id, handle: h})
	return Subscription{ID: id, Kind: kind}
}

// Unsubscribe removes a handler. It returns false if the subscription was
// not registered.
func (e *Emitter) Unsubscribe(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.handlers[sub.Kind]
	for i, s := range subs {
		if s.id != sub.ID {
			continue
		}
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(e.handlers, sub.Kind)
		} else {
			e.handlers[sub.Kind] = next
		}
		return true
	}
	return false
}

// Publish delivers n to the handlers registered for its kind and to the
// KindAll handlers.
func (e *Emitter) Publish(n Notification) {
	e.mu.RLock()
	targets := make([]Subscription, 0, len(e.handlers[n.Kind()])+len(e.handlers[KindAll]))
	handlers := make([]Handler, 0, cap(targets))
	for _, kind := range []Kind{n.Kind(), KindAll} {
		for _, s := range e.handlers[kind] {
			targets = append(targets, Subscription{ID: s.id, Kind: kind})
			handlers = append(handlers, s.handle)
		}
	}
	e.mu.RUnlock()

	for i, sub := range targets {
		if !e.registered(sub) {
			continue
		}
		handlers[i](n)
	}
}

func (e *Emitter) registered(sub Subscription) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.handlers[sub.Kind] {
		if s.id == sub.ID {
			return true
		}
	}
	return false
}

// Once registers a one-shot wait for the next notification of kind.
//
// The returned channel receives exactly one notification and the handler
// removes itself. Calling cancel abandons the wait; it is safe to call
// cancel after the notification arrived.
func (e *Emitter) Once(kind Kind) (<-chan Notification, func()) {
	ch := make(chan Notification, 1)
	id := xid.New().String()
	sub := Subscription{ID: id, Kind: kind}

	var once sync.Once
	e.subscribe(kind, id, func(n Notification) {
		once.Do(func() {
			ch <- n
			e.Unsubscribe(sub)
		})
	})

	cancel := func() {
		once.Do(func() {})
		e.Unsubscribe(sub)
	}
	return ch, cancel
}

// Count returns the number of handlers registered for kind.
func (e *Emitter) Count(kind Kind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[kind])
}
