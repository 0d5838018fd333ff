// Package events carries host input (resize, pointer, click) to the
// components that care about it.
//
// Every handler is registered through Subscribe and removed through the
// returned Subscription, so a component that is built and torn down
// repeatedly never leaves listeners behind.
//
// Inputs from other goroutines go through Post and are delivered by Drain,
// which the frame loop calls between frames. Handlers therefore never run
// concurrently with a physics step.
package events

import (
	"fmt"
	"sync"
)

type Kind int

const (
	Resize Kind = iota
	PointerMove
	Click
)

func (k Kind) String() string {
	switch k {
	case Resize:
		return "resize"
	case PointerMove:
		return "pointer"
	case Click:
		return "click"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "resize":
		return Resize, nil
	case "pointer", "pointermove", "mousemove":
		return PointerMove, nil
	case "click", "tap":
		return Click, nil
	}
	return 0, fmt.Errorf("unknown event kind: %s", s)
}

// Event is a host input. X and Y are viewport coordinates for pointer events
// and the new width and height for resize events.
type Event struct {
	Kind Kind
	X, Y float64
}

type Handler func(Event)

type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]*Subscription
	queue    []Event
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]*Subscription)}
}

type Subscription struct {
	bus     *Bus
	kind    Kind
	handler Handler
}

func (b *Bus) Subscribe(kind Kind, h Handler) *Subscription {
	s := &Subscription{bus: b, kind: kind, handler: h}
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], s)
	b.mu.Unlock()
	return s
}

// Unsubscribe removes the handler. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[s.kind]
	for i, other := range subs {
		if other == s {
			b.handlers[s.kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	s.bus = nil
}

// Subscriptions tears down a group of subscriptions together.
type Subscriptions []*Subscription

func (ss Subscriptions) Unsubscribe() {
	for _, s := range ss {
		s.Unsubscribe()
	}
}

// Publish delivers e to the current subscribers on the calling goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.handlers[e.Kind]...)
	b.mu.Unlock()
	for _, s := range subs {
		s.handler(e)
	}
}

// Post queues e for the next Drain. Safe for concurrent use.
func (b *Bus) Post(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

// Drain publishes all queued events in arrival order and returns how many
// were delivered.
func (b *Bus) Drain() int {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()
	for _, e := range pending {
		b.Publish(e)
	}
	return len(pending)
}

func (b *Bus) Subscribers(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}
