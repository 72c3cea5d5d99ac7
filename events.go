package gosession

import (
	"log"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/internal/idx"
)

// Listener receives one [SessionEvent]. Listeners run synchronously on the
// emitting goroutine; a slow listener delays everything behind it.
type Listener func(SessionEvent)

type busSubscription struct {
	id uint64
	fn Listener
}

// EventBus defines a public type used by goSession APIs.
//
// EventBus fans session transitions out to subscribers. Delivery is
// synchronous and in subscription order on the emitting goroutine; there is
// no queue and no backpressure. A panicking listener is recovered, logged,
// and counted, and never prevents delivery to the listeners behind it.
//
// Subscribers added while an emit is in progress receive the next event,
// not the current one.
//
//	Docs: docs/events.md
type EventBus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventType][]busSubscription
	metrics   *Metrics
}

// NewEventBus describes the neweventbus operation and its observable behavior.
//
// A nil metrics handle disables counting, nothing else.
func NewEventBus(m *Metrics) *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]busSubscription),
		metrics:   m,
	}
}

// On describes the on operation and its observable behavior.
//
// Registers fn for eventType and returns its unsubscribe func. Unsubscribing
// twice is a no-op. A nil listener is ignored and returns a no-op
// unsubscribe.
func (b *EventBus) On(eventType EventType, fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[eventType] = append(b.listeners[eventType], busSubscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() { b.remove(eventType, id) }
}

// Off describes the off operation and its observable behavior.
//
// Removes every listener registered for eventType. Individual removal goes
// through the unsubscribe func returned by [EventBus.On].
func (b *EventBus) Off(eventType EventType) {
	b.mu.Lock()
	delete(b.listeners, eventType)
	b.mu.Unlock()
}

// ListenerCount describes the listenercount operation and its observable behavior.
func (b *EventBus) ListenerCount(eventType EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[eventType])
}

func (b *EventBus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.listeners[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// emit stamps and delivers one event. The listener snapshot is taken under
// the lock, delivery happens outside it, so listeners may subscribe or
// unsubscribe from within a callback without deadlocking.
func (b *EventBus) emit(eventType EventType, payload any) {
	b.mu.Lock()
	subs := b.listeners[eventType]
	snapshot := make([]busSubscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	ev := SessionEvent{
		EventID:   idx.New(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, sub := range snapshot {
		b.deliver(sub.fn, ev)
	}
}

// deliver runs one listener, converting a panic into a log line and a
// counter so the remaining listeners still run.
func (b *EventBus) deliver(fn Listener, ev SessionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.Inc(MetricListenerPanic)
			log.Print("goSession: event listener panic: type=", string(ev.Type), " err=", r)
		}
	}()
	fn(ev)
}
