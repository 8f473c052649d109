package eventbus

import "sync"

// hooks are lifecycle callbacks used for diagnostics. They run on the
// goroutine that triggered them.
type hooks struct {
	mu        sync.RWMutex
	onPublish []func(Event, any)
	onDrop    []func(Event, any)
	onPanic   []func(Event, any, any)
}

// OnPublish registers fn to run after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	addHook(&bus.hooks, &bus.hooks.onPublish, fn)
}

// OnDrop registers fn to run when an event is dropped because the buffer is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	addHook(&bus.hooks, &bus.hooks.onDrop, fn)
}

// OnPanic registers fn to run when a subscriber panics. Panics inside fn are
// swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	addHook(&bus.hooks, &bus.hooks.onPanic, fn)
}

func addHook[F any](h *hooks, list *[]F, fn F) {
	h.mu.Lock()
	*list = append(*list, fn)
	h.mu.Unlock()
}

func snapshot[F any](h *hooks, list []F) []F {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]F(nil), list...)
}

// send enqueues without blocking.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		for _, fn := range snapshot(&bus.hooks, bus.hooks.onPublish) {
			fn(event, payload)
		}
	default:
		for _, fn := range snapshot(&bus.hooks, bus.hooks.onDrop) {
			fn(event, payload)
		}
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	for _, fn := range snapshot(&bus.hooks, bus.hooks.onPanic) {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(event, payload, recovered)
		}()
	}
}
